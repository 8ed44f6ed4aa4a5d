package main

import "github.com/jrsteele09/marketplace-client/internal/cli"

func main() {
	cli.Execute()
}
