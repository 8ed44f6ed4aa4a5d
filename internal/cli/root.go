package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/marketplace-client/internal/config"
	"github.com/spf13/cobra"
)

const AppName = "marketctl"

// NewRootCommand builds the command tree. out receives command output and
// errOut receives logs.
func NewRootCommand(cfg config.Config, out, errOut io.Writer) *cobra.Command {
	app := &App{cfg: cfg, out: out, errOut: errOut}
	var (
		verbose bool
		format  string
	)

	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         "marketctl is a command-line client for the marketplace",
		Long:          `A command-line client for the marketplace API. It signs in like the web app does and keeps the refresh cookie between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(verbose, format)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and session changes")
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", formatTable, "output format: table, json or yaml")

	rootCmd.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newOAuthCmd(app),
		newProjectsCmd(app),
		newBidsCmd(app),
		newTasksCmd(app),
		newSubmissionsCmd(app),
		newUsersCmd(app),
		newProfileCmd(app),
	)
	return rootCmd
}

// Execute runs marketctl against the environment configuration.
func Execute() {
	if err := NewRootCommand(config.New(), os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
