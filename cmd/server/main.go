package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/marketplace-client/internal/config"
	"github.com/jrsteele09/marketplace-client/internal/logging"
	"github.com/jrsteele09/marketplace-client/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/acme/autocert"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	log.Logger = logging.New(c.GetLogLevel(), c.GetEnv() == "DEV")
	displayAppname(c.GetAppName())

	handler, err := server.New(c, server.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	if domain := c.GetAutocertDomain(); domain != "" {
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(domain, "www."+domain),
			Cache:      autocert.DirCache(filepath.Join(c.GetDataFolder(), "certs")),
		}
		srv.Addr = ":https"
		srv.TLSConfig = &tls.Config{GetCertificate: manager.GetCertificate, MinVersion: tls.VersionTLS12}
		go func() {
			// HTTP-01 challenges and the redirect to https
			errs <- http.ListenAndServe(":http", manager.HTTPHandler(nil))
		}()
		go func() { errs <- listenAndServeTLS(srv) }()
	} else {
		go func() { errs <- listenAndServe(srv) }()
	}

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func listenAndServeTLS(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening with TLS")
	if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServeTLS %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	if zerolog.GlobalLevel() > zerolog.InfoLevel {
		return
	}
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
