// Package cli implements marketctl. Each invocation is one "page load": the
// cookie store plays the browser's cookie jar, the session is restored at
// most once, and every command passes the same guards a page would.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/guard"
	"github.com/jrsteele09/marketplace-client/internal/config"
	"github.com/jrsteele09/marketplace-client/internal/cookiestore"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/internal/logging"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/querycache"
	"github.com/jrsteele09/marketplace-client/sessions"
	"github.com/rs/zerolog"
)

type App struct {
	cfg    config.Config
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger

	store   *cookiestore.Store
	hint    *sessions.JarHint
	cache   *querycache.Cache
	session *sessions.Manager
	guard   *guard.SectionGuard
	api     *marketplace.API

	// location is where the session manager last sent the user.
	location string
	printer  printer
}

// open wires the session stack. It runs once, before any command.
func (a *App) open(verbose bool, format string) error {
	level := a.cfg.GetLogLevel()
	if verbose {
		level = "debug"
	}
	a.logger = logging.NewWithWriter(a.errOut, level, true)

	p, err := newPrinter(a.out, format)
	if err != nil {
		return err
	}
	a.printer = p

	store, err := cookiestore.Open(a.cfg.GetDataFolder(), cookiestore.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.store = store

	client, err := apiclient.New(a.cfg.GetAPIBaseURL(),
		apiclient.WithJar(store),
		apiclient.WithTimeout(a.cfg.GetRequestTimeout()),
		apiclient.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	hint, err := sessions.NewJarHint(store, a.cfg.GetFrontendURL(),
		sessions.WithHintCookieName(a.cfg.GetHintCookieName()),
		sessions.WithHintMaxAge(a.cfg.GetHintMaxAge()),
		sessions.WithHintSecure(a.cfg.GetCookieSecure()),
	)
	if err != nil {
		return err
	}
	a.hint = hint

	a.cache = querycache.New(a.cfg.GetQueryStaleTime(), querycache.WithLogger(a.logger))
	a.session, err = sessions.NewManager(client,
		sessions.WithCache(a.cache),
		sessions.WithHint(hint),
		sessions.WithLogger(a.logger),
		sessions.WithNavigator(sessions.NavigatorFunc(func(path string) {
			a.location = path
		})),
	)
	if err != nil {
		return err
	}
	a.guard = guard.NewSectionGuard(a.session, guard.WithLogger(a.logger))
	a.api, err = marketplace.New(client, a.cache)
	return err
}

func (a *App) close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// enter runs the boundary and the section guard for path, restoring the
// session on the way.
func (a *App) enter(ctx context.Context, path string) error {
	if out := guard.Evaluate(path, a.hint.Present()); out.Decision == guard.Redirect {
		return errors.Wrapf(errors.ErrNoSession, "not signed in, run `marketctl login` (would redirect to %s)", out.Location)
	}
	out, err := a.guard.Enter(ctx, path)
	if err != nil {
		return err
	}
	switch out.Decision {
	case guard.Allow:
		return nil
	case guard.Redirect:
		if strings.HasPrefix(out.Location, access.LoginRoute) {
			return errors.Wrapf(errors.ErrNoSession, "session expired, run `marketctl login` (would redirect to %s)", out.Location)
		}
		return errors.Wrapf(errors.ErrForbidden, "role %s cannot open %s", a.session.State().Role(), path)
	}
	return fmt.Errorf("session for %s is still being restored", path)
}

// explain turns an expired session found mid-command into advice.
func (a *App) explain(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errors.ErrAuthExpired) && !a.session.IsAuthenticated() {
		return fmt.Errorf("%w; run `marketctl login`", err)
	}
	return err
}
