// Package guard decides whether a location may be shown. The boundary runs
// at the edge and only looks at the session hint; the section guard runs
// after the session is restored and looks at the confirmed role.
package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/sessions"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/rs/zerolog"
)

type Decision int

const (
	// Wait means the session is still being restored; show nothing yet.
	Wait Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "wait"
}

type Outcome struct {
	Decision Decision
	Location string
}

func allow() Outcome {
	return Outcome{Decision: Allow}
}

func redirect(location string) Outcome {
	return Outcome{Decision: Redirect, Location: location}
}

// Evaluate is the boundary decision for a path (query included) given
// whether the hint cookie is present. The hint only avoids a pointless
// round trip for visitors who were never signed in.
func Evaluate(path string, hasHint bool) Outcome {
	if access.IsPublic(pathOnly(path)) || hasHint {
		return allow()
	}
	return redirect(access.LoginPath(path))
}

// Boundary is edge middleware that sends visitors without a hint cookie to
// login, carrying the original path and query.
func Boundary(hintCookie string) func(http.HandlerFunc) http.HandlerFunc {
	if hintCookie == "" {
		hintCookie = sessions.DefaultHintCookie
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(hintCookie)
			out := Evaluate(r.URL.RequestURI(), err == nil && c.Value != "")
			if out.Decision == Redirect {
				http.Redirect(w, r, out.Location, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

// Session is what the section guard needs from the session manager.
type Session interface {
	State() sessions.State
	SetLocation(path string)
	RestoreSession(ctx context.Context) (*users.Profile, error)
}

var _ Session = (*sessions.Manager)(nil)

type SectionGuard struct {
	session Session
	logger  zerolog.Logger
}

type Option func(*SectionGuard)

func WithLogger(logger zerolog.Logger) Option {
	return func(g *SectionGuard) {
		g.logger = logger
	}
}

func NewSectionGuard(session Session, opts ...Option) *SectionGuard {
	g := &SectionGuard{session: session, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide never redirects before the session has settled. A role without
// access to the section goes back to the landing page.
func (g *SectionGuard) Decide(state sessions.State, path string) Outcome {
	p := pathOnly(path)
	if access.IsPublic(p) {
		return allow()
	}
	if !state.Status.Settled() {
		return Outcome{Decision: Wait}
	}
	if state.Status != sessions.StatusAuthenticated || state.User == nil {
		return redirect(access.LoginPath(path))
	}
	if !access.CanAccessPath(state.Role(), p) {
		return redirect(access.LandingPath)
	}
	return allow()
}

// Enter records path as the current location, restores the session if that
// has not happened yet, and decides. A restore that was interrupted leaves
// the guard waiting.
func (g *SectionGuard) Enter(ctx context.Context, path string) (Outcome, error) {
	g.session.SetLocation(path)
	if access.IsPublic(pathOnly(path)) {
		return allow(), nil
	}
	if _, err := g.session.RestoreSession(ctx); err != nil && ctx.Err() != nil {
		return Outcome{Decision: Wait}, ctx.Err()
	}
	out := g.Decide(g.session.State(), path)
	g.logger.Debug().Str("path", path).Stringer("decision", out.Decision).Str("location", out.Location).Msg("section guard")
	return out, nil
}

func pathOnly(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return access.LandingPath
	}
	return s
}
