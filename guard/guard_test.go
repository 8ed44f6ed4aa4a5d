package guard_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/guard"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/internal/fakeapi"
	"github.com/jrsteele09/marketplace-client/sessions"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		path     string
		hint     bool
		decision guard.Decision
		location string
	}{
		{"/", false, guard.Allow, ""},
		{"/login", false, guard.Allow, ""},
		{"/auth/callback?code=x", false, guard.Allow, ""},
		{"/buyer/projects", true, guard.Allow, ""},
		{"/buyer/projects?page=2", false, guard.Redirect, "/login?next=%2Fbuyer%2Fprojects%3Fpage%3D2"},
		{"/profile", false, guard.Redirect, "/login?next=%2Fprofile"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := guard.Evaluate(tt.path, tt.hint)
			require.Equal(t, tt.decision, out.Decision)
			require.Equal(t, tt.location, out.Location)
		})
	}
}

func TestBoundary(t *testing.T) {
	h := guard.Boundary("has_session")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/solver/tasks?id=7", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/login?next=%2Fsolver%2Ftasks%3Fid%3D7", rr.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/solver/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "has_session", Value: "1"})
	rr = httptest.NewRecorder()
	h(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestDecide(t *testing.T) {
	g := guard.NewSectionGuard(nil)
	buyer := &users.Profile{ID: "1", Role: users.RoleBuyer}
	tests := []struct {
		name     string
		state    sessions.State
		path     string
		decision guard.Decision
		location string
	}{
		{"public while unknown", sessions.State{}, "/", guard.Allow, ""},
		{"unknown waits", sessions.State{}, "/buyer", guard.Wait, ""},
		{"checking waits", sessions.State{Status: sessions.StatusChecking}, "/buyer", guard.Wait, ""},
		{"anonymous to login", sessions.State{Status: sessions.StatusAnonymous}, "/buyer/projects", guard.Redirect, "/login?next=%2Fbuyer%2Fprojects"},
		{"own section", sessions.State{Status: sessions.StatusAuthenticated, User: buyer}, "/buyer/projects", guard.Allow, ""},
		{"shared section", sessions.State{Status: sessions.StatusAuthenticated, User: buyer}, "/profile", guard.Allow, ""},
		{"other section", sessions.State{Status: sessions.StatusAuthenticated, User: buyer}, "/admin/users", guard.Redirect, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.Decide(tt.state, tt.path)
			require.Equal(t, tt.decision, out.Decision)
			require.Equal(t, tt.location, out.Location)
		})
	}
}

func newManager(t *testing.T) (*fakeapi.Server, *sessions.Manager, *sessions.MemoryHint) {
	api := fakeapi.New()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client, err := apiclient.New(srv.URL+fakeapi.APIPrefix, apiclient.WithJar(jar))
	require.NoError(t, err)
	hint := &sessions.MemoryHint{}
	m, err := sessions.NewManager(client, sessions.WithHint(hint))
	require.NoError(t, err)
	return api, m, hint
}

func TestForgedHintGrantsNothing(t *testing.T) {
	_, m, hint := newManager(t)
	require.NoError(t, hint.Set())

	require.Equal(t, guard.Allow, guard.Evaluate("/admin/users", hint.Present()).Decision)

	out, err := guard.NewSectionGuard(m).Enter(context.Background(), "/admin/users")
	require.NoError(t, err)
	require.Equal(t, guard.Redirect, out.Decision)
	require.Equal(t, "/login?next=%2Fadmin%2Fusers", out.Location)
	require.False(t, hint.Present())

	err = m.Client().Get(context.Background(), "/users", nil, nil)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
}

func TestEnterRestoresOnce(t *testing.T) {
	api, m, _ := newManager(t)
	api.AddUser("solver@example.com", "Solver", users.RoleSolver)
	_, err := m.Login(context.Background(), "solver@example.com")
	require.NoError(t, err)

	// A fresh page load on the same jar.
	client, err := apiclient.New(m.Client().BaseURL().String(), apiclient.WithJar(m.Client().Jar()))
	require.NoError(t, err)
	reload, err := sessions.NewManager(client)
	require.NoError(t, err)
	g := guard.NewSectionGuard(reload)

	out, err := g.Enter(context.Background(), "/solver/tasks")
	require.NoError(t, err)
	require.Equal(t, guard.Allow, out.Decision)
	require.Equal(t, "/solver/tasks", reload.Location())

	out, err = g.Enter(context.Background(), "/buyer")
	require.NoError(t, err)
	require.Equal(t, guard.Redirect, out.Decision)
	require.Equal(t, "/", out.Location)
	require.Equal(t, int64(1), api.RefreshCalls.Load())
}

func TestEnterWaitsWhenInterrupted(t *testing.T) {
	_, m, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := guard.NewSectionGuard(m).Enter(ctx, "/buyer")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, guard.Wait, out.Decision)
	require.Equal(t, sessions.StatusUnknown, m.Status())
}
