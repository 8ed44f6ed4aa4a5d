package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/marketplace-client/internal/config"
	"github.com/jrsteele09/marketplace-client/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, env map[string]string) *server.Server {
	t.Setenv("ENV", "TEST")
	t.Setenv("API_BASE_URL", "https://api.example.com/api/")
	for k, v := range env {
		t.Setenv(k, v)
	}
	s, err := server.New(config.New(), server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return s
}

func get(s http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := get(newServer(t, nil), "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestClientConfig(t *testing.T) {
	s := newServer(t, map[string]string{"SESSION_HINT_COOKIE": "signed_in"})
	rr := get(s, "/config.json")
	require.Equal(t, http.StatusOK, rr.Code)

	var cfg server.ClientConfig
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cfg))
	require.Equal(t, "https://api.example.com/api", cfg.APIBaseURL)
	require.Equal(t, "signed_in", cfg.HintCookie)
	require.Equal(t, "/login", cfg.LoginRoute)
	require.Equal(t, "next", cfg.NextParam)
}

func TestGuardedSectionsNeedHint(t *testing.T) {
	s := newServer(t, nil)
	for _, path := range []string{"/admin/users", "/buyer/", "/solver/tasks/1", "/profile", "/projects/abc"} {
		rr := get(s, path+"?tab=open")
		require.Equal(t, http.StatusSeeOther, rr.Code, path)
		require.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/login?next="), path)
	}

	rr := get(s, "/buyer/projects", &http.Cookie{Name: "has_session", Value: "1"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `data-section="buyer"`)
	require.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
}

func TestPublicPagesNeedNothing(t *testing.T) {
	s := newServer(t, nil)
	for _, path := range []string{"/", "/login?next=%2Fbuyer", "/auth/callback?code=abc"} {
		rr := get(s, path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	}
}

func TestUnknownPathsAreShared(t *testing.T) {
	rr := get(newServer(t, nil), "/settings")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/login?next=%2Fsettings", rr.Header().Get("Location"))
}

func TestStaticFiles(t *testing.T) {
	s := newServer(t, nil)
	rr := get(s, "/static/app.css")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/css")
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	s.ServeHTTP(cached, req)
	require.Equal(t, http.StatusNotModified, cached.Code)

	require.Equal(t, http.StatusNotFound, get(s, "/static/missing.js").Code)
}

func TestWWWRedirect(t *testing.T) {
	s := newServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Host = "www.market.example.com"
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusMovedPermanently, rr.Code)
	require.Equal(t, "https://market.example.com/login", rr.Header().Get("Location"))
}

func TestRateLimiting(t *testing.T) {
	s := newServer(t, map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_PER_MINUTE": "2"})
	require.Equal(t, http.StatusOK, get(s, "/login").Code)
	require.Equal(t, http.StatusOK, get(s, "/login").Code)
	require.Equal(t, http.StatusTooManyRequests, get(s, "/login").Code)
}

func TestRecoverMiddleware(t *testing.T) {
	s := newServer(t, nil)
	h := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, s.RecoverMiddleware)
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRoutesAreRegistered(t *testing.T) {
	routes := newServer(t, nil).Routes()
	require.Contains(t, routes, "GET /health")
	require.Contains(t, routes, "GET /admin/")
	require.Contains(t, routes, "GET /static/{file}")
}
