package sessions_test

import (
	"context"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/internal/fakeapi"
	"github.com/jrsteele09/marketplace-client/querycache"
	"github.com/jrsteele09/marketplace-client/sessions"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/stretchr/testify/require"
)

const frontendURL = "http://localhost:3000"

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

type env struct {
	api   *fakeapi.Server
	url   string
	jar   *cookiejar.Jar
	cache *querycache.Cache
	hint  *sessions.JarHint
	nav   *recorder
	m     *sessions.Manager
}

func newEnv(t *testing.T) *env {
	api := fakeapi.New()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	e := &env{api: api, url: srv.URL + fakeapi.APIPrefix, jar: jar}
	e.m, e.cache, e.hint, e.nav = e.newManager(t)
	return e
}

// newManager builds a manager as a fresh page load would: same jar, new
// memory.
func (e *env) newManager(t *testing.T) (*sessions.Manager, *querycache.Cache, *sessions.JarHint, *recorder) {
	client, err := apiclient.New(e.url, apiclient.WithJar(e.jar), apiclient.WithTimeout(5*time.Second))
	require.NoError(t, err)
	cache := querycache.New(time.Minute)
	t.Cleanup(cache.Close)
	hint, err := sessions.NewJarHint(e.jar, frontendURL)
	require.NoError(t, err)
	nav := &recorder{}
	m, err := sessions.NewManager(client,
		sessions.WithCache(cache),
		sessions.WithHint(hint),
		sessions.WithNavigator(nav),
	)
	require.NoError(t, err)
	return m, cache, hint, nav
}

func (e *env) seedCache(t *testing.T) {
	_, err := querycache.Query(context.Background(), e.cache, "projects/1", func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, e.cache.Len())
}

func TestNewManagerRequiresClient(t *testing.T) {
	_, err := sessions.NewManager(nil)
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestRestoreWithoutCookieIsAnonymous(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, sessions.StatusUnknown, e.m.Status())

	user, err := e.m.RestoreSession(context.Background())
	require.ErrorIs(t, err, errors.ErrNoSession)
	require.Nil(t, user)
	require.Equal(t, sessions.StatusAnonymous, e.m.Status())
	require.False(t, e.m.IsAuthenticated())

	_, err = e.m.RestoreSession(context.Background())
	require.ErrorIs(t, err, errors.ErrNoSession)
	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
}

func TestLoginEstablishesSession(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Bea Buyer", users.RoleBuyer)

	user, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.Equal(t, users.RoleBuyer, user.Role)
	require.Equal(t, sessions.StatusAuthenticated, e.m.Status())
	require.True(t, e.m.IsAuthenticated())
	require.NotEmpty(t, e.m.AccessToken())
	require.False(t, e.m.Token().Expiry.IsZero())
	require.True(t, e.hint.Present())
	require.Equal(t, "/buyer", e.nav.last())

	// Mutating the returned profile does not reach the manager.
	user.Name = "changed"
	require.Equal(t, "Bea Buyer", e.m.CurrentUser().Name)
}

func TestLoginHonoursReturnTo(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)

	_, err := e.m.Login(context.Background(), "buyer@example.com", sessions.WithReturnTo("/buyer/projects/42"))
	require.NoError(t, err)
	require.Equal(t, "/buyer/projects/42", e.nav.last())

	_, err = e.m.Login(context.Background(), "buyer@example.com", sessions.WithReturnTo("/admin/users"))
	require.NoError(t, err)
	require.Equal(t, "/buyer", e.nav.last())

	_, err = e.m.Login(context.Background(), "buyer@example.com", sessions.WithReturnTo("https://evil.example.com/buyer"))
	require.NoError(t, err)
	require.Equal(t, "/buyer", e.nav.last())
}

func TestRestoreFromRefreshCookie(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("solver@example.com", "Sol", users.RoleSolver)
	_, err := e.m.Login(context.Background(), "solver@example.com")
	require.NoError(t, err)

	reload, _, _, _ := e.newManager(t)
	require.True(t, reload.HasHint())
	require.False(t, reload.IsAuthenticated())

	user, err := reload.RestoreSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "solver@example.com", user.Email)
	require.Equal(t, sessions.StatusAuthenticated, reload.Status())
	require.NotEmpty(t, reload.AccessToken())

	_, err = reload.RestoreSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
}

func TestRestoreCancelledCanRunAgain(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("solver@example.com", "Sol", users.RoleSolver)
	_, err := e.m.Login(context.Background(), "solver@example.com")
	require.NoError(t, err)

	reload, _, _, _ := e.newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reload.RestoreSession(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, sessions.StatusUnknown, reload.Status())

	user, err := reload.RestoreSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, users.RoleSolver, user.Role)
}

func TestLoginFailureLeavesAnonymous(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	e.seedCache(t)

	_, err = e.m.Login(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, errors.ErrAuthRejected)
	require.ErrorIs(t, err, errors.ErrNotFound)
	var authErr *sessions.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "No user with email ghost@example.com", authErr.Message)

	require.False(t, e.m.IsAuthenticated())
	require.Empty(t, e.m.AccessToken())
	require.Equal(t, sessions.StatusAnonymous, e.m.Status())
	require.False(t, e.hint.Present())
	require.Zero(t, e.cache.Len())

	// The earlier session was revoked on the server too.
	reload, _, _, _ := e.newManager(t)
	_, err = reload.RestoreSession(context.Background())
	require.ErrorIs(t, err, errors.ErrNoSession)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	e.api.AddUser("solver@example.com", "Solver", users.RoleSolver)

	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	first := e.m.AccessToken()
	e.seedCache(t)

	user, err := e.m.Login(context.Background(), "solver@example.com")
	require.NoError(t, err)
	require.Equal(t, users.RoleSolver, user.Role)
	require.NotEqual(t, first, e.m.AccessToken())
	require.Zero(t, e.cache.Len())
	require.Equal(t, int64(2), e.api.LogoutCalls.Load())
	require.Equal(t, "/solver", e.nav.last())
}

func TestLogoutIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("admin@example.com", "Admin", users.RoleAdmin)
	_, err := e.m.Login(context.Background(), "admin@example.com")
	require.NoError(t, err)
	e.seedCache(t)

	require.NoError(t, e.m.Logout(context.Background()))
	require.NoError(t, e.m.Logout(context.Background()))

	require.Equal(t, sessions.StatusAnonymous, e.m.Status())
	require.Nil(t, e.m.CurrentUser())
	require.Empty(t, e.m.AccessToken())
	require.Zero(t, e.cache.Len())
	require.False(t, e.hint.Present())
	require.Equal(t, access.LoginRoute, e.nav.last())

	_, err = e.m.RestoreSession(context.Background())
	require.ErrorIs(t, err, errors.ErrNoSession)
	require.Zero(t, e.api.RefreshCalls.Load())
}

func TestLogoutClearsLocallyWhenServerIsDown(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("admin@example.com", "Admin", users.RoleAdmin)
	_, err := e.m.Login(context.Background(), "admin@example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.m.Logout(ctx))
	require.False(t, e.m.IsAuthenticated())
	require.False(t, e.hint.Present())
}

func TestExpiredAccessTokenRefreshesOnce(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	before := e.m.AccessToken()

	e.api.InvalidateAccessTokens()
	var me users.Profile
	require.NoError(t, e.m.Client().Get(context.Background(), "/auth/me", nil, &me))
	require.Equal(t, "buyer@example.com", me.Email)
	require.NotEqual(t, before, e.m.AccessToken())
	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
	require.Equal(t, int64(1), e.m.RefreshCount())
	require.True(t, e.m.IsAuthenticated())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)

	e.api.InvalidateAccessTokens()
	e.api.SetRefreshDelay(100 * time.Millisecond)

	const callers = 6
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var me users.Profile
			errs <- e.m.Client().Get(context.Background(), "/auth/me", nil, &me)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
	require.True(t, e.m.IsAuthenticated())
}

func TestCallerGivingUpDoesNotExpireSharedRefresh(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.Equal(t, "/buyer", e.nav.last())

	e.api.InvalidateAccessTokens()
	e.api.SetRefreshDelay(300 * time.Millisecond)

	impatient, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var wg sync.WaitGroup
	var impatientErr, patientErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		var me users.Profile
		impatientErr = e.m.Client().Get(impatient, "/auth/me", nil, &me)
	}()
	go func() {
		defer wg.Done()
		var me users.Profile
		patientErr = e.m.Client().Get(context.Background(), "/auth/me", nil, &me)
	}()
	wg.Wait()

	require.ErrorIs(t, impatientErr, context.DeadlineExceeded)
	require.NoError(t, patientErr)
	require.True(t, e.m.IsAuthenticated())
	require.Equal(t, sessions.StatusAuthenticated, e.m.Status())
	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
	require.Equal(t, "/buyer", e.nav.last(), "no redirect to login")
}

func TestUnauthorizedWithoutTokenDoesNotRefresh(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)

	// Expiry is local only, so the refresh cookie is still in the jar.
	e.m.Expire(context.Background(), errors.ErrAuthExpired)
	refreshes := e.api.RefreshCalls.Load()

	var page any
	err = e.m.Client().Get(context.Background(), "/projects", nil, &page)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
	require.Equal(t, refreshes, e.api.RefreshCalls.Load())
	require.Empty(t, e.m.AccessToken())
	require.False(t, e.m.IsAuthenticated())
	require.Equal(t, sessions.StatusAnonymous, e.m.Status())
}

func TestReplayRejectedLogsOut(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("buyer@example.com", "Buyer", users.RoleBuyer)
	_, err := e.m.Login(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	e.seedCache(t)
	e.m.SetLocation("/buyer/projects")

	e.api.RejectAllTokens.Store(true)
	err = e.m.Client().Get(context.Background(), "/projects", nil, nil)
	require.ErrorIs(t, err, errors.ErrAuthExpired)

	require.Equal(t, int64(1), e.api.RefreshCalls.Load())
	require.Equal(t, sessions.StatusAnonymous, e.m.Status())
	require.False(t, e.hint.Present())
	require.Zero(t, e.cache.Len())
	require.Equal(t, access.LoginPath("/buyer/projects"), e.nav.last())
	require.Equal(t, "/login?next=%2Fbuyer%2Fprojects", e.nav.last())
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("solver@example.com", "Solver", users.RoleSolver)
	_, err := e.m.Login(context.Background(), "solver@example.com")
	require.NoError(t, err)

	e.api.InvalidateAccessTokens()
	e.api.FailRefresh.Store(true)
	err = e.m.Client().Get(context.Background(), "/projects", nil, nil)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
	require.False(t, e.m.IsAuthenticated())
	require.Equal(t, access.LoginRoute, e.nav.last())
	require.Zero(t, e.m.RefreshCount())
}

func TestProviderLogin(t *testing.T) {
	e := newEnv(t)
	consent, err := e.m.ProviderURL(context.Background(), sessions.ProviderGoogle)
	require.NoError(t, err)
	require.Contains(t, consent, "google.example.com")

	_, err = e.m.ProviderURL(context.Background(), "myspace")
	require.ErrorIs(t, err, errors.ErrNotFound)

	e.api.AddProviderCode(sessions.ProviderGitHub, "abc", "octo@example.com")
	user, err := e.m.LoginWithProvider(context.Background(), sessions.ProviderGitHub, "abc")
	require.NoError(t, err)
	require.Equal(t, "octo@example.com", user.Email)
	require.Equal(t, "/solver", e.nav.last())

	_, err = e.m.LoginWithProvider(context.Background(), sessions.ProviderGitHub, "abc")
	var authErr *sessions.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Failed to authenticate with GitHub", authErr.Message)
	require.False(t, e.m.IsAuthenticated())

	_, err = e.m.LoginWithProvider(context.Background(), "", "")
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestRouteForRole(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, "/admin", e.m.RouteForRole(users.RoleAdmin))
	require.Equal(t, "/buyer", e.m.RouteForRole(users.RoleBuyer))
	require.Equal(t, "/solver", e.m.RouteForRole(users.RoleSolver))
	require.Equal(t, "/", e.m.RouteForRole("AUDITOR"))
}

func TestStatusSettled(t *testing.T) {
	require.False(t, sessions.StatusUnknown.Settled())
	require.False(t, sessions.StatusChecking.Settled())
	require.True(t, sessions.StatusAuthenticated.Settled())
	require.True(t, sessions.StatusAnonymous.Settled())
	require.Equal(t, "checking", sessions.StatusChecking.String())
}
