// Package sessions owns the signed-in state of one page load: the access
// token in memory, the confirmed profile, and the session-hint flag.
package sessions

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/querycache"
	"github.com/jrsteele09/marketplace-client/token"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	pathDevLogin     = "/auth/dev-login"
	pathRefresh      = "/auth/refresh"
	pathLogout       = "/auth/logout"
	pathMe           = "/auth/me"
	pathProvider     = "/auth/"
	pathCallbackRoot = "/auth/callback/"

	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusChecking
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Settled reports whether the status is final for this page load.
func (s Status) Settled() bool {
	return s == StatusAuthenticated || s == StatusAnonymous
}

// State is a snapshot of the session for guards and views.
type State struct {
	Status Status
	User   *users.Profile
}

func (s State) Role() users.Role {
	if s.User == nil {
		return users.RoleAnonymous
	}
	return s.User.Role
}

// Manager is safe for concurrent use. It is the only writer of the token
// holder.
type Manager struct {
	client *apiclient.Client
	tokens *token.Holder
	cache  *querycache.Cache
	hint   HintStore
	nav    Navigator
	logger zerolog.Logger

	refreshGroup singleflight.Group
	refreshes    atomic.Int64
	location     atomic.Value // string

	mu     sync.RWMutex
	user   *users.Profile
	status Status

	restoreMu  sync.Mutex
	restored   bool
	restoreErr error
}

type ManagerOption func(*Manager)

func WithCache(cache *querycache.Cache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

func WithHint(hint HintStore) ManagerOption {
	return func(m *Manager) {
		m.hint = hint
	}
}

func WithNavigator(nav Navigator) ManagerOption {
	return func(m *Manager) {
		m.nav = nav
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithHolder(h *token.Holder) ManagerOption {
	return func(m *Manager) {
		m.tokens = h
	}
}

// NewManager binds itself to client so every API call made through the
// client uses, and refreshes, this session.
func NewManager(client *apiclient.Client, options ...ManagerOption) (*Manager, error) {
	if client == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[NewManager] api client is required")
	}
	m := &Manager{
		client: client,
		tokens: token.NewHolder(),
		hint:   &MemoryHint{},
		nav:    NopNavigator{},
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.location.Store("")
	client.Bind(m)
	return m, nil
}

var _ apiclient.Session = (*Manager)(nil)

// LoginOption adjusts a single sign-in.
type LoginOption func(*loginOptions)

type loginOptions struct {
	returnTo string
}

// WithReturnTo sends the user back to next after sign-in when their role may
// open it; otherwise they land on their role home.
func WithReturnTo(next string) LoginOption {
	return func(o *loginOptions) {
		o.returnTo = next
	}
}

// Login signs in by email. Any previous session is revoked and cleared first,
// so a failure always leaves the manager anonymous.
func (m *Manager) Login(ctx context.Context, email string, opts ...LoginOption) (*users.Profile, error) {
	o := applyLoginOptions(opts)
	m.dropPrevious(ctx)

	var resp token.Response
	err := m.client.Raw(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathDevLogin,
		Body:   apiclient.JSON(map[string]string{"email": email}),
	}, &resp)
	if err != nil {
		m.logger.Info().Err(err).Msg("login rejected")
		return nil, newAuthError("login", err)
	}
	return m.establish(ctx, "login", resp, o.returnTo)
}

// LoginWithProvider completes an OAuth provider redirect by exchanging the
// authorization code through the API's callback endpoint.
func (m *Manager) LoginWithProvider(ctx context.Context, provider, code string, opts ...LoginOption) (*users.Profile, error) {
	if provider == "" || code == "" {
		return nil, &AuthError{Op: "oauth callback", Message: "provider and code are required", Err: errors.ErrInvalidRequest}
	}
	o := applyLoginOptions(opts)
	m.dropPrevious(ctx)

	var resp token.Response
	err := m.client.Raw(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathCallbackRoot + url.PathEscape(provider),
		Query:  url.Values{"code": {code}},
	}, &resp)
	if err != nil {
		m.logger.Info().Err(err).Str("provider", provider).Msg("provider login rejected")
		return nil, newAuthError("oauth callback", err)
	}
	return m.establish(ctx, "oauth callback", resp, o.returnTo)
}

// ProviderURL returns the consent page of an OAuth provider.
func (m *Manager) ProviderURL(ctx context.Context, provider string) (string, error) {
	if provider == "" {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "provider is required")
	}
	var resp struct {
		URL string `json:"url"`
	}
	err := m.client.Raw(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathProvider + url.PathEscape(provider),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func applyLoginOptions(opts []LoginOption) loginOptions {
	var o loginOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// dropPrevious revokes whatever session the jar still carries, then clears
// local state. The server call is best effort.
func (m *Manager) dropPrevious(ctx context.Context) {
	m.serverLogout(ctx)
	m.clearLocal()
	m.setStatus(StatusAnonymous)
	m.markRestored(errors.ErrNoSession)
}

// establish stores the token, confirms the profile and routes the user.
func (m *Manager) establish(ctx context.Context, op string, resp token.Response, returnTo string) (*users.Profile, error) {
	if resp.AccessToken == "" {
		m.clearLocal()
		return nil, &AuthError{Op: op, Message: "no access token in response", Err: errors.ErrAuthRejected}
	}
	m.tokens.Set(resp.OAuth2())

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		m.clearLocal()
		m.setStatus(StatusAnonymous)
		return nil, newAuthError(op, err)
	}
	m.setUser(profile)
	m.setHint()
	m.markRestored(nil)
	m.logger.Info().Str("user_id", profile.ID).Str("role", string(profile.Role)).Msg("session established")
	m.nav.Navigate(access.ReturnTo(profile.Role, returnTo))
	return copyProfile(profile), nil
}

// RestoreSession runs once per page load: it exchanges the refresh cookie for
// an access token and loads the profile. Later calls return the first
// outcome without touching the network.
func (m *Manager) RestoreSession(ctx context.Context) (*users.Profile, error) {
	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()
	if m.restored {
		return m.CurrentUser(), m.restoreErr
	}

	m.setStatus(StatusChecking)
	profile, err := m.restore(ctx)
	if err != nil && ctx.Err() != nil {
		// Interrupted rather than answered; let a later call try again.
		m.tokens.Clear()
		m.setStatus(StatusUnknown)
		return nil, ctx.Err()
	}
	if err != nil {
		m.logger.Debug().Err(err).Msg("no session to restore")
		m.clearLocal()
		m.setStatus(StatusAnonymous)
		m.restored, m.restoreErr = true, errors.Wrapf(errors.ErrNoSession, "restore: %v", err)
		return nil, m.restoreErr
	}
	m.setUser(profile)
	m.setHint()
	m.restored, m.restoreErr = true, nil
	m.logger.Debug().Str("user_id", profile.ID).Msg("session restored")
	return copyProfile(profile), nil
}

func (m *Manager) restore(ctx context.Context) (*users.Profile, error) {
	var resp token.Response
	if err := m.client.Raw(ctx, apiclient.Request{Method: http.MethodPost, Path: pathRefresh}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.ErrAuthExpired
	}
	m.tokens.Set(resp.OAuth2())
	return m.fetchProfile(ctx)
}

func (m *Manager) markRestored(err error) {
	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()
	m.restored, m.restoreErr = true, err
}

// Logout revokes the refresh cookie when the server is reachable and always
// clears local state. Calling it twice is the same as calling it once.
func (m *Manager) Logout(ctx context.Context) error {
	m.serverLogout(ctx)
	m.clearLocal()
	m.setStatus(StatusAnonymous)
	m.markRestored(errors.ErrNoSession)
	m.logger.Info().Msg("logged out")
	m.nav.Navigate(access.LoginRoute)
	return nil
}

func (m *Manager) serverLogout(ctx context.Context) {
	err := m.client.Raw(ctx, apiclient.Request{Method: http.MethodPost, Path: pathLogout}, nil)
	if err != nil {
		m.logger.Debug().Err(err).Msg("server logout failed, clearing local session anyway")
	}
}

// Refresh obtains a new access token using the refresh cookie. Concurrent
// callers share one network call, and a caller whose stale token has already
// been replaced returns immediately. The profile is kept.
//
// The shared call is detached from any single caller's context and bounded
// by the client timeout; each caller stops waiting when its own ctx ends.
func (m *Manager) Refresh(ctx context.Context, stale string) error {
	if rotated(m.tokens.AccessToken(), stale) {
		return nil
	}
	ch := m.refreshGroup.DoChan("refresh", func() (any, error) {
		if rotated(m.tokens.AccessToken(), stale) {
			return nil, nil
		}
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout())
		defer cancel()
		var resp token.Response
		if err := m.client.Raw(shared, apiclient.Request{Method: http.MethodPost, Path: pathRefresh}, &resp); err != nil {
			return nil, err
		}
		if resp.AccessToken == "" {
			return nil, errors.ErrAuthExpired
		}
		m.tokens.Set(resp.OAuth2())
		m.refreshes.Add(1)
		m.logger.Debug().Msg("access token refreshed")
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (m *Manager) refreshTimeout() time.Duration {
	if d := m.client.Timeout(); d > 0 {
		return d
	}
	return apiclient.DefaultTimeout
}

func rotated(current, stale string) bool {
	return current != "" && current != stale
}

// Expire tears the session down after a refresh cycle failed and sends the
// user to login. The server is not contacted.
func (m *Manager) Expire(_ context.Context, cause error) {
	m.clearLocal()
	m.setStatus(StatusAnonymous)
	m.markRestored(errors.ErrNoSession)
	m.logger.Info().Err(cause).Msg("session expired")
	m.nav.Navigate(access.LoginPath(m.Location()))
}

// SetLocation records the page currently shown so an expiry can return to
// it after the next sign-in.
func (m *Manager) SetLocation(path string) {
	m.location.Store(path)
}

func (m *Manager) Location() string {
	s, _ := m.location.Load().(string)
	return s
}

func (m *Manager) fetchProfile(ctx context.Context) (*users.Profile, error) {
	var profile users.Profile
	if err := m.client.Raw(ctx, apiclient.Request{Method: http.MethodGet, Path: pathMe}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Manager) clearLocal() {
	m.tokens.Clear()
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.InvalidateAll()
	}
	if err := m.hint.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear session hint")
	}
}

func (m *Manager) setHint() {
	if err := m.hint.Set(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to set session hint")
	}
}

func (m *Manager) setUser(p *users.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = p
	m.status = StatusAuthenticated
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

// Token implements apiclient.Session.
func (m *Manager) Token() *oauth2.Token {
	return m.tokens.Token()
}

// AccessToken is the raw bearer value, empty when signed out.
func (m *Manager) AccessToken() string {
	return m.tokens.AccessToken()
}

func (m *Manager) CurrentUser() *users.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyProfile(m.user)
}

// IsAuthenticated is true once a profile has been confirmed. A token alone
// is not enough.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Status: m.status, User: copyProfile(m.user)}
}

// RefreshCount is the number of successful token refreshes.
func (m *Manager) RefreshCount() int64 {
	return m.refreshes.Load()
}

func (m *Manager) HasHint() bool {
	return m.hint.Present()
}

func (m *Manager) Cache() *querycache.Cache {
	return m.cache
}

func (m *Manager) Client() *apiclient.Client {
	return m.client
}

// RouteForRole is the landing page for role.
func (m *Manager) RouteForRole(role users.Role) string {
	return access.RouteForRole(role)
}

func copyProfile(p *users.Profile) *users.Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = append([]string(nil), p.Skills...)
	return &c
}
