// Package fakeapi is an in-process stand-in for the marketplace REST API.
// It issues real HS256 access tokens and rotating refresh cookies so the
// client's session handling runs against the same contract it sees in
// production. Mount it under httptest.NewServer.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/token"
	"github.com/jrsteele09/marketplace-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/marketplace-client/token/refresh/repofake"
	"github.com/jrsteele09/marketplace-client/users"
	fakeuserrepo "github.com/jrsteele09/marketplace-client/users/repofake"
)

const (
	RefreshCookie = "refresh_token"
	APIPrefix     = "/api"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	maxUploadBytes    = 50 << 20
)

// RecordedUpload is what the server saw for one submission upload.
type RecordedUpload struct {
	ContentType string
	Parts       []string
	Filename    string
	Size        int64
	Notes       string
}

type Server struct {
	mux       *http.ServeMux
	users     *fakeuserrepo.FakeUserRepo
	signer    token.Signer
	refresh   *refresh.Manager
	accessTTL time.Duration

	// Access tokens minted before the current generation are rejected.
	generation atomic.Int64

	LoginCalls   atomic.Int64
	RefreshCalls atomic.Int64
	LogoutCalls  atomic.Int64
	MeCalls      atomic.Int64

	// FailRefresh makes /auth/refresh answer 401.
	FailRefresh atomic.Bool
	// RejectAllTokens makes every bearer-protected endpoint answer 401.
	RejectAllTokens atomic.Bool
	refreshDelay    atomic.Int64

	mu            sync.Mutex
	projects      map[string]*marketplace.Project
	requests      map[string]*marketplace.Request
	tasks         map[string]*marketplace.Task
	submissions   map[string]*marketplace.Submission
	uploads       []RecordedUpload
	providerCodes map[string]string // provider|code to email
}

type Option func(*Server)

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.signer = token.NewHMACSigner(secret)
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		users:         fakeuserrepo.NewFakeUserRepo(),
		signer:        token.NewHMACSigner(uuid.NewString()),
		refresh:       refresh.NewManager(refreshrepofake.NewFakeGrantRepo(), defaultRefreshTTL),
		accessTTL:     defaultAccessTTL,
		projects:      make(map[string]*marketplace.Project),
		requests:      make(map[string]*marketplace.Request),
		tasks:         make(map[string]*marketplace.Task),
		submissions:   make(map[string]*marketplace.Submission),
		providerCodes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.handle("POST /auth/dev-login", s.devLogin)
	s.handle("POST /auth/refresh", s.refreshToken)
	s.handle("POST /auth/logout", s.logout)
	s.handle("GET /auth/me", s.authed(s.me))
	s.handle("GET /auth/callback/{provider}", s.providerCallback)
	s.handle("GET /auth/{provider}", s.providerURL)

	s.handle("GET /projects", s.authed(s.listProjects))
	s.handle("POST /projects", s.authed(s.createProject, users.RoleBuyer))
	s.handle("GET /projects/{id}", s.authed(s.getProject))
	s.handle("PATCH /projects/{id}", s.authed(s.updateProject, users.RoleBuyer))

	s.handle("POST /projects/{id}/requests", s.authed(s.createRequest, users.RoleSolver))
	s.handle("GET /projects/{id}/requests", s.authed(s.listProjectRequests, users.RoleBuyer))
	s.handle("GET /requests/me", s.authed(s.listMyRequests, users.RoleSolver))
	s.handle("PATCH /requests/{id}/accept", s.authed(s.decideRequest(marketplace.RequestAccepted), users.RoleBuyer))
	s.handle("PATCH /requests/{id}/reject", s.authed(s.decideRequest(marketplace.RequestRejected), users.RoleBuyer))

	s.handle("POST /projects/{id}/tasks", s.authed(s.createTask, users.RoleSolver))
	s.handle("GET /projects/{id}/tasks", s.authed(s.listTasks))
	s.handle("GET /tasks/{id}", s.authed(s.getTask))
	s.handle("PATCH /tasks/{id}", s.authed(s.updateTask, users.RoleSolver))

	s.handle("POST /tasks/{id}/submissions", s.authed(s.uploadSubmission, users.RoleSolver))
	s.handle("GET /tasks/{id}/submissions", s.authed(s.listSubmissions))
	s.handle("GET /submissions/{id}/download", s.authed(s.downloadSubmission))
	s.handle("PATCH /submissions/{id}/accept", s.authed(s.acceptSubmission, users.RoleBuyer))
	s.handle("PATCH /submissions/{id}/reject", s.authed(s.rejectSubmission, users.RoleBuyer))

	s.handle("GET /users", s.authed(s.listUsers, users.RoleAdmin))
	s.handle("GET /users/me/profile", s.authed(s.myProfile))
	s.handle("PATCH /users/me/profile", s.authed(s.updateMyProfile))
	s.handle("GET /users/{id}", s.authed(s.getUser, users.RoleAdmin))
	s.handle("PATCH /users/{id}/role", s.authed(s.updateRole, users.RoleAdmin))
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	method, p, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(method+" "+APIPrefix+p, h)
}

// AddUser registers an account the dev-login endpoint will accept.
func (s *Server) AddUser(email, name string, role users.Role) *users.Profile {
	p := &users.Profile{Email: email, Name: name, Role: role}
	_ = s.users.Upsert(p)
	out, _ := s.users.GetByEmail(email)
	return out
}

func (s *Server) Users() users.Directory {
	return s.users
}

// AddProviderCode makes code a valid authorization code for provider that
// signs in as email.
func (s *Server) AddProviderCode(provider, code, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerCodes[provider+"|"+code] = email
}

// InvalidateAccessTokens makes every access token issued so far answer 401,
// as if they had all expired.
func (s *Server) InvalidateAccessTokens() {
	s.generation.Add(1)
}

// SetRefreshDelay slows /auth/refresh down so concurrent callers overlap.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

func (s *Server) Uploads() []RecordedUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedUpload(nil), s.uploads...)
}

// MintAccessToken signs an access token for userID as the real API would.
func (s *Server) MintAccessToken(userID string, role users.Role) (string, error) {
	now := time.Now()
	return s.signer.Sign(jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"gen":  s.generation.Load(),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessTTL).Unix(),
	})
}

type handlerWithUser func(w http.ResponseWriter, r *http.Request, user *users.Profile)

// authed resolves the bearer token to a user and enforces roles when given.
func (s *Server) authed(next handlerWithUser, roles ...users.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.principal(r)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}
		if len(roles) > 0 && !hasAnyRole(user, roles) {
			writeDetail(w, http.StatusForbidden, fmt.Sprintf("Role %s is not allowed. Required: %v", user.Role, roles))
			return
		}
		next(w, r, user)
	}
}

func (s *Server) principal(r *http.Request) (*users.Profile, error) {
	if s.RejectAllTokens.Load() {
		return nil, fmt.Errorf("Invalid or expired token")
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, fmt.Errorf("Not authenticated")
	}
	claims, err := s.signer.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid or expired token")
	}
	if gen, _ := claims["gen"].(float64); int64(gen) < s.generation.Load() {
		return nil, fmt.Errorf("Invalid or expired token")
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("Invalid token payload")
	}
	user, err := s.users.GetByID(sub)
	if err != nil {
		return nil, fmt.Errorf("User not found")
	}
	return user, nil
}

func hasAnyRole(user *users.Profile, roles []users.Role) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeMissing(w http.ResponseWriter, fields ...string) {
	issues := make([]validationIssue, 0, len(fields))
	for _, f := range fields {
		issues = append(issues, validationIssue{Loc: []string{"body", f}, Msg: "Field required", Type: "missing"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
}

func writeErr(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, errors.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, what+" not found")
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []validationIssue{{
			Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid",
		}}})
		return false
	}
	return true
}

func listParams(r *http.Request) marketplace.ListParams {
	var p marketplace.ListParams
	_, _ = fmt.Sscan(r.URL.Query().Get("page"), &p.Page)
	_, _ = fmt.Sscan(r.URL.Query().Get("limit"), &p.Limit)
	if p.Page < 1 {
		p.Page = marketplace.DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = marketplace.DefaultLimit
	}
	return p
}

func paginate[T any](items []T, p marketplace.ListParams) marketplace.Page[T] {
	total := len(items)
	start := (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	pages := (total + p.Limit - 1) / p.Limit
	return marketplace.Page[T]{
		Data: append([]T{}, items[start:end]...),
		Meta: marketplace.Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages},
	}
}

// sortedValues returns copies ordered by less.
func sortedValues[T any](m map[string]*T, keep func(*T) bool, less func(a, b *T) bool) []T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	vals := make([]T, len(out))
	for i, v := range out {
		vals[i] = *v
	}
	return vals
}
