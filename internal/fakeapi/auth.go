package fakeapi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/marketplace-client/token"
	"github.com/jrsteele09/marketplace-client/users"
)

var providerNames = map[string]string{
	"google": "Google",
	"github": "GitHub",
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(defaultRefreshTTL / time.Second),
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// issue sets a fresh refresh cookie and returns an access token for user.
func (s *Server) issue(w http.ResponseWriter, user *users.Profile) {
	rt, err := s.refresh.Create(user.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setRefreshCookie(w, rt)
	s.writeAccessToken(w, user)
}

func (s *Server) writeAccessToken(w http.ResponseWriter, user *users.Profile) {
	access, err := s.MintAccessToken(user.ID, user.Role)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, token.Response{AccessToken: access, TokenType: "bearer"})
}

func (s *Server) devLogin(w http.ResponseWriter, r *http.Request) {
	s.LoginCalls.Add(1)
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Email == "" {
		writeMissing(w, "email")
		return
	}
	user, err := s.users.GetByEmail(body.Email)
	if err != nil {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("No user with email %s", body.Email))
		return
	}
	s.issue(w, user)
}

// refreshToken rotates the refresh cookie: each one can be used once.
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	s.RefreshCalls.Add(1)
	if d := time.Duration(s.refreshDelay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}
	if s.FailRefresh.Load() {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		writeDetail(w, http.StatusUnauthorized, "No refresh token")
		return
	}
	userID, next, err := s.refresh.Rotate(c.Value)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	s.setRefreshCookie(w, next)
	s.writeAccessToken(w, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.LogoutCalls.Add(1)
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		s.refresh.Revoke(c.Value)
	}
	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, user *users.Profile) {
	s.MeCalls.Add(1)
	out := *user
	out.CreatedAt = nil
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) providerURL(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if _, ok := providerNames[provider]; !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	u := url.URL{
		Scheme:   "https",
		Host:     provider + ".example.com",
		Path:     "/oauth/authorize",
		RawQuery: url.Values{"client_id": {"marketplace"}, "response_type": {"code"}}.Encode(),
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u.String()})
}

func (s *Server) providerCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	name, ok := providerNames[provider]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	code := r.URL.Query().Get("code")
	s.mu.Lock()
	email, known := s.providerCodes[provider+"|"+code]
	delete(s.providerCodes, provider+"|"+code)
	s.mu.Unlock()
	if code == "" || !known {
		writeDetail(w, http.StatusBadRequest, "Failed to authenticate with "+name)
		return
	}
	user, err := s.users.GetByEmail(email)
	if err != nil {
		user = s.AddUser(email, email, users.RoleSolver)
	}
	s.issue(w, user)
}
