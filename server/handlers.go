package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/internal/config"
)

const shellTemplate = "index.html"

// ClientConfig is what the browser app reads from /config.json before it
// restores the session.
type ClientConfig struct {
	AppName      string `json:"app_name"`
	APIBaseURL   string `json:"api_base_url"`
	HintCookie   string `json:"hint_cookie"`
	HintMaxAge   int    `json:"hint_max_age"`
	LoginRoute   string `json:"login_route"`
	NextParam    string `json:"next_param"`
	CookieSecure bool   `json:"cookie_secure"`
}

type shell struct {
	tmpl   *template.Template
	client ClientConfig
}

type shellData struct {
	AppName string
	Section access.Section
	Path    string
	Config  ClientConfig
}

func newShell(c config.Config) (*shell, error) {
	tmpl, err := ParseTemplate(shellTemplate)
	if err != nil {
		return nil, err
	}
	return &shell{
		tmpl: tmpl,
		client: ClientConfig{
			AppName:      c.GetAppName(),
			APIBaseURL:   c.GetAPIBaseURL(),
			HintCookie:   c.GetHintCookieName(),
			HintMaxAge:   int(c.GetHintMaxAge().Seconds()),
			LoginRoute:   access.LoginRoute,
			NextParam:    access.NextParam,
			CookieSecure: c.GetCookieSecure(),
		},
	}, nil
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func (s *Server) ConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(s.shell.client); err != nil {
			s.logError(r.Method, r.URL.Path, err)
		}
	}
}

// ShellHandler renders the single page the browser app boots from. It never
// contains user data; the app restores the session itself.
func (s *Server) ShellHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		err := s.shell.tmpl.Execute(&buf, shellData{
			AppName: s.shell.client.AppName,
			Section: access.SectionForPath(r.URL.Path),
			Path:    r.URL.RequestURI(),
			Config:  s.shell.client,
		})
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = buf.WriteTo(w)
	}
}
