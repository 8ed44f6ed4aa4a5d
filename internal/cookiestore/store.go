// Package cookiestore is a cookie jar that survives between marketctl
// invocations. Every cookie the API sets is mirrored to a JSON file and
// replayed into a fresh jar on open.
package cookiestore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const FileName = "cookies.json"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type entry struct {
	URL      string        `json:"url"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires,omitempty"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

func (e entry) key() string {
	return e.URL + "|" + e.Domain + "|" + e.Path + "|" + e.Name
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

func (e entry) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.Name,
		Value:    e.Value,
		Path:     e.Path,
		Domain:   e.Domain,
		Expires:  e.Expires,
		Secure:   e.Secure,
		HttpOnly: e.HttpOnly,
		SameSite: e.SameSite,
	}
}

var _ http.CookieJar = (*Store)(nil)

type Store struct {
	path    string
	jar     *cookiejar.Jar
	logger  zerolog.Logger
	mu      sync.Mutex
	entries map[string]entry
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads dir/cookies.json when it exists. dir is created on first save.
func Open(dir string, opts ...Option) (*Store, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	s := &Store{
		path:    filepath.Join(dir, FileName),
		jar:     jar,
		logger:  zerolog.Nop(),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[cookiestore] failed to read %s: %w", s.path, err)
	}
	var stored []entry
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt file only costs a login.
		s.logger.Warn().Err(err).Str("path", s.path).Msg("ignoring unreadable cookie file")
		return nil
	}
	now := NowTimeFunc()
	for _, e := range stored {
		if e.expired(now) {
			continue
		}
		u, err := url.Parse(e.URL)
		if err != nil {
			continue
		}
		s.entries[e.key()] = e
		s.jar.SetCookies(u, []*http.Cookie{e.cookie()})
	}
	return nil
}

func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar.Cookies(u)
}

// SetCookies updates the jar and the file. A cookie with MaxAge < 0 or an
// expiry in the past is deleted from both.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
	now := NowTimeFunc()
	s.mu.Lock()
	s.jar.SetCookies(u, cookies)
	for _, c := range cookies {
		e := entry{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		switch {
		case c.MaxAge < 0:
			e.Expires = now.Add(-time.Second)
		case c.MaxAge > 0:
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if e.expired(now) {
			delete(s.entries, e.key())
			continue
		}
		s.entries[e.key()] = e
	}
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to persist cookies")
	}
}

// Clear forgets every cookie and removes the file.
func (s *Store) Clear() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = jar
	s.entries = make(map[string]entry)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) saveLocked() error {
	out := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
