package sessions

import (
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// HintStore holds the non-sensitive "a session probably exists" flag. It is
// only ever used to decide whether to send someone to login before a real
// restore; it never grants access to anything.
type HintStore interface {
	Set() error
	Clear() error
	Present() bool
}

const (
	DefaultHintCookie = "has_session"
	DefaultHintMaxAge = 7 * 24 * time.Hour
)

// JarHint keeps the hint as a cookie for the frontend origin inside a cookie
// jar, next to the API's refresh cookie.
type JarHint struct {
	jar    http.CookieJar
	origin *url.URL
	name   string
	maxAge time.Duration
	secure bool
}

type JarHintOption func(*JarHint)

func WithHintCookieName(name string) JarHintOption {
	return func(h *JarHint) {
		if name != "" {
			h.name = name
		}
	}
}

func WithHintMaxAge(d time.Duration) JarHintOption {
	return func(h *JarHint) {
		if d > 0 {
			h.maxAge = d
		}
	}
}

func WithHintSecure(secure bool) JarHintOption {
	return func(h *JarHint) {
		h.secure = secure
	}
}

func NewJarHint(jar http.CookieJar, frontendURL string, opts ...JarHintOption) (*JarHint, error) {
	origin, err := url.Parse(frontendURL)
	if err != nil {
		return nil, err
	}
	h := &JarHint{
		jar:    jar,
		origin: origin,
		name:   DefaultHintCookie,
		maxAge: DefaultHintMaxAge,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *JarHint) Name() string {
	return h.name
}

func (h *JarHint) Set() error {
	h.jar.SetCookies(h.origin, []*http.Cookie{h.cookie("1", int(h.maxAge/time.Second))})
	return nil
}

func (h *JarHint) Clear() error {
	h.jar.SetCookies(h.origin, []*http.Cookie{h.cookie("", -1)})
	return nil
}

func (h *JarHint) Present() bool {
	for _, c := range h.jar.Cookies(h.origin) {
		if c.Name == h.name && c.Value != "" {
			return true
		}
	}
	return false
}

func (h *JarHint) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// MemoryHint is a HintStore for tests and embedders without a jar.
type MemoryHint struct {
	present atomic.Bool
}

func (h *MemoryHint) Set() error {
	h.present.Store(true)
	return nil
}

func (h *MemoryHint) Clear() error {
	h.present.Store(false)
	return nil
}

func (h *MemoryHint) Present() bool {
	return h.present.Load()
}
