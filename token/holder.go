package token

import (
	"sync"

	"golang.org/x/oauth2"
)

// Holder keeps the access token in process memory only. Callers detect a
// rotation by comparing the bearer value they sent with AccessToken.
type Holder struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

func NewHolder() *Holder {
	return &Holder{}
}

// Token returns a copy of the current token, or nil.
func (h *Holder) Token() *oauth2.Token {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return nil
	}
	t := *h.token
	return &t
}

// AccessToken returns the raw bearer value, empty when there is none.
func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return ""
	}
	return h.token.AccessToken
}

// Set stores a copy of t. A nil or empty token clears the holder.
func (h *Holder) Set(t *oauth2.Token) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t == nil || t.AccessToken == "" {
		h.token = nil
	} else {
		c := *t
		h.token = &c
	}
}

func (h *Holder) Clear() {
	h.Set(nil)
}

// Present reports whether a non-empty token is held.
func (h *Holder) Present() bool {
	return h.AccessToken() != ""
}
