package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenLength = 32

// Manager issues and rotates refresh tokens. A token can be exchanged once;
// presenting it a second time is treated as theft and ends the whole sign-in.
type Manager struct {
	repo   Repo
	expiry time.Duration
}

func NewManager(repo Repo, expiry time.Duration) *Manager {
	return &Manager{
		repo:   repo,
		expiry: expiry,
	}
}

// Create starts a new sign-in for userID. Other sign-ins of the same user
// are left alone.
func (m *Manager) Create(userID string) (string, error) {
	return m.issue(userID, uuid.NewString())
}

func (m *Manager) issue(userID, family string) (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&Grant{
		Token:    tokenStr,
		UserID:   userID,
		Family:   family,
		IssuedAt: NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate consumes presented and issues its replacement in the same family.
// An unknown, expired or already consumed token yields ErrAuthExpired.
func (m *Manager) Rotate(presented string) (userID, next string, err error) {
	g, err := m.repo.Get(presented)
	if err != nil {
		return "", "", errors.ErrAuthExpired
	}
	if g.Consumed {
		_, _ = m.repo.DeleteFamily(g.Family)
		return "", "", errors.Wrapf(errors.ErrAuthExpired, "refresh token reused")
	}
	if m.IsExpired(g) {
		_, _ = m.repo.DeleteFamily(g.Family)
		return "", "", errors.ErrAuthExpired
	}
	g.Consumed = true
	if err := m.repo.Upsert(g); err != nil {
		return "", "", fmt.Errorf("failed to consume refresh token: %w", err)
	}
	next, err = m.issue(g.UserID, g.Family)
	if err != nil {
		return "", "", err
	}
	return g.UserID, next, nil
}

// Revoke ends the sign-in token belongs to. It is a no-op for unknown tokens.
func (m *Manager) Revoke(token string) {
	g, err := m.repo.Get(token)
	if err != nil {
		return
	}
	_, _ = m.repo.DeleteFamily(g.Family)
}

// IsExpired measures from the start of the chain's latest link, so an active
// session stays alive while an idle one lapses.
func (m *Manager) IsExpired(g *Grant) bool {
	return m.expiry > 0 && NowTimeFunc().Sub(g.IssuedAt) > m.expiry
}
