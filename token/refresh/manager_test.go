package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/marketplace-client/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestRotate(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeGrantRepo(), time.Hour)

	first, err := m.Create("user-1")
	require.NoError(t, err)

	userID, second, err := m.Rotate(first)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
	require.NotEqual(t, first, second)

	_, third, err := m.Rotate(second)
	require.NoError(t, err)

	m.Revoke(third)
	_, _, err = m.Rotate(third)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
}

func TestReuseEndsTheSignIn(t *testing.T) {
	repo := refreshrepofake.NewFakeGrantRepo()
	m := refresh.NewManager(repo, time.Hour)

	first, err := m.Create("user-1")
	require.NoError(t, err)
	_, second, err := m.Rotate(first)
	require.NoError(t, err)

	_, _, err = m.Rotate(first)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
	require.ErrorContains(t, err, "reused")

	_, _, err = m.Rotate(second)
	require.ErrorIs(t, err, errors.ErrAuthExpired, "the live token of the family is revoked too")
	require.Zero(t, repo.Len())
}

func TestSignInsAreIndependent(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeGrantRepo(), time.Hour)
	laptop, err := m.Create("user-1")
	require.NoError(t, err)
	phone, err := m.Create("user-1")
	require.NoError(t, err)

	m.Revoke(phone)

	userID, _, err := m.Rotate(laptop)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })

	m := refresh.NewManager(refreshrepofake.NewFakeGrantRepo(), time.Minute)
	tok, err := m.Create("user-1")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, tok, err = m.Rotate(tok)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, tok, err = m.Rotate(tok)
	require.NoError(t, err, "rotation resets the idle clock")

	now = now.Add(2 * time.Minute)
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, errors.ErrAuthExpired)
}
