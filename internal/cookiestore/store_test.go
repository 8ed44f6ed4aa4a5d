package cookiestore_test

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/marketplace-client/internal/cookiestore"
	"github.com/stretchr/testify/require"
)

func TestCookiesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	api, _ := url.Parse("http://127.0.0.1:8000/api/auth/refresh")

	s, err := cookiestore.Open(dir)
	require.NoError(t, err)
	s.SetCookies(api, []*http.Cookie{{Name: "refresh_token", Value: "abc", Path: "/", HttpOnly: true, MaxAge: 3600}})
	require.Equal(t, 1, s.Len())

	_, err = os.Stat(filepath.Join(dir, cookiestore.FileName))
	require.NoError(t, err)

	reopened, err := cookiestore.Open(dir)
	require.NoError(t, err)
	got := reopened.Cookies(api)
	require.Len(t, got, 1)
	require.Equal(t, "abc", got[0].Value)
}

func TestDeletedCookiesAreForgotten(t *testing.T) {
	dir := t.TempDir()
	api, _ := url.Parse("http://127.0.0.1:8000/api")

	s, err := cookiestore.Open(dir)
	require.NoError(t, err)
	s.SetCookies(api, []*http.Cookie{{Name: "refresh_token", Value: "abc", Path: "/"}})
	s.SetCookies(api, []*http.Cookie{{Name: "refresh_token", Value: "", Path: "/", MaxAge: -1}})
	require.Zero(t, s.Len())
	require.Empty(t, s.Cookies(api))

	reopened, err := cookiestore.Open(dir)
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(api))
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	api, _ := url.Parse("http://127.0.0.1:8000/api")
	s, err := cookiestore.Open(dir)
	require.NoError(t, err)
	s.SetCookies(api, []*http.Cookie{{Name: "a", Value: "1", Path: "/"}})

	require.NoError(t, s.Clear())
	require.Empty(t, s.Cookies(api))
	_, err = os.Stat(filepath.Join(dir, cookiestore.FileName))
	require.True(t, os.IsNotExist(err))
}

func TestCorruptFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cookiestore.FileName), []byte("{not json"), 0o600))
	s, err := cookiestore.Open(dir)
	require.NoError(t, err)
	require.Zero(t, s.Len())
}
