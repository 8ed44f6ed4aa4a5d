package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "SESSION_HINT_COOKIE", "REQUEST_TIMEOUT", "RATE_LIMIT_ENABLED", "AUTOCERT_DOMAIN"} {
		t.Setenv(key, "")
	}
	cfg := config.New()

	require.Equal(t, ":3000", cfg.GetPort())
	require.Equal(t, "http://localhost:8000/api", cfg.GetAPIBaseURL())
	require.Equal(t, "has_session", cfg.GetHintCookieName())
	require.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	require.False(t, cfg.GetEnableRateLimiting())
	require.Empty(t, cfg.GetAutocertDomain())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("API_BASE_URL", "https://api.example.com/api/")
	t.Setenv("SESSION_HINT_MAX_AGE", "1h")
	t.Setenv("QUERY_STALE_TIME", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")

	cfg := config.New()
	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "https://api.example.com/api", cfg.GetAPIBaseURL())
	require.Equal(t, time.Hour, cfg.GetHintMaxAge())
	require.Equal(t, 5*time.Second, cfg.GetQueryStaleTime())
	require.True(t, cfg.GetEnableRateLimiting())
	require.Equal(t, 10, cfg.GetRateLimitPerMinute())
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "many")
	t.Setenv("COOKIE_SECURE", "perhaps")

	cfg := config.New()
	require.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	require.Equal(t, 120, cfg.GetRateLimitPerMinute())
	require.False(t, cfg.GetCookieSecure())
}
