package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

// GetHintCookieName is the non-sensitive cookie the edge host reads to guess
// whether a session probably exists.
func (Session) GetHintCookieName() string {
	return GetEnv("SESSION_HINT_COOKIE", "has_session")
}

// GetHintMaxAge matches the lifetime of the server-held refresh cookie.
func (Session) GetHintMaxAge() time.Duration {
	return GetEnvDuration("SESSION_HINT_MAX_AGE", 7*24*time.Hour)
}

func (Session) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
}

func (Session) GetQueryStaleTime() time.Duration {
	return GetEnvDuration("QUERY_STALE_TIME", 60*time.Second)
}
