package config

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimitPerMinute() int
	GetAutocertDomain() string
	GetCookieSecure() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetEnableRateLimiting() bool {
	return GetEnvBool("RATE_LIMIT_ENABLED", false)
}

func (Security) GetRateLimitPerMinute() int {
	return GetEnvInt("RATE_LIMIT_PER_MINUTE", 120)
}

// GetAutocertDomain enables ACME TLS on the edge host when set.
func (Security) GetAutocertDomain() string {
	return GetEnv("AUTOCERT_DOMAIN", "")
}

func (Security) GetCookieSecure() bool {
	return GetEnvBool("COOKIE_SECURE", false)
}
