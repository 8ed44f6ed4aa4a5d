package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	SessionConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetAPIBaseURL() string
	GetFrontendURL() string
	GetLogLevel() string
	GetEnv() string
}

type SessionConfig interface {
	GetHintCookieName() string
	GetHintMaxAge() time.Duration
	GetRequestTimeout() time.Duration
	GetQueryStaleTime() time.Duration
}

type mainConfig struct {
	EnvVars
	Session
	Security
}

// New returns the environment-backed configuration. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
