package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all gateway configuration, as laid out in the configuration
// surface of the session engine's external interfaces.
type Config struct {
	Server   ServerConfig
	Security SecurityConfig
	Logging  LogConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host               string `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port               int    `envconfig:"SERVER_PORT" default:"3000"`
	GracefulShutdown   bool   `envconfig:"SERVER_GRACEFUL_SHUTDOWN" default:"true"`
}

// SecurityConfig holds auth, rate-limit, and CORS configuration.
type SecurityConfig struct {
	AuthEnabled            bool     `envconfig:"AUTH_ENABLED" default:"false"`
	APIKeysRaw             string   `envconfig:"AUTH_API_KEYS" default:""`
	RateLimitEnabled       bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRequests      int      `envconfig:"RATE_LIMIT_REQUESTS_PER_WINDOW" default:"100"`
	RateLimitWindowSecs    int      `envconfig:"RATE_LIMIT_WINDOW_SECS" default:"60"`
	GlobalRateLimitPerSec  int      `envconfig:"RATE_LIMIT_GLOBAL_PER_SEC" default:"500"`
	CORSAllowOriginsRaw    string   `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	apiKeys                []string `ignored:"true"`
	corsAllowOrigins       []string `ignored:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	Dev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// SessionConfig holds session-engine configuration.
type SessionConfig struct {
	IdleTTLSecs       int `envconfig:"SESSION_IDLE_TTL_SECS" default:"3600"`
	DefaultTimeoutMs  int `envconfig:"SESSION_DEFAULT_TIMEOUT_MS" default:"30000"`
	MaxCommandBytes   int `envconfig:"SESSION_MAX_COMMAND_BYTES" default:"65536"`
}

// APIKeys returns the configured allow-list, split from the comma-separated
// environment value and cached on first access.
func (s *SecurityConfig) APIKeys() []string {
	if s.apiKeys == nil && s.APIKeysRaw != "" {
		for _, k := range strings.Split(s.APIKeysRaw, ",") {
			k = strings.TrimSpace(k)
			if k != "" {
				s.apiKeys = append(s.apiKeys, k)
			}
		}
	}
	return s.apiKeys
}

// CORSOrigins returns the configured allow-list, split from the
// comma-separated environment value and cached on first access.
func (s *SecurityConfig) CORSOrigins() []string {
	if s.corsAllowOrigins == nil {
		for _, o := range strings.Split(s.CORSAllowOriginsRaw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				s.corsAllowOrigins = append(s.corsAllowOrigins, o)
			}
		}
		if len(s.corsAllowOrigins) == 0 {
			s.corsAllowOrigins = []string{"*"}
		}
	}
	return s.corsAllowOrigins
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment, falling back to
// Default on any parse error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             3000,
			GracefulShutdown: true,
		},
		Security: SecurityConfig{
			AuthEnabled:           false,
			RateLimitEnabled:      true,
			RateLimitRequests:     100,
			RateLimitWindowSecs:   60,
			GlobalRateLimitPerSec: 500,
			CORSAllowOriginsRaw:   "*",
		},
		Logging: LogConfig{
			Level: "info",
			Dev:   false,
		},
		Session: SessionConfig{
			IdleTTLSecs:      3600,
			DefaultTimeoutMs: 30000,
			MaxCommandBytes:  65536,
		},
	}
}
