// Package config defines service configuration structures and loading hooks.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Backend kinds.
const (
	BackendSQL  = "sql"
	BackendREST = "rest"
)

// Database drivers understood by the SQL backend.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Backend selects the remote client implementation: sql or rest.
	Backend string `koanf:"backend"`

	// DatabaseDriver and DatabaseURL configure the sql backend.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseURL    string `koanf:"database_url"`

	// RESTURL and RESTAPIKey configure the rest backend.
	RESTURL    string `koanf:"rest_url"`
	RESTAPIKey string `koanf:"rest_api_key"`

	// BackendTimeoutMS bounds every remote call.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// SessionCookie names the cookie carrying the access token.
	SessionCookie string `koanf:"session_cookie"`

	// PostSignInPath is where the sign-in stub redirects.
	PostSignInPath string `koanf:"post_sign_in_path"`

	// ViewCacheSize bounds the in-memory view store.
	ViewCacheSize int `koanf:"view_cache_size"`

	// FallbackDisplayName is greeted when the profile has no name.
	FallbackDisplayName string `koanf:"fallback_display_name"`

	// CSRFKey is a hex encoded 32 byte key. Empty disables CSRF protection.
	CSRFKey string `koanf:"csrf_key"`

	// CSRFSecure marks the CSRF cookie Secure.
	CSRFSecure bool `koanf:"csrf_secure"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Backend:             BackendSQL,
		DatabaseDriver:      DriverSQLite,
		DatabaseURL:         "file:checkboard.db?_pragma=busy_timeout(5000)",
		BackendTimeoutMS:    5000,
		SessionCookie:       "sb-access-token",
		PostSignInPath:      "/",
		ViewCacheSize:       10_000,
		FallbackDisplayName: "User",
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// CSRFKeyBytes decodes CSRFKey. It returns nil when CSRF is disabled.
func (c *Config) CSRFKeyBytes() []byte {
	if c.CSRFKey == "" {
		return nil
	}
	b, err := hex.DecodeString(c.CSRFKey)
	if err != nil {
		return nil
	}
	return b
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.Backend {
	case BackendSQL:
		switch c.DatabaseDriver {
		case DriverSQLite, DriverPostgres:
		default:
			return fmt.Errorf("%w: unknown database_driver %q", ErrInvalidConfig, c.DatabaseDriver)
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
		}
	case BackendREST:
		if c.RESTURL == "" {
			return fmt.Errorf("%w: rest_url is required for the rest backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.BackendTimeoutMS <= 0 {
		return fmt.Errorf("%w: backend_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ViewCacheSize <= 0 {
		return fmt.Errorf("%w: view_cache_size must be positive", ErrInvalidConfig)
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("%w: session_cookie must not be empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.PostSignInPath, "/") {
		return fmt.Errorf("%w: post_sign_in_path must be an absolute path", ErrInvalidConfig)
	}
	if c.CSRFKey != "" {
		if b, err := hex.DecodeString(c.CSRFKey); err != nil || len(b) != 32 {
			return fmt.Errorf("%w: csrf_key must be 64 hex characters", ErrInvalidConfig)
		}
	}
	return nil
}
