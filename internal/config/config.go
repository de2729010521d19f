// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// CredentialMode selects how credentials are scoped.
type CredentialMode string

const (
	// CredentialModeSession keeps one in-memory credential per connected
	// session; nothing touches disk.
	CredentialModeSession CredentialMode = "session"
	// CredentialModeShared keeps a single process-wide credential, persisted
	// to a token store and reused across sessions and restarts.
	CredentialModeShared CredentialMode = "shared"
)

// Config is the full environment-derived configuration surface.
type Config struct {
	// OAuth client registration with Google. Both are fatal when absent.
	ClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`

	// RedirectURI must match the registered OAuth redirect and route to this
	// process's /oauth2callback handler.
	RedirectURI string `env:"GOOGLE_REDIRECT_URI,default=http://localhost:3000/oauth2callback"`

	Port int `env:"PORT,default=3000"`

	CredentialMode CredentialMode `env:"CREDENTIAL_MODE,default=session"`

	// TokenStore selects the persistence backend in shared mode: "file" or
	// "redis". Ignored in session mode.
	TokenStore string `env:"TOKEN_STORE,default=file"`
	TokenDir   string `env:"TOKEN_DIR,default=.searchconsole-mcp"`
	RedisURL   string `env:"REDIS_URL,default=redis://localhost:6379/0"`

	// SessionIdleTimeout evicts sessions that never authenticate. Zero
	// disables eviction.
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=0"`
}

// Load decodes the configuration from the environment and validates the
// enumerated fields.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	switch cfg.CredentialMode {
	case CredentialModeSession, CredentialModeShared:
	default:
		return nil, fmt.Errorf("invalid CREDENTIAL_MODE %q: want %q or %q", cfg.CredentialMode, CredentialModeSession, CredentialModeShared)
	}
	switch cfg.TokenStore {
	case "file", "redis":
	default:
		return nil, fmt.Errorf("invalid TOKEN_STORE %q: want \"file\" or \"redis\"", cfg.TokenStore)
	}
	return &cfg, nil
}
