package config_test

import (
	"testing"
	"time"

	"github.com/seoscope/searchconsole-mcp/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("default port: %d", cfg.Port)
	}
	if cfg.CredentialMode != config.CredentialModeSession {
		t.Fatalf("default credential mode: %q", cfg.CredentialMode)
	}
	if cfg.TokenStore != "file" {
		t.Fatalf("default token store: %q", cfg.TokenStore)
	}
	if cfg.SessionIdleTimeout != 0 {
		t.Fatalf("idle timeout should default to disabled, got %v", cfg.SessionIdleTimeout)
	}
}

func TestLoadMissingClientID(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

	if _, err := config.Load(); err == nil {
		t.Fatal("missing client id must be fatal")
	}
}

func TestLoadInvalidCredentialMode(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_MODE", "both-please")

	if _, err := config.Load(); err == nil {
		t.Fatal("invalid credential mode must be rejected")
	}
}

func TestLoadInvalidTokenStore(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_STORE", "clay-tablet")

	if _, err := config.Load(); err == nil {
		t.Fatal("invalid token store must be rejected")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_MODE", "shared")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.CredentialMode != config.CredentialModeShared {
		t.Fatalf("credential mode: %q", cfg.CredentialMode)
	}
	if cfg.TokenStore != "redis" {
		t.Fatalf("token store: %q", cfg.TokenStore)
	}
	if cfg.SessionIdleTimeout != 15*time.Minute {
		t.Fatalf("idle timeout: %v", cfg.SessionIdleTimeout)
	}
}
