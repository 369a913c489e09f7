package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: "9090"
logging:
  level: debug
  format: console
auth:
  session_ttl: 12h
  users:
    - email: admin@example.com
      password: secret
      name: Admin
      role: admin
console:
  toast_duration: 3s
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging section %+v", cfg.Logging)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Role != "admin" {
		t.Fatalf("expected one admin user, got %+v", cfg.Auth.Users)
	}
	if got := TTLDuration(cfg.Auth.SessionTTL, time.Hour); got != 12*time.Hour {
		t.Fatalf("expected 12h session ttl, got %s", got)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
