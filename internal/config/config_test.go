package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Server.Port != 8080 {
		t.Fatalf("default port = %d", s.Server.Port)
	}
	if s.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("default shutdown timeout = %v", s.Server.ShutdownTimeout)
	}
	if s.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("default token ttl = %v", s.Auth.TokenTTL)
	}
	if s.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("default model = %q", s.LLM.Model)
	}
	if s.Logging.Level != "info" {
		t.Fatalf("default log level = %q", s.Logging.Level)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("server.port", 0)

	if _, err := Load(v); err == nil {
		t.Fatal("expected port validation error")
	}
}

func TestLoadRejectsZeroTokenTTL(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("auth.token_ttl", "0s")

	if _, err := Load(v); err == nil {
		t.Fatal("expected token ttl validation error")
	}
}

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfiles(t *testing.T) {
	path := writeProfiles(t, `
profiles:
  - name: rentals
    driver: postgres
    host: localhost
    port: 5432
    user: reader
    password: secret
    database: pagila
  - name: local
    driver: sqlite
    file: ./chinook.db
`)

	profiles, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles", len(profiles))
	}

	cfg := profiles[0].ConnectionConfig()
	if cfg.Driver != "postgres" || cfg.Database != "pagila" || cfg.Port != 5432 {
		t.Fatalf("unexpected connection config: %+v", cfg)
	}
	if profiles[1].ConnectionConfig().FilePath != "./chinook.db" {
		t.Fatal("sqlite file path not carried over")
	}
}

func TestLoadProfilesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "profiles:\n  - driver: postgres\n"},
		{"missing driver", "profiles:\n  - name: broken\n"},
		{"duplicate name", "profiles:\n  - name: a\n    driver: sqlite\n  - name: a\n    driver: sqlite\n"},
		{"bad yaml", "profiles: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeProfiles(t, tc.content)
			if _, err := LoadProfiles(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestFindProfile(t *testing.T) {
	path := writeProfiles(t, "profiles:\n  - name: rentals\n    driver: postgres\n")

	if _, err := FindProfile(path, "rentals"); err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if _, err := FindProfile(path, "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}
