package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "BASE_URL", "STORE_TYPE", "DATABASE_URL", "SESSION_TTL", "DRAW_TIMEOUT", "VERBOSE"} {
		t.Setenv(k, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 8080 || cfg.StoreType != StoreMemory || cfg.SessionTTL != time.Hour || cfg.DrawTimeout != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Parse([]string{"-p", "7000", "-store", "sqlite", "-d", "file:draws.db", "-session-ttl", "5m", "-v"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 7000 || cfg.StoreType != StoreSQLite || cfg.DatabaseURL != "file:draws.db" {
		t.Errorf("flags did not win: %+v", cfg)
	}
	if cfg.SessionTTL != 5*time.Minute || !cfg.Verbose {
		t.Errorf("unexpected ttl/verbose: %+v", cfg)
	}
}

func TestParseEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://draw.example.com/")
	t.Setenv("DRAW_TIMEOUT", "2s")
	t.Setenv("VERBOSE", "true")

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 9000 || cfg.BaseURL != "https://draw.example.com/" || cfg.DrawTimeout != 2*time.Second || !cfg.Verbose {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]struct {
		env  map[string]string
		args []string
	}{
		"bad port":         {env: map[string]string{"PORT": "abc"}},
		"bad ttl":          {env: map[string]string{"SESSION_TTL": "forever"}},
		"unknown store":    {args: []string{"-store", "redis"}},
		"sqlite without d": {args: []string{"-store", "sqlite"}},
		"unknown flag":     {args: []string{"-nope"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Parse(tt.args); err == nil {
				t.Error("Expected an error, but got nil")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("BASE_URL")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BASE_URL=https://from-dotenv.example/\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BASE_URL") })

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.BaseURL != "https://from-dotenv.example/" {
		t.Errorf("Expected BASE_URL from .env, got %q", cfg.BaseURL)
	}
}
