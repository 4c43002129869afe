// Package config reads server settings from flags, then environment
// variables, then defaults. A .env file in the working directory is loaded
// into the environment first when present.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"segredex/internal/store"
)

// Store types.
const (
	StoreMemory   = "memory"
	StoreSQLite   = store.DriverSQLite
	StorePostgres = store.DriverPostgres
)

type Config struct {
	Port        int
	BaseURL     string
	StoreType   string
	DatabaseURL string
	SessionTTL  time.Duration
	DrawTimeout time.Duration
	Verbose     bool
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Parse validates flags and fills the remaining settings from the environment.
func Parse(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("segredex", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public URL links point to (default: derived from the request)")
	fs.StringVar(&cfg.StoreType, "store", "", "Session store: memory, sqlite or postgres")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL for the sqlite or postgres store")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Inactivity lifetime of a stored draw")
	fs.DurationVar(&cfg.DrawTimeout, "draw-timeout", 0, "Time limit for encrypting a whole draw")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := envString("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil || port <= 0 {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = envString("BASE_URL")
	}
	if cfg.StoreType == "" {
		cfg.StoreType = strings.ToLower(envString("STORE_TYPE"))
		if cfg.StoreType == "" {
			cfg.StoreType = StoreMemory
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = envString("DATABASE_URL")
	}

	var err error
	if cfg.SessionTTL, err = durationFallback(cfg.SessionTTL, "SESSION_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DrawTimeout, err = durationFallback(cfg.DrawTimeout, "DRAW_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if !cfg.Verbose {
		cfg.Verbose, _ = strconv.ParseBool(envString("VERBOSE"))
	}

	switch cfg.StoreType {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database URL required for the %s store (use -d or DATABASE_URL env)", cfg.StoreType)
		}
	default:
		return Config{}, fmt.Errorf("invalid store type %q (expected memory, sqlite or postgres)", cfg.StoreType)
	}

	return cfg, nil
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFallback(v time.Duration, key string, def time.Duration) (time.Duration, error) {
	if v != 0 {
		return v, nil
	}
	raw := envString(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}
