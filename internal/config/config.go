package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Local state
	DataDir     string `env:"ECHOREALMS_DATA_DIR"`
	DBPath      string `env:"ECHOREALMS_DB"`
	LexiconPath string `env:"ECHOREALMS_LEXICON"`

	// HTTP API
	Addr string `env:"ECHOREALMS_ADDR" envDefault:":8080"`

	// Logging
	LogLevel string `env:"ECHOREALMS_LOG_LEVEL" envDefault:"info"`

	// Account backend
	SupabaseURL     string        `env:"SUPABASE_URL"`
	SupabaseAnonKey string        `env:"SUPABASE_ANON_KEY"`
	HTTPTimeout     time.Duration `env:"ECHOREALMS_HTTP_TIMEOUT" envDefault:"15s"`
}

// Load reads .env files (when present) and then the process environment
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".echorealms")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "shelf.db")
	}

	return cfg, nil
}

// SessionPath is where the signed-in account session is kept
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}
