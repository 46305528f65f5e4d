// Package config reads the application's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds everything cmd/bizim needs to wire the sync core.
type Config struct {
	// BackendURL is the hosted backend's project root. Empty means the app
	// runs in local-only mode without any remote calls.
	BackendURL string
	// APIKey is the backend's publishable key.
	APIKey string
	// AccessToken is the signed-in user's bearer token.
	AccessToken string
	// UserID identifies the signed-in user's profile.
	UserID uuid.UUID
	// CachePath is the local snapshot database file.
	CachePath string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		BackendURL:  os.Getenv("BIZIM_BACKEND_URL"),
		APIKey:      os.Getenv("BIZIM_API_KEY"),
		AccessToken: os.Getenv("BIZIM_ACCESS_TOKEN"),
		CachePath:   os.Getenv("BIZIM_CACHE_PATH"),
		LogLevel:    os.Getenv("BIZIM_LOG_LEVEL"),
		LogFormat:   os.Getenv("BIZIM_LOG_FORMAT"),
	}
	if cfg.CachePath == "" {
		cfg.CachePath = "bizim-market.db"
	}

	if raw := os.Getenv("BIZIM_USER_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse BIZIM_USER_ID: %w", err)
		}
		cfg.UserID = id
	}

	if cfg.BackendURL != "" && cfg.APIKey == "" {
		return Config{}, fmt.Errorf("BIZIM_API_KEY is required when BIZIM_BACKEND_URL is set")
	}

	return cfg, nil
}

// Synced reports whether a backend is configured at all.
func (c Config) Synced() bool {
	return c.BackendURL != ""
}
