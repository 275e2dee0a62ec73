// Package config provides environment-based configuration for the tracker.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the daemon needs to start. DATABASE_URL is the
// only required setting; the rest have working defaults.
type Config struct {
	DatabaseURL string // PostgreSQL connection URL (required)
	RedisURL    string // optional; empty disables the statistics cache
	Port        int    // HTTP listen port
	UploadDir   string // attachment storage root
	LogLevel    string // debug, info, warn or error
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg := &Config{
		DatabaseURL: databaseURL,
		RedisURL:    os.Getenv("REDIS_URL"),
		Port:        8000,
		UploadDir:   envOr("UPLOAD_DIR", "uploads"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT value %q", portStr)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
