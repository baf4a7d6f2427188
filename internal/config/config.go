// Package config loads server configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvAddr       = "ENV_MANAGER_ADDR"
	EnvProjectDir = "ENV_MANAGER_PROJECT_DIR"
	EnvJWTSecret  = "ENV_MANAGER_JWT_SECRET"
	EnvTokenTTL   = "ENV_MANAGER_TOKEN_TTL"
	EnvLogLevel   = "ENV_MANAGER_LOG_LEVEL"
	EnvRateLimit  = "ENV_MANAGER_RATE_LIMIT"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Addr is the listen address
	Addr string

	// ProjectDir is the project root whose store the server exposes
	ProjectDir string

	// JWTSecret signs session tokens. When unset a random per-process
	// secret is generated; sessions then die with the process.
	JWTSecret string

	// TokenTTL is the session token lifetime
	TokenTTL time.Duration

	// LogLevel is the slog level for all components
	LogLevel slog.Level

	// RateLimit is the per-client request budget per minute
	RateLimit int
}

// Load reads the configuration from the environment, applying defaults
// suitable for a single developer workstation.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:       getEnv(EnvAddr, "127.0.0.1:3100"),
		ProjectDir: getEnv(EnvProjectDir, "."),
		JWTSecret:  os.Getenv(EnvJWTSecret),
		TokenTTL:   12 * time.Hour,
		LogLevel:   slog.LevelInfo,
		RateLimit:  120,
	}

	if raw := os.Getenv(EnvTokenTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvTokenTTL, err)
		}
		cfg.TokenTTL = ttl
	}

	if raw := os.Getenv(EnvLogLevel); raw != "" {
		level, err := parseLevel(raw)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if raw := os.Getenv(EnvRateLimit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvRateLimit, raw)
		}
		cfg.RateLimit = limit
	}

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	return cfg, nil
}

// Logger builds the process-wide logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid %s: %q", EnvLogLevel, raw)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
