// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config validation errors.
var (
	ErrUnknownStoreDriver = errors.New("unknown STORE_DRIVER")
	ErrDatabaseURLMissing = errors.New("DATABASE_URL is required for the postgres store")
	ErrAdminSecretMissing = errors.New("ADMIN_TOKEN or ADMIN_TOKEN_HASH is required in production")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage: "postgres" or "memory"
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional Redis for caching user records during identity resolution
	RedisURL     string        `env:"REDIS_URL"`
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"1m"`

	// Admin secret, plaintext or an Argon2id PHC hash (hash wins when both are set)
	AdminToken     string `env:"ADMIN_TOKEN"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`

	// Reject edits to completed reviews unless the edit reopens them
	LockCompletedReviews bool `env:"LOCK_COMPLETED_REVIEWS" envDefault:"false"`

	// Path to the questionnaire YAML; empty disables question id checks
	QuestionnairePath string `env:"QUESTIONNAIRE_PATH"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,https://dandi-ai-notebooks.github.io"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasAdminSecret reports whether any admin secret is configured.
func (c *Config) HasAdminSecret() bool {
	return c.AdminToken != "" || c.AdminTokenHash != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLMissing
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreDriver, c.StoreDriver)
	}

	if c.IsProduction() && !c.HasAdminSecret() {
		return ErrAdminSecretMissing
	}

	return nil
}

// Load reads an optional .env file, parses environment variables and returns
// a validated Config. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
