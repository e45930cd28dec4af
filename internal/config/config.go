package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendKeyring  = "keyring"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	// Environment
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Presentation API
	HTTPAddr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8084"`

	// Catalog (AniList GraphQL)
	CatalogURL        string        `env:"CATALOG_URL" envDefault:"https://graphql.anilist.co"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"30s"`
	CatalogRateLimit  float64       `env:"CATALOG_RATE_LIMIT" envDefault:"1"` // requests per second
	CatalogRateBurst  int           `env:"CATALOG_RATE_BURST" envDefault:"5"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"0"`
	CatalogPageSize   int           `env:"CATALOG_PAGE_SIZE" envDefault:"20"`
	SearchDebounce    time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`

	// Mock auth
	AuthLatency time.Duration `env:"AUTH_LATENCY" envDefault:"1500ms"`

	// Secure facility (session credentials)
	SecureBackend  string `env:"SECURE_BACKEND" envDefault:"keyring"`
	KeyringService string `env:"KEYRING_SERVICE" envDefault:"animehub"`

	// General facility (list snapshots)
	GeneralBackend string `env:"GENERAL_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./data/animehub.db"`
	PostgresURL    string `env:"POSTGRES_URL"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix    string `env:"REDIS_PREFIX" envDefault:"animehub:"`

	// Lifecycle
	RestoreTimeout  time.Duration `env:"RESTORE_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LoadConfig loads configuration from .env (if present) and the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine, system env vars still apply.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"console", "json"}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if c.CatalogURL == "" {
		errors = append(errors, "CATALOG_URL must be set")
	}
	if c.CatalogPageSize < 1 || c.CatalogPageSize > 50 {
		errors = append(errors, "CATALOG_PAGE_SIZE must be between 1 and 50")
	}
	if c.CatalogRateLimit <= 0 || c.CatalogRateBurst < 1 {
		errors = append(errors, "CATALOG_RATE_LIMIT must be positive and CATALOG_RATE_BURST at least 1")
	}
	if c.CatalogMaxRetries < 0 {
		errors = append(errors, "CATALOG_MAX_RETRIES must not be negative")
	}
	if c.SearchDebounce < 0 || c.AuthLatency < 0 {
		errors = append(errors, "SEARCH_DEBOUNCE and AUTH_LATENCY must not be negative")
	}

	validSecure := []string{BackendKeyring, BackendMemory}
	if !slices.Contains(validSecure, c.SecureBackend) {
		errors = append(errors, fmt.Sprintf("SECURE_BACKEND must be one of: %s", strings.Join(validSecure, ", ")))
	}
	if c.SecureBackend == BackendMemory && !c.IsDevelopment() {
		errors = append(errors, "SECURE_BACKEND=memory is only allowed in development")
	}

	validGeneral := []string{BackendSQLite, BackendPostgres, BackendRedis, BackendMemory}
	if !slices.Contains(validGeneral, c.GeneralBackend) {
		errors = append(errors, fmt.Sprintf("GENERAL_BACKEND must be one of: %s", strings.Join(validGeneral, ", ")))
	}
	switch c.GeneralBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH must be set for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL must be set for the postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "REDIS_ADDR must be set for the redis backend")
		}
	}

	if c.RestoreTimeout <= 0 || c.ShutdownTimeout <= 0 {
		errors = append(errors, "RESTORE_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
