package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for localpulse-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// VolumeAPI is the external search-volume provider.
	VolumeAPI VolumeAPIConfig `yaml:"volume_api"`

	// Engine holds refresh-pipeline defaults.
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"localpulse"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"localpulse_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.MaxConnections, validation.Min(int32(1))),
	)
}

// VolumeAPIConfig holds the search-volume provider's endpoint and the
// geographic/language targeting sent with every batch request.
type VolumeAPIConfig struct {
	Endpoint string `yaml:"endpoint" env:"VOLUME_API_ENDPOINT" env-default:""`
	APIKey   string `yaml:"-" env:"VOLUME_API_KEY"` // Secret - not in YAML
	Language string `yaml:"language" env:"VOLUME_API_LANGUAGE" env-default:"en"`
	// SearchPartners asks the provider to include partner-network demand.
	// Part of the fingerprint context, so flipping it re-fingerprints
	// keywords on their next refresh.
	SearchPartners bool `yaml:"search_partners" env:"VOLUME_API_SEARCH_PARTNERS" env-default:"false"`
	TimeoutSecs    int  `yaml:"timeout_secs" env:"VOLUME_API_TIMEOUT_SECS" env-default:"30"`
}

// Timeout returns the per-request provider timeout.
func (c *VolumeAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate validates the provider configuration.
func (c *VolumeAPIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Language, validation.Required),
		validation.Field(&c.TimeoutSecs, validation.Min(1), validation.Max(300)),
	)
}

// EngineConfig holds refresh-pipeline defaults.
type EngineConfig struct {
	// MigrationsPath is the directory holding SQL migrations applied at startup.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	// RefreshConcurrency bounds how many scopes a bulk refresh works in parallel.
	RefreshConcurrency int `yaml:"refresh_concurrency" env:"REFRESH_CONCURRENCY" env-default:"4"`
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MigrationsPath, validation.Required),
		validation.Field(&c.RefreshConcurrency, validation.Min(1), validation.Max(64)),
	)
}

// Load reads configuration from config.yaml with environment variable
// overrides, falling back to environment variables alone when no file is
// present (containers configure the engine purely via env). The version
// parameter is injected at build time and set on the returned Config.
// Secrets (PGPASSWORD, VOLUME_API_KEY) must come from environment variables
// (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the full configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.VolumeAPI.Validate(); err != nil {
		return fmt.Errorf("volume_api: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
