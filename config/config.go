package config

import (
	"strings"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// Environment names recognised by ENVIRONMENT.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// devTokenizationSalt keys the tokenizer when no salt is configured outside production.
const devTokenizationSalt = "acme-dev-tokenization-salt"

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: warehouse, source and Redis connections
//   - etl.go: batch size, lock TTL, query timeout, feature flags and PII keys
//   - observability.go: logging, metrics and failure notifications
type AppConfig struct {
	// Environment is one of development, staging or production.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// DatabaseURL overrides the DB_* settings for the warehouse when set.
	DatabaseURL string `env:"DATABASE_URL"`
	// SourceDatabaseURL overrides the SOURCE_DB_* settings when set.
	SourceDatabaseURL string `env:"SOURCE_DATABASE_URL"`

	// Warehouse is the analytics database the loader writes to.
	Warehouse DBConfig `envPrefix:"DB_"`
	// Source is the operational database queries read from. It falls back to Warehouse.
	Source DBConfig    `envPrefix:"SOURCE_DB_"`
	Redis  RedisConfig `envPrefix:"REDIS_"`

	ETL   ETLConfig
	Flags FeatureFlagConfig
	PII   PIIConfig

	Log           LogConfig
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}

	c.Warehouse.URL = strings.TrimSpace(c.DatabaseURL)
	c.Warehouse.applyDefaults()

	c.Source.URL = strings.TrimSpace(c.SourceDatabaseURL)
	if c.Source.URL == "" && c.Source.Host == "" {
		c.Source = c.Warehouse
		c.Source.fallback = true
	} else {
		c.Source.applyDefaults()
	}

	c.Redis.Sanitize()
	c.ETL.Sanitize()
	c.PII.Sanitize(c.IsDev())
	c.Log.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports settings that make a run impossible. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return apperrors.ConfigurationField("ENVIRONMENT", "unknown environment "+c.Environment)
	}
	if c.PII.TokenizationSalt == "" {
		return apperrors.ConfigurationField("PII_TOKENIZATION_SALT", "tokenization salt is required outside development")
	}
	if c.Redis.Enabled && !c.Redis.hasAddress() {
		return apperrors.ConfigurationField("REDIS_URI", "redis is enabled but no address is configured")
	}
	return nil
}

// IsDev reports whether the process runs in the development environment.
func (c *AppConfig) IsDev() bool {
	return c.Environment == EnvDevelopment
}

// IsProduction reports whether the process runs in production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}
