package config

import (
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

const (
	defaultBatchSize    = 1000
	defaultLockTTL      = 2 * time.Hour
	defaultQueryTimeout = 10 * time.Minute
)

// ETLConfig controls job execution.
type ETLConfig struct {
	// BatchSize is the number of rows per loader transaction.
	BatchSize int `env:"ETL_BATCH_SIZE" envDefault:"1000"`
	// LockTTL bounds how long a crashed run can hold its job/window lock.
	LockTTL time.Duration `env:"ETL_LOCK_TTL" envDefault:"2h"`
	// QueryTimeout bounds a single extract query.
	QueryTimeout time.Duration `env:"ETL_QUERY_TIMEOUT" envDefault:"10m"`
}

// Sanitize restores defaults for non-positive values.
func (c *ETLConfig) Sanitize() {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = defaultQueryTimeout
	}
}

// Flag is a boolean that also accepts yes/no and on/off.
type Flag bool

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (f *Flag) UnmarshalText(text []byte) error {
	v, err := model.ParseFlagValue(string(text))
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// FeatureFlagConfig holds the routing and handling flags.
type FeatureFlagConfig struct {
	LegacyETL         Flag `env:"ENABLE_LEGACY_ETL"         envDefault:"true"`
	V1Schema          Flag `env:"ENABLE_V1_SCHEMA"          envDefault:"true"`
	LegacyPayments    Flag `env:"ENABLE_LEGACY_PAYMENTS"    envDefault:"false"`
	LegacyPII         Flag `env:"ENABLE_LEGACY_PII"         envDefault:"true"`
	ExperimentalDedup Flag `env:"ENABLE_EXPERIMENTAL_DEDUP" envDefault:"false"`
}

// Set returns the flags as a FeatureFlagSet with every known flag present.
func (c FeatureFlagConfig) Set() model.FeatureFlagSet {
	return model.FeatureFlagSet{
		model.FlagLegacyETL:         bool(c.LegacyETL),
		model.FlagV1Schema:          bool(c.V1Schema),
		model.FlagLegacyPayments:    bool(c.LegacyPayments),
		model.FlagLegacyPII:         bool(c.LegacyPII),
		model.FlagExperimentalDedup: bool(c.ExperimentalDedup),
	}
}

// Warnings lists the enabled flags that keep legacy data paths alive.
func (c FeatureFlagConfig) Warnings() []string {
	var out []string
	if c.LegacyETL {
		out = append(out, "legacy ETL is enabled: jobs may read v1 source tables")
	}
	if c.LegacyPII {
		out = append(out, "legacy PII handling is enabled: v1 rows are masked, not redacted")
	}
	return out
}

// PIIConfig holds the keys used by the tokenizer.
type PIIConfig struct {
	TokenizationSalt string `env:"PII_TOKENIZATION_SALT"`
	// EncryptionKey is reported by status only. Rows are never encrypted by this process.
	EncryptionKey string `env:"PII_ENCRYPTION_KEY"`
}

// Sanitize trims keys. Outside production-like environments a fixed salt is used when none is set.
func (c *PIIConfig) Sanitize(isDev bool) {
	c.TokenizationSalt = strings.TrimSpace(c.TokenizationSalt)
	c.EncryptionKey = strings.TrimSpace(c.EncryptionKey)
	if c.TokenizationSalt == "" && isDev {
		c.TokenizationSalt = devTokenizationSalt
	}
}
