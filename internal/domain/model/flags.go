package model

import (
	"fmt"
	"strings"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// FlagName is the environment name of a feature flag.
type FlagName string

const (
	// FlagLegacyETL gates every legacy path. When disabled all jobs read v2.
	FlagLegacyETL FlagName = "ENABLE_LEGACY_ETL"
	// FlagV1Schema routes user, order and notification jobs to v1 queries.
	FlagV1Schema FlagName = "ENABLE_V1_SCHEMA"
	// FlagLegacyPayments routes the payment job to its v1 query.
	FlagLegacyPayments FlagName = "ENABLE_LEGACY_PAYMENTS"
	// FlagLegacyPII masks raw PII in v1 rows instead of redacting it.
	FlagLegacyPII FlagName = "ENABLE_LEGACY_PII"
	// FlagExperimentalDedup fingerprints rows by natural key instead of full content.
	FlagExperimentalDedup FlagName = "ENABLE_EXPERIMENTAL_DEDUP"
)

// AllFlags returns every known flag in display order.
func AllFlags() []FlagName {
	return []FlagName{FlagLegacyETL, FlagV1Schema, FlagLegacyPayments, FlagLegacyPII, FlagExperimentalDedup}
}

// DefaultFlagValues mirrors the defaults applied when a flag is absent from the environment.
func DefaultFlagValues() FeatureFlagSet {
	return FeatureFlagSet{
		FlagLegacyETL:         true,
		FlagV1Schema:          true,
		FlagLegacyPayments:    false,
		FlagLegacyPII:         true,
		FlagExperimentalDedup: false,
	}
}

// FeatureFlagSet maps flag names to values. It is loaded once per run.
type FeatureFlagSet map[FlagName]bool

// Lookup returns the value of name or a ConfigurationError when the flag is missing.
func (s FeatureFlagSet) Lookup(name FlagName) (bool, error) {
	v, ok := s[name]
	if !ok {
		return false, apperrors.ConfigurationField(string(name), fmt.Sprintf("feature flag %s is not set", name))
	}
	return v, nil
}

// Enabled returns the flag value, treating a missing flag as disabled.
func (s FeatureFlagSet) Enabled(name FlagName) bool {
	return s[name]
}

// ParseFlagValue accepts true/1/yes/on and false/0/no/off (case-insensitive).
func ParseFlagValue(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}
