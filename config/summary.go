package config

import "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"

const secretMask = "********"

// Summary is the credential-free view of AppConfig printed by the status command.
type Summary struct {
	Environment    string          `json:"environment"`
	Warehouse      string          `json:"warehouse"`
	Source         string          `json:"source"`
	SourceFallback bool            `json:"source_fallback"`
	Redis          RedisSummary    `json:"redis"`
	BatchSize      int             `json:"batch_size"`
	LockTTL        string          `json:"lock_ttl"`
	QueryTimeout   string          `json:"query_timeout"`
	Flags          map[string]bool `json:"flags"`
	TokenSalt      string          `json:"pii_tokenization_salt"`
	EncryptionKey  string          `json:"pii_encryption_key"`
	Metrics        bool            `json:"metrics_enabled"`
	Notifications  []string        `json:"notification_sinks"`
	Warnings       []string        `json:"warnings"`
}

// RedisSummary describes the lock backend without credentials.
type RedisSummary struct {
	Enabled bool   `json:"enabled"`
	Mode    string `json:"mode"`
}

// Summarize returns a Summary with every secret masked.
func (c *AppConfig) Summarize() Summary {
	flags := make(map[string]bool, len(model.AllFlags()))
	for name, v := range c.Flags.Set() {
		flags[string(name)] = v
	}

	var sinks []string
	if c.Observability.Notifications.Slack.Enabled {
		sinks = append(sinks, "slack")
	}
	if c.Observability.Notifications.PagerDuty.Enabled {
		sinks = append(sinks, "pagerduty")
	}

	warnings := c.Flags.Warnings()
	if c.Source.IsFallback() {
		warnings = append(warnings, "source database is not configured: reading from the warehouse")
	}

	return Summary{
		Environment:    c.Environment,
		Warehouse:      c.Warehouse.RedactedDSN(),
		Source:         c.Source.RedactedDSN(),
		SourceFallback: c.Source.IsFallback(),
		Redis:          RedisSummary{Enabled: c.Redis.Enabled, Mode: c.Redis.Mode()},
		BatchSize:      c.ETL.BatchSize,
		LockTTL:        c.ETL.LockTTL.String(),
		QueryTimeout:   c.ETL.QueryTimeout.String(),
		Flags:          flags,
		TokenSalt:      mask(c.PII.TokenizationSalt),
		EncryptionKey:  mask(c.PII.EncryptionKey),
		Metrics:        c.Observability.Metrics.IsEnabled(),
		Notifications:  sinks,
		Warnings:       warnings,
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return secretMask
}
