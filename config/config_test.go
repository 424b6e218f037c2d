package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func parseEnv(t *testing.T) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t)

	if cfg.Environment != EnvDevelopment {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.ETL.BatchSize != 1000 {
		t.Fatalf("expected batch size 1000, got %d", cfg.ETL.BatchSize)
	}
	if cfg.ETL.LockTTL != 2*time.Hour {
		t.Fatalf("expected lock ttl 2h, got %v", cfg.ETL.LockTTL)
	}
	if cfg.ETL.QueryTimeout != 10*time.Minute {
		t.Fatalf("expected query timeout 10m, got %v", cfg.ETL.QueryTimeout)
	}
	if !reflect.DeepEqual(cfg.Flags.Set(), model.DefaultFlagValues()) {
		t.Fatalf("unexpected default flags: %v", cfg.Flags.Set())
	}
	if cfg.PII.TokenizationSalt == "" {
		t.Fatal("expected a development tokenization salt")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestAppConfig_ParseFlags(t *testing.T) {
	t.Setenv("ENABLE_LEGACY_ETL", "off")
	t.Setenv("ENABLE_V1_SCHEMA", "no")
	t.Setenv("ENABLE_LEGACY_PAYMENTS", "YES")
	t.Setenv("ENABLE_LEGACY_PII", "0")
	t.Setenv("ENABLE_EXPERIMENTAL_DEDUP", "on")

	cfg := parseEnv(t)

	expected := model.FeatureFlagSet{
		model.FlagLegacyETL:         false,
		model.FlagV1Schema:          false,
		model.FlagLegacyPayments:    true,
		model.FlagLegacyPII:         false,
		model.FlagExperimentalDedup: true,
	}
	if !reflect.DeepEqual(cfg.Flags.Set(), expected) {
		t.Fatalf("unexpected flags:\nexpected: %v\ngot:      %v", expected, cfg.Flags.Set())
	}
	if len(cfg.Flags.Warnings()) != 0 {
		t.Fatalf("expected no warnings with legacy paths disabled, got %v", cfg.Flags.Warnings())
	}
}

func TestAppConfig_InvalidFlag(t *testing.T) {
	t.Setenv("ENABLE_V1_SCHEMA", "maybe")

	var cfg AppConfig
	err := env.Parse(&cfg)
	if err == nil {
		t.Fatal("expected an error for an invalid flag value")
	}
	if !strings.Contains(err.Error(), "maybe") {
		t.Fatalf("expected error to name the value, got %v", err)
	}
}

func TestAppConfig_SourceFallsBackToWarehouse(t *testing.T) {
	t.Setenv("DB_HOST", "warehouse.internal")
	t.Setenv("DB_PASSWORD", "p@ss:word")

	cfg := parseEnv(t)

	if !cfg.Source.IsFallback() {
		t.Fatal("expected source to fall back to the warehouse")
	}
	if cfg.Source.DSN() != cfg.Warehouse.DSN() {
		t.Fatalf("expected identical DSNs, got %q and %q", cfg.Source.DSN(), cfg.Warehouse.DSN())
	}
	if strings.Contains(cfg.Warehouse.RedactedDSN(), "p@ss") {
		t.Fatalf("expected password to be redacted, got %q", cfg.Warehouse.RedactedDSN())
	}
}

func TestAppConfig_SourceOverrides(t *testing.T) {
	t.Setenv("SOURCE_DB_HOST", "orders-replica")
	t.Setenv("SOURCE_DB_NAME", "shop")

	cfg := parseEnv(t)

	if cfg.Source.IsFallback() {
		t.Fatal("expected a dedicated source config")
	}
	if cfg.Source.Host != "orders-replica" || cfg.Source.Name != "shop" {
		t.Fatalf("unexpected source config: %+v", cfg.Source)
	}
	if cfg.Source.Port != defaultDBPort {
		t.Fatalf("expected default port, got %d", cfg.Source.Port)
	}

	t.Setenv("SOURCE_DATABASE_URL", "postgres://reader@replica:6432/shop")
	cfg = parseEnv(t)
	if cfg.Source.DSN() != "postgres://reader@replica:6432/shop?timezone=UTC" {
		t.Fatalf("expected url override, got %q", cfg.Source.DSN())
	}
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: 5433, User: "etl", Password: "a b/c", Name: "wh", SSLMode: "require"}

	got := cfg.DSN()
	want := "postgres://etl:a%20b%2Fc@db:5433/wh?sslmode=require&timezone=UTC"
	if got != want {
		t.Fatalf("unexpected dsn:\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestDBConfig_DSN_PinsSessionTimeZone(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "url without timezone",
			url:  "postgres://etl@db:5432/wh?sslmode=disable",
			want: "postgres://etl@db:5432/wh?sslmode=disable&timezone=UTC",
		},
		{
			name: "explicit timezone is kept",
			url:  "postgres://etl@db:5432/wh?timezone=Europe%2FBerlin",
			want: "postgres://etl@db:5432/wh?timezone=Europe%2FBerlin",
		},
		{
			name: "keyword value dsn is left alone",
			url:  "host=db user=etl dbname=wh",
			want: "host=db user=etl dbname=wh",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (DBConfig{URL: tt.url}).DSN(); got != tt.want {
				t.Fatalf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*AppConfig)
		field string
	}{
		{
			name:  "unknown environment",
			mut:   func(c *AppConfig) { c.Environment = "qa" },
			field: "ENVIRONMENT",
		},
		{
			name:  "production without salt",
			mut:   func(c *AppConfig) { c.Environment = EnvProduction; c.PII.TokenizationSalt = "" },
			field: "PII_TOKENIZATION_SALT",
		},
		{
			name:  "redis enabled without address",
			mut:   func(c *AppConfig) { c.Redis.Enabled = true; c.Redis.URI = "" },
			field: "REDIS_URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseEnv(t)
			tt.mut(&cfg)

			err := cfg.Validate()
			if !apperrors.IsConfiguration(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if apperrors.GetField(err) != tt.field {
				t.Fatalf("expected field %s, got %q", tt.field, apperrors.GetField(err))
			}
		})
	}
}

func TestAppConfig_SummarizeMasksSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("PII_TOKENIZATION_SALT", "pepper")
	t.Setenv("PII_ENCRYPTION_KEY", "k3y")

	cfg := parseEnv(t)
	s := cfg.Summarize()

	for _, v := range []string{s.Warehouse, s.Source, s.TokenSalt, s.EncryptionKey} {
		for _, secret := range []string{"hunter2", "pepper", "k3y"} {
			if strings.Contains(v, secret) {
				t.Fatalf("summary leaks %q in %q", secret, v)
			}
		}
	}
	if len(s.Flags) != len(model.AllFlags()) {
		t.Fatalf("expected every flag in summary, got %v", s.Flags)
	}
	if len(s.Warnings) < 2 {
		t.Fatalf("expected legacy warnings by default, got %v", s.Warnings)
	}
}

func TestLogConfig_Sanitize(t *testing.T) {
	cfg := LogConfig{Level: " DEBUG ", Format: "yaml"}
	cfg.Sanitize()

	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg)
	}

	cfg = LogConfig{Level: "verbose", Format: "TEXT"}
	cfg.Sanitize()
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Fatalf("unexpected log config: %+v", cfg)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
			Source:     "",
			Component:  "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != defaultObservabilityName {
		t.Fatalf("expected pagerduty source default, got %q", cfg.PagerDuty.Source)
	}
	if cfg.PagerDuty.Component != defaultObservabilityName {
		t.Fatalf("expected pagerduty component default, got %q", cfg.PagerDuty.Component)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "abc",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled when top-level notifications disabled")
	}
}
