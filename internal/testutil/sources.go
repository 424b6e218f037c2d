package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sourceSchema mirrors the operational tables the embedded queries read.
const sourceSchema = `
CREATE TABLE IF NOT EXISTS users_legacy (
    id BIGSERIAL PRIMARY KEY,
    email TEXT,
    email_verified BOOLEAN NOT NULL DEFAULT false,
    subscription_type TEXT,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS users_v2 (
    id BIGSERIAL PRIMARY KEY,
    email_token TEXT,
    email_verified_at TIMESTAMPTZ,
    subscription_tier TEXT,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS orders_legacy (
    id BIGSERIAL PRIMARY KEY,
    status TEXT NOT NULL,
    total_amount NUMERIC(12, 2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS orders_v2 (
    id BIGSERIAL PRIMARY KEY,
    status TEXT NOT NULL,
    total_amount NUMERIC(12, 2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS payments_legacy (
    id BIGSERIAL PRIMARY KEY,
    payment_method TEXT NOT NULL,
    amount NUMERIC(12, 2) NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS payments_v2 (
    id BIGSERIAL PRIMARY KEY,
    payment_method TEXT NOT NULL,
    amount NUMERIC(12, 2) NOT NULL,
    status TEXT NOT NULL,
    processing_time_ms INTEGER,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS notifications_legacy (
    id BIGSERIAL PRIMARY KEY,
    channel TEXT NOT NULL,
    notification_type TEXT NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL,
    delivered_at TIMESTAMPTZ,
    opened_at TIMESTAMPTZ,
    clicked_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS notifications_v2 (
    id BIGSERIAL PRIMARY KEY,
    channel TEXT NOT NULL,
    notification_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'sent',
    sent_at TIMESTAMPTZ NOT NULL,
    delivered_at TIMESTAMPTZ,
    opened_at TIMESTAMPTZ,
    clicked_at TIMESTAMPTZ,
    bounced_at TIMESTAMPTZ
);`

func sourceTableNames() []string {
	return []string{
		"users_legacy", "users_v2", "orders_legacy", "orders_v2",
		"payments_legacy", "payments_v2", "notifications_legacy", "notifications_v2",
	}
}

// CreateSourceTables creates the operational source tables used by integration tests.
func CreateSourceTables(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sourceSchema); err != nil {
		return fmt.Errorf("create source tables: %w", err)
	}
	return nil
}

// MustExec runs stmt and fails the test on error.
func MustExec(t TestingTB, db *sql.DB, stmt string, args ...any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

// PinSessionTimeZone limits db to one connection and sets that session's TimeZone to zone.
func PinSessionTimeZone(t TestingTB, db *sql.DB, zone string) {
	t.Helper()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	MustExec(t, db, "SELECT set_config('TimeZone', $1, false)", zone)
}
