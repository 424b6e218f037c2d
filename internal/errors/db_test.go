package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name: "unique violation parses key columns from detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (order_date, status)=(2024-01-01, completed) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "order_date, status",
		},
		{
			name:      "undefined table is reported as a database failure",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UndefinedTable, TableName: "users_v2"},
			wantCode:  ErrCodeDatabase,
			wantField: "users_v2",
		},
		{
			name:      "undefined column",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UndefinedColumn, ColumnName: "email_verified_at"},
			wantCode:  ErrCodeDatabase,
			wantField: "email_verified_at",
		},
		{
			name:      "not null violation",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "channel"},
			wantCode:  ErrCodeValidation,
			wantField: "channel",
		},
		{
			name:     "syntax error",
			pgErr:    &pgconn.PgError{Code: pgerrcode.SyntaxError},
			wantCode: ErrCodeDatabase,
		},
		{
			name:     "undefined parameter",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UndefinedParameter},
			wantCode: ErrCodeDatabase,
		},
		{
			name:     "connection failure",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeDatabase,
		},
		{
			name:     "admin shutdown",
			pgErr:    &pgconn.PgError{Code: pgerrcode.AdminShutdown},
			wantCode: ErrCodeDatabase,
		},
		{
			name:     "division by zero falls through to database",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DivisionByZero},
			wantCode: ErrCodeDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Error("mapped error should unwrap to *pgconn.PgError")
			}
		})
	}
}

func TestMapDBError_SchemaMismatchIsNotConfiguration(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, TableName: "users_v2"})
	if IsConfiguration(err) {
		t.Fatalf("a query that reached the server must not be a configuration error, got %v", GetCode(err))
	}
	if !IsDatabase(err) {
		t.Errorf("expected database error, got %v", GetCode(err))
	}
}

func TestMapDBError_UnknownErrorBecomesDatabase(t *testing.T) {
	err := MapDBError(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))
	if !IsDatabase(err) {
		t.Errorf("expected database error, got %v", GetCode(err))
	}
}

func TestMapDBError_KeepsExistingAppError(t *testing.T) {
	in := Parameter("start_date", "missing")
	if got := MapDBError(in); got != error(in) {
		t.Errorf("MapDBError() = %v, want original error", got)
	}
}
