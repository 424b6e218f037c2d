package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data/pgxutil"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// QueryExecutorOptions configures a QueryExecutor.
type QueryExecutorOptions struct {
	DB *sql.DB
	// Timeout bounds each Execute call. Zero leaves the caller's deadline in charge.
	Timeout time.Duration
	Logger  *slog.Logger
}

// QueryExecutor runs query variants against the source database in read-only transactions.
type QueryExecutor struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

// NewQueryExecutor constructs a QueryExecutor. It panics if opts.DB is nil.
func NewQueryExecutor(opts QueryExecutorOptions) *QueryExecutor {
	if opts.DB == nil {
		panic("data: NewQueryExecutor requires a DB")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryExecutor{
		db:      opts.DB,
		timeout: opts.Timeout,
		logger:  logger.With("component", "query_executor"),
	}
}

// BindArgs returns the named arguments for variant. Every placeholder must have a non-nil value.
func BindArgs(variant model.QueryVariant, params model.Params) (pgx.NamedArgs, error) {
	if missing := variant.MissingParams(params); len(missing) > 0 {
		return nil, apperrors.Parameterf(missing[0],
			"query %s: missing required parameter %q (missing: %s)",
			variant.Name, missing[0], strings.Join(missing, ", "))
	}
	args := make(pgx.NamedArgs, len(variant.Params))
	for _, name := range variant.Params {
		args[name] = params[name]
	}
	return args, nil
}

// Execute runs variant with params and returns every row keyed by column name.
func (e *QueryExecutor) Execute(
	ctx context.Context,
	variant model.QueryVariant,
	params model.Params,
) ([]model.ResultRow, error) {
	if strings.TrimSpace(variant.SQL) == "" {
		return nil, apperrors.ConfigurationField("query", fmt.Sprintf("query %s has no SQL", variant.Name))
	}
	args, err := BindArgs(variant, params)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	var collected []map[string]any
	err = pgxutil.WithPgxTx(ctx, e.db, pgxutil.TxConfig{
		Opts: pgxutil.ReadOnly(),
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, variant.SQL, args)
			if qerr != nil {
				return qerr
			}
			collected, qerr = pgx.CollectRows(rows, pgx.RowToMap)
			return qerr
		},
	})
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", variant.Name, apperrors.MapDBError(err))
	}

	out := make([]model.ResultRow, len(collected))
	for i, row := range collected {
		out[i] = model.ResultRow(row)
	}
	e.logger.DebugContext(ctx, "query executed",
		"query", variant.Name,
		"rows", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
