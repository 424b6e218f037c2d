package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data/database"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data/pgxutil"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// DefaultBatchSize is used when WarehouseLoaderOptions.BatchSize is not positive.
const DefaultBatchSize = 1000

// WarehouseLoaderOptions configures a WarehouseLoader.
type WarehouseLoaderOptions struct {
	DB        *sql.DB
	BatchSize int
	Logger    *slog.Logger
}

// WarehouseLoader upserts analytics rows keyed on each table's natural key.
type WarehouseLoader struct {
	db        *sql.DB
	batchSize int
	logger    *slog.Logger
}

// NewWarehouseLoader constructs a WarehouseLoader. It panics if opts.DB is nil.
func NewWarehouseLoader(opts WarehouseLoaderOptions) *WarehouseLoader {
	if opts.DB == nil {
		panic("data: NewWarehouseLoader requires a DB")
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WarehouseLoader{db: opts.DB, batchSize: size, logger: logger.With("component", "warehouse_loader")}
}

// UpsertStatement returns the single-row upsert used for table.
func UpsertStatement(table model.TargetTable) string {
	return database.BuildUpsert(database.UpsertOptions{
		Table:        table.Name,
		KeyColumns:   table.KeyColumns,
		ValueColumns: table.ValueColumns,
		TouchColumn:  "loaded_at",
	})
}

// PrepareRows validates natural keys and collapses rows sharing a key, keeping the last values
// at the position of the first occurrence.
func PrepareRows(table model.TargetTable, rows []model.ResultRow) ([]model.ResultRow, error) {
	if len(table.KeyColumns) == 0 {
		return nil, apperrors.ConfigurationField("table", fmt.Sprintf("table %s has no natural key", table.Name))
	}

	index := make(map[string]int, len(rows))
	out := make([]model.ResultRow, 0, len(rows))
	for i, row := range rows {
		parts := make([]string, len(table.KeyColumns))
		for k, col := range table.KeyColumns {
			if v, ok := row[col]; !ok || v == nil {
				return nil, apperrors.Parameterf(col, "row %d for %s is missing natural key column %q", i, table.Name, col)
			}
			parts[k] = row.String(col)
		}
		key := strings.Join(parts, "\x1f")
		if pos, seen := index[key]; seen {
			out[pos] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out, nil
}

// Upsert writes rows in batches of the configured size, one transaction per batch.
// When a batch fails after earlier batches committed, the result is marked Partial and the
// error is a DatabaseError. Nothing is retried.
func (l *WarehouseLoader) Upsert(
	ctx context.Context,
	table model.TargetTable,
	rows []model.ResultRow,
) (model.LoadResult, error) {
	res := model.LoadResult{Table: table.Name}
	if len(rows) == 0 {
		return res, nil
	}

	prepared, err := PrepareRows(table, rows)
	if err != nil {
		return res, err
	}

	stmt := UpsertStatement(table)
	cols := table.Columns()
	for start := 0; start < len(prepared); start += l.batchSize {
		end := min(start+l.batchSize, len(prepared))
		batch := prepared[start:end]

		err = pgxutil.WithPgxTx(ctx, l.db, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
			b := &pgx.Batch{}
			for _, row := range batch {
				args := make([]any, len(cols))
				for i, col := range cols {
					args[i] = row[col]
				}
				b.Queue(stmt, args...)
			}
			return tx.SendBatch(ctx, b).Close()
		}})
		if err != nil {
			res.Partial = res.Loaded > 0
			l.logger.ErrorContext(ctx, "batch upsert failed",
				"table", table.Name,
				"batch", res.Batches+1,
				"loaded", res.Loaded,
				"partial", res.Partial,
				"error", err,
			)
			return res, apperrors.Database(apperrors.MapDBError(err),
				fmt.Sprintf("upsert %s batch %d (%d rows already committed)", table.Name, res.Batches+1, res.Loaded))
		}
		res.Loaded += len(batch)
		res.Batches++
	}

	l.logger.DebugContext(ctx, "rows upserted", "table", table.Name, "rows", res.Loaded, "batches", res.Batches)
	return res, nil
}
