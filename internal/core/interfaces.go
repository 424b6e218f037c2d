// Package core defines the ports between the ETL job runner and its adapters.
package core

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

// QueryRouter selects the query variant a job run executes.
type QueryRouter interface {
	Route(name model.JobName, flags model.FeatureFlagSet) (model.QueryVariant, error)
}

// QueryExecutor runs a read-only query variant against the source database.
type QueryExecutor interface {
	// Execute returns a ParameterError before touching the database when a placeholder has no value.
	Execute(ctx context.Context, variant model.QueryVariant, params model.Params) ([]model.ResultRow, error)
}

// WarehouseLoader writes rows to a warehouse table keyed by its natural key.
type WarehouseLoader interface {
	Upsert(ctx context.Context, table model.TargetTable, rows []model.ResultRow) (model.LoadResult, error)
}

// RunRepository persists run history.
type RunRepository interface {
	Record(ctx context.Context, run *model.RunResult) error
	List(ctx context.Context, opts model.RunListOptions) ([]*model.RunResult, error)
}

// RunLocker guards a job and window against concurrent runs from separate processes.
type RunLocker interface {
	// Acquire sets key to token if the key is free and reports whether it did.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release deletes key only if it still holds token.
	Release(ctx context.Context, key, token string) (bool, error)
}

// TimeProvider abstracts the clock for run timestamps and default windows.
type TimeProvider interface {
	Now() time.Time
}

// JobRunner runs one job over one window. The result is non-nil even when err is set.
type JobRunner interface {
	Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error)
}
