package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data/database"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data/pgxutil"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// DefaultRunListLimit caps history queries without an explicit limit.
const DefaultRunListLimit = 20

// RunRepo persists run history in etl_runs.
type RunRepo struct {
	DB *sql.DB
}

// NewRunRepo constructs a RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{DB: db}
}

// Record inserts run. A missing ID is filled with a new UUID.
func (r *RunRepo) Record(ctx context.Context, run *model.RunResult) error {
	if r == nil || r.DB == nil {
		return ErrRunsNotConfigured
	}
	if run == nil {
		return ErrRunIDRequired
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return apperrors.Parameterf("id", "run id %q is not a UUID", run.ID)
	}

	const query = `
		INSERT INTO etl_runs (
			id, job_name, schema_version, query_name, status, window_start, window_end,
			records_extracted, records_transformed, records_deduplicated, records_loaded,
			partial, error_message, error_code, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.DB.ExecContext(ctx, query,
		run.ID, string(run.Job), nullString(string(run.SchemaVersion)), nullString(run.Query), string(run.Status),
		run.Window.Start, run.Window.End,
		run.RowsExtracted, run.RowsTransformed, run.RowsDeduplicated, run.RowsLoaded,
		run.Partial, nullString(run.Error), nullString(run.ErrorCode), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert etl_runs: %w", apperrors.MapDBError(err))
	}
	return nil
}

type runRow struct {
	ID                  string         `db:"id"`
	JobName             string         `db:"job_name"`
	SchemaVersion       sql.NullString `db:"schema_version"`
	QueryName           sql.NullString `db:"query_name"`
	Status              string         `db:"status"`
	WindowStart         time.Time      `db:"window_start"`
	WindowEnd           time.Time      `db:"window_end"`
	RecordsExtracted    int            `db:"records_extracted"`
	RecordsTransformed  int            `db:"records_transformed"`
	RecordsDeduplicated int            `db:"records_deduplicated"`
	RecordsLoaded       int            `db:"records_loaded"`
	Partial             bool           `db:"partial"`
	ErrorMessage        sql.NullString `db:"error_message"`
	ErrorCode           sql.NullString `db:"error_code"`
	StartedAt           time.Time      `db:"started_at"`
	FinishedAt          time.Time      `db:"finished_at"`
}

func (row runRow) toModel() *model.RunResult {
	return &model.RunResult{
		ID:               row.ID,
		Job:              model.JobName(row.JobName),
		SchemaVersion:    model.SchemaVersion(row.SchemaVersion.String),
		Query:            row.QueryName.String,
		Status:           model.RunStatus(row.Status),
		Window:           model.Window{Start: row.WindowStart.UTC(), End: row.WindowEnd.UTC()},
		RowsExtracted:    row.RecordsExtracted,
		RowsTransformed:  row.RecordsTransformed,
		RowsDeduplicated: row.RecordsDeduplicated,
		RowsLoaded:       row.RecordsLoaded,
		Partial:          row.Partial,
		Error:            row.ErrorMessage.String,
		ErrorCode:        row.ErrorCode.String,
		StartedAt:        row.StartedAt.UTC(),
		FinishedAt:       row.FinishedAt.UTC(),
	}
}

var runColumns = []string{
	"id", "job_name", "schema_version", "query_name", "status", "window_start", "window_end",
	"records_extracted", "records_transformed", "records_deduplicated", "records_loaded",
	"partial", "error_message", "error_code", "started_at", "finished_at",
}

// List returns the most recent runs first.
func (r *RunRepo) List(ctx context.Context, opts model.RunListOptions) ([]*model.RunResult, error) {
	if r == nil || r.DB == nil {
		return nil, ErrRunsNotConfigured
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRunListLimit
	}

	listOpts := []database.ListQueryOption{
		database.WithColumns(runColumns...),
		database.WithOrderBy("started_at", "DESC"),
		database.WithLimit(limit),
	}
	if opts.Job != "" {
		listOpts = append(listOpts, database.WithCondition(database.WhereCond("job_name", database.Equal, string(opts.Job))))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("etl_runs", listOpts...))

	var out []*model.RunResult
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[runRow])
		if err != nil {
			return err
		}
		out = make([]*model.RunResult, len(collected))
		for i := range collected {
			out[i] = collected[i].toModel()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list etl_runs: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
