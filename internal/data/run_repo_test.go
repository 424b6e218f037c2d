package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/testutil"
)

func TestRunRepo_NotConfigured(t *testing.T) {
	var repo *RunRepo
	assert.ErrorIs(t, repo.Record(context.Background(), &model.RunResult{}), ErrRunsNotConfigured)

	_, err := NewRunRepo(nil).List(context.Background(), model.RunListOptions{})
	assert.ErrorIs(t, err, ErrRunsNotConfigured)
}

func TestRunRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewRunRepo(db)
		base := testutil.TestTime()
		window := model.PreviousDay(base)

		mk := func(job model.JobName, offset time.Duration, status model.RunStatus) *model.RunResult {
			return &model.RunResult{
				Job:           job,
				SchemaVersion: model.SchemaV1,
				Query:         string(job) + "_v1",
				Status:        status,
				Window:        window,
				RowsExtracted: 3,
				RowsLoaded:    3,
				StartedAt:     base.Add(offset),
				FinishedAt:    base.Add(offset + time.Second),
			}
		}

		first := mk(model.JobUser, 0, model.RunStatusSuccess)
		require.NoError(t, repo.Record(ctx, first))
		_, err := uuid.Parse(first.ID)
		require.NoError(t, err, "Record assigns a UUID")

		failed := mk(model.JobOrder, time.Minute, model.RunStatusFailed)
		failed.Error = "boom"
		failed.ErrorCode = "database"
		failed.Partial = true
		require.NoError(t, repo.Record(ctx, failed))
		require.NoError(t, repo.Record(ctx, mk(model.JobUser, 2*time.Minute, model.RunStatusSuccess)))

		t.Run("lists newest first", func(t *testing.T) {
			runs, err := repo.List(ctx, model.RunListOptions{})
			require.NoError(t, err)
			require.Len(t, runs, 3)
			assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
			assert.Equal(t, failed.ID, runs[1].ID)
			assert.Equal(t, "boom", runs[1].Error)
			assert.True(t, runs[1].Partial)
			assert.Equal(t, window.Start, runs[1].Window.Start)
		})

		t.Run("filters by job and limit", func(t *testing.T) {
			runs, err := repo.List(ctx, model.RunListOptions{Job: model.JobUser, Limit: 1})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, model.JobUser, runs[0].Job)
		})

		t.Run("duplicate id conflicts", func(t *testing.T) {
			err := repo.Record(ctx, first)
			assert.True(t, apperrors.IsConflict(err), "got %v", err)
		})

		t.Run("non-uuid id is rejected", func(t *testing.T) {
			r := mk(model.JobUser, 0, model.RunStatusSuccess)
			r.ID = "not-a-uuid"
			assert.True(t, apperrors.IsParameter(repo.Record(ctx, r)))
		})
	})
}
