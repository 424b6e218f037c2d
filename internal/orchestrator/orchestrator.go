// Package orchestrator holds the entry points the external scheduler calls: one job for a
// logical date, every job for a window, or a backfill split into batches.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// DefaultBatchDays is the backfill window size when none is given.
const DefaultBatchDays = 7

// Options configures an Orchestrator.
type Options struct {
	Runner core.JobRunner // Required
	Logger *slog.Logger
}

// Orchestrator sequences job runs. Runs never overlap inside one process.
type Orchestrator struct {
	runner core.JobRunner
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Runner == nil {
		panic("JobRunner is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{runner: opts.Runner, logger: logger.With("component", "orchestrator")}
}

// TriggerRequest is one scheduled invocation of a job.
type TriggerRequest struct {
	Job         model.JobName
	LogicalDate time.Time
	DryRun      bool
}

// Trigger runs req.Job over [LogicalDate-1d, LogicalDate).
func (o *Orchestrator) Trigger(ctx context.Context, req TriggerRequest) (*model.RunResult, error) {
	if req.LogicalDate.IsZero() {
		return nil, apperrors.Parameter("logical_date", "logical date is required")
	}
	window := model.PreviousDay(req.LogicalDate.UTC())
	o.logger.InfoContext(ctx, "trigger", "job", req.Job, "logical_date", req.LogicalDate.Format(model.DateLayout), "window", window.String())

	return o.runner.Run(ctx, model.RunRequest{Job: req.Job, Window: window, DryRun: req.DryRun})
}

// RunAll runs every job in catalog order over window. A failed job does not stop the
// remaining ones; the returned error joins every job error. Cancellation stops the loop.
func (o *Orchestrator) RunAll(ctx context.Context, window model.Window, dryRun bool) ([]*model.RunResult, error) {
	var (
		results []*model.RunResult
		errs    []error
	)
	for _, job := range model.AllJobNames() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job, err))
			break
		}
		run, err := o.runner.Run(ctx, model.RunRequest{Job: job, Window: window, DryRun: dryRun})
		if run != nil {
			results = append(results, run)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job, err))
		}
	}

	o.logger.InfoContext(ctx, "run all finished",
		"window", window.String(),
		"jobs", len(results),
		"failed", len(errs),
	)
	return results, errors.Join(errs...)
}

// BackfillRequest re-processes [Start, End) for one job in batches of BatchDays.
type BackfillRequest struct {
	Job       model.JobName
	Start     time.Time
	End       time.Time
	BatchDays int
	DryRun    bool
}

// BackfillSummary reports the outcome of every batch.
type BackfillSummary struct {
	Job           model.JobName      `json:"job_name"`
	Total         int                `json:"total_batches"`
	Successful    int                `json:"successful"`
	Failed        int                `json:"failed"`
	FailedWindows []model.Window     `json:"failed_windows,omitempty"`
	Results       []*model.RunResult `json:"results"`
}

// Backfill runs req.Job once per batch, sequentially. A failed batch is recorded and the
// next batch still runs. The error joins every batch error.
func (o *Orchestrator) Backfill(ctx context.Context, req BackfillRequest) (BackfillSummary, error) {
	summary := BackfillSummary{Job: req.Job}

	if _, err := model.ParseJobName(string(req.Job)); err != nil {
		return summary, err
	}
	window, err := model.NewWindow(req.Start, req.End)
	if err != nil {
		return summary, apperrors.Parameter("start_date", err.Error())
	}
	batchDays := req.BatchDays
	if batchDays == 0 {
		batchDays = DefaultBatchDays
	}
	batches, err := window.SplitDays(batchDays)
	if err != nil {
		return summary, apperrors.Parameter("batch_days", err.Error())
	}

	summary.Total = len(batches)
	o.logger.InfoContext(ctx, "backfill started", "job", req.Job, "window", window.String(), "batches", len(batches))

	var errs []error
	for i, batch := range batches {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			summary.Failed += len(batches) - i
			summary.FailedWindows = append(summary.FailedWindows, batches[i:]...)
			break
		}

		run, runErr := o.runner.Run(ctx, model.RunRequest{Job: req.Job, Window: batch, DryRun: req.DryRun})
		if run != nil {
			summary.Results = append(summary.Results, run)
		}
		if runErr != nil {
			summary.Failed++
			summary.FailedWindows = append(summary.FailedWindows, batch)
			errs = append(errs, fmt.Errorf("batch %s: %w", batch, runErr))
			o.logger.WarnContext(ctx, "backfill batch failed", "job", req.Job, "window", batch.String(), "error", runErr)
			continue
		}
		summary.Successful++
	}

	o.logger.InfoContext(ctx, "backfill finished",
		"job", req.Job,
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)
	return summary, errors.Join(errs...)
}

// Schedule is the cron entry of one job for the external scheduler.
type Schedule struct {
	Job    model.JobName `json:"job_name"`
	Cron   string        `json:"schedule"`
	Target string        `json:"target"`
}

// Schedules lists the cron schedule of every job in catalog order.
func Schedules() []Schedule {
	jobs := model.Jobs()
	out := make([]Schedule, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, Schedule{Job: j.Name, Cron: j.Schedule, Target: j.Target.Name})
	}
	return out
}
