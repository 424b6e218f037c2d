package model

import "time"

// RunStatus is the outcome of a job run.
type RunStatus string

const (
	// RunStatusSuccess indicates every stage completed.
	RunStatusSuccess RunStatus = "success"
	// RunStatusFailed indicates the run aborted. Loaded may be non-zero when Partial is set.
	RunStatusFailed RunStatus = "failed"
)

// RunResult summarises one job run over one window.
type RunResult struct {
	ID               string        `json:"id"`
	Job              JobName       `json:"job_name"`
	SchemaVersion    SchemaVersion `json:"schema_version,omitempty"`
	Query            string        `json:"query,omitempty"`
	Status           RunStatus     `json:"status"`
	Window           Window        `json:"window"`
	DryRun           bool          `json:"dry_run"`
	RowsExtracted    int           `json:"records_extracted"`
	RowsTransformed  int           `json:"records_transformed"`
	RowsDeduplicated int           `json:"records_deduplicated"`
	RowsLoaded       int           `json:"records_loaded"`
	Partial          bool          `json:"partial"`
	Error            string        `json:"error,omitempty"`
	ErrorCode        string        `json:"error_code,omitempty"`
	StartedAt        time.Time     `json:"start_time"`
	FinishedAt       time.Time     `json:"end_time"`
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed successfully.
func (r *RunResult) Succeeded() bool {
	return r != nil && r.Status == RunStatusSuccess
}

// RunListOptions filters run history queries.
type RunListOptions struct {
	Job   JobName
	Limit int
}

// LoadResult reports what an upsert wrote to one warehouse table.
type LoadResult struct {
	Table   string `json:"table"`
	Loaded  int    `json:"loaded"`
	Batches int    `json:"batches"`
	// Partial is set when at least one batch committed before a later batch failed.
	Partial bool `json:"partial"`
}

// RunRequest selects the job, the window and the run mode of one run.
type RunRequest struct {
	Job    JobName
	Window Window
	DryRun bool
	// Params override the window and job default bind parameters.
	Params Params
}
