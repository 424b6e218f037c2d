package metrics

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	obserrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/errors"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/statsd"
)

// Metric names.
const (
	MetricRun         = "etl.run"
	MetricRunDuration = "etl.run.duration"
	MetricRows        = "etl.rows"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultPartial = "partial"
)

// Transition constants for metric tagging.
const (
	TransitionStarted   = "started"
	TransitionCompleted = "completed"
	TransitionFailed    = "failed"
	TransitionSkipped   = "skipped"
)

// Row stages reported under MetricRows.
const (
	StageExtracted    = "extracted"
	StageTransformed  = "transformed"
	StageDeduplicated = "deduplicated"
	StageLoaded       = "loaded"
)

// RunMetric captures details about a run lifecycle event for metric emission.
type RunMetric struct {
	Job        model.JobName
	Schema     model.SchemaVersion
	Transition string
	Result     string
	DryRun     bool
	Duration   time.Duration
	Err        error
	// Rows holds per-stage row counts keyed by Stage*. Zero counts are skipped.
	Rows map[string]int
}

// RunMetricFrom builds the terminal metric for a finished run.
func RunMetricFrom(run *model.RunResult, err error) RunMetric {
	m := RunMetric{
		Job:        run.Job,
		Schema:     run.SchemaVersion,
		Transition: TransitionCompleted,
		Result:     ResultSuccess,
		DryRun:     run.DryRun,
		Duration:   run.Duration(),
		Err:        err,
		Rows: map[string]int{
			StageExtracted:    run.RowsExtracted,
			StageTransformed:  run.RowsTransformed,
			StageDeduplicated: run.RowsDeduplicated,
			StageLoaded:       run.RowsLoaded,
		},
	}
	if !run.Succeeded() {
		m.Transition = TransitionFailed
		m.Result = ResultError
		if run.Partial {
			m.Result = ResultPartial
		}
	}
	return m
}

// EmitRunLifecycle emits standardised run lifecycle metrics.
func EmitRunLifecycle(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job":        string(in.Job),
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Schema != "" {
		tags["schema"] = string(in.Schema)
	}
	if in.DryRun {
		tags["dry_run"] = "true"
	}

	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(MetricRun, 1, tags)

	if in.Duration > 0 {
		sink.Timing(MetricRunDuration, in.Duration, CloneTags(tags))
	}

	for _, stage := range []string{StageExtracted, StageTransformed, StageDeduplicated, StageLoaded} {
		n := in.Rows[stage]
		if n <= 0 {
			continue
		}
		rowTags := map[string]string{"job": string(in.Job), "stage": stage}
		if in.Schema != "" {
			rowTags["schema"] = string(in.Schema)
		}
		sink.Count(MetricRows, int64(n), rowTags)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
