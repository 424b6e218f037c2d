package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/statsd"
)

func TestEmitRunLifecycle_Success(t *testing.T) {
	start := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	run := &model.RunResult{
		Job:             model.JobOrder,
		SchemaVersion:   model.SchemaV2,
		Status:          model.RunStatusSuccess,
		RowsExtracted:   12,
		RowsTransformed: 12,
		RowsLoaded:      12,
		StartedAt:       start,
		FinishedAt:      start.Add(3 * time.Second),
	}

	var rec statsd.Recorder
	EmitRunLifecycle(&rec, RunMetricFrom(run, nil))

	runs := rec.Named(MetricRun)
	require.Len(t, runs, 1)
	assert.Equal(t, map[string]string{
		"job":        "order",
		"schema":     "v2",
		"transition": TransitionCompleted,
		"result":     ResultSuccess,
	}, runs[0].Tags)

	durations := rec.Named(MetricRunDuration)
	require.Len(t, durations, 1)
	assert.InDelta(t, 3000, durations[0].Value, 0.001)

	rows := rec.Named(MetricRows)
	require.Len(t, rows, 3, "deduplicated stage has zero rows and is skipped")
	assert.Equal(t, StageExtracted, rows[0].Tags["stage"])
	assert.Equal(t, StageLoaded, rows[2].Tags["stage"])
}

func TestEmitRunLifecycle_Failure(t *testing.T) {
	run := &model.RunResult{
		Job:        model.JobPayment,
		Status:     model.RunStatusFailed,
		Partial:    true,
		RowsLoaded: 1000,
	}
	err := apperrors.Database(assert.AnError, "load payment_analytics")

	var rec statsd.Recorder
	EmitRunLifecycle(&rec, RunMetricFrom(run, err))

	runs := rec.Named(MetricRun)
	require.Len(t, runs, 1)
	assert.Equal(t, TransitionFailed, runs[0].Tags["transition"])
	assert.Equal(t, ResultPartial, runs[0].Tags["result"])
	assert.Equal(t, "database", runs[0].Tags["error_class"])
	assert.NotContains(t, runs[0].Tags, "schema")
	assert.Empty(t, rec.Named(MetricRunDuration))
}

func TestEmitRunLifecycle_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitRunLifecycle(nil, RunMetric{Job: model.JobUser, Transition: TransitionStarted})
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"job": "user"}
	cp := CloneTags(src)
	cp["job"] = "order"
	assert.Equal(t, "user", src["job"])
}
