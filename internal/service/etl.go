package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/dedup"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/pii"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/transform"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
	obserrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/errors"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/metrics"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/notify"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/statsd"
)

const defaultLockTTL = 2 * time.Hour

// ETLPorts are the storage-facing dependencies of ETLService.
type ETLPorts struct {
	Router   core.QueryRouter     // Required
	Executor core.QueryExecutor   // Required
	Loader   core.WarehouseLoader // Required
	Runs     core.RunRepository   // Optional: run history is not recorded when nil
	Locker   core.RunLocker       // Optional: runs are not locked when nil
	Clock    core.TimeProvider    // Optional: defaults to UTC wall clock
}

// ETLSettings are the per-process inputs that shape every run.
type ETLSettings struct {
	Flags     model.FeatureFlagSet
	Tokenizer *pii.Tokenizer // Required for v2 runs
	LockTTL   time.Duration
	// Metadata is attached to failure notifications, e.g. environment=production.
	Metadata map[string]string
}

// ETLObservers receive logs, metrics and failure notifications.
type ETLObservers struct {
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier runFailureNotifier
}

type runFailureNotifier interface {
	NotifyRunFailure(ctx context.Context, payload notify.RunFailurePayload)
}

// ETLServiceOptions groups dependencies for ETLService.
type ETLServiceOptions struct {
	Ports     ETLPorts
	Settings  ETLSettings
	Observers ETLObservers
}

// ETLService runs one analytics job over one window: route, bind, extract, transform, load, record.
type ETLService struct {
	ports    ETLPorts
	settings ETLSettings
	logger   *slog.Logger
	metrics  statsd.Sink
	notifier runFailureNotifier
}

var _ core.JobRunner = (*ETLService)(nil)

// NewETLService constructs an ETLService.
func NewETLService(opts ETLServiceOptions) *ETLService {
	if opts.Ports.Router == nil {
		panic("QueryRouter is required")
	}
	if opts.Ports.Executor == nil {
		panic("QueryExecutor is required")
	}
	if opts.Ports.Loader == nil {
		panic("WarehouseLoader is required")
	}
	if opts.Ports.Clock == nil {
		opts.Ports.Clock = utcClock{}
	}
	if opts.Settings.LockTTL <= 0 {
		opts.Settings.LockTTL = defaultLockTTL
	}

	logger := opts.Observers.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ETLService{
		ports:    opts.Ports,
		settings: opts.Settings,
		logger:   logger.With("component", "etl"),
		metrics:  opts.Observers.Metrics,
		notifier: opts.Observers.Notifier,
	}
}

// Run executes one job. The returned RunResult is never nil; on failure it carries
// the counts reached before the error, and Partial is set when rows were committed.
func (s *ETLService) Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error) {
	run := &model.RunResult{
		ID:        uuid.NewString(),
		Job:       req.Job,
		Window:    req.Window,
		DryRun:    req.DryRun,
		StartedAt: s.ports.Clock.Now(),
	}

	log := s.logger.With("run_id", run.ID, "job", req.Job, "window", req.Window.String())
	log.InfoContext(ctx, "etl run started", "dry_run", req.DryRun)
	metrics.EmitRunLifecycle(s.metrics, metrics.RunMetric{
		Job:        req.Job,
		Transition: metrics.TransitionStarted,
		Result:     metrics.ResultSuccess,
		DryRun:     req.DryRun,
	})

	err := s.execute(ctx, req, run, log)

	run.FinishedAt = s.ports.Clock.Now()
	run.Status = model.RunStatusSuccess
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		run.ErrorCode = string(apperrors.GetCode(err))
	}

	s.record(ctx, req, run, log)
	metrics.EmitRunLifecycle(s.metrics, metrics.RunMetricFrom(run, err))

	if err != nil {
		log.ErrorContext(ctx, "etl run failed",
			"error", err,
			"error_class", obserrors.Classify(err),
			"partial", run.Partial,
			"records_loaded", run.RowsLoaded,
		)
		s.notify(ctx, run, err)
		return run, err
	}

	log.InfoContext(ctx, "etl run completed",
		"schema_version", run.SchemaVersion,
		"records_extracted", run.RowsExtracted,
		"records_deduplicated", run.RowsDeduplicated,
		"records_transformed", run.RowsTransformed,
		"records_loaded", run.RowsLoaded,
		"duration", run.Duration(),
	)
	return run, nil
}

func (s *ETLService) execute(ctx context.Context, req model.RunRequest, run *model.RunResult, log *slog.Logger) error {
	job, err := model.LookupJob(req.Job)
	if err != nil {
		return err
	}
	if !req.Window.Start.Before(req.Window.End) {
		return apperrors.Parameter("start_date", fmt.Sprintf("window %s is empty", req.Window))
	}

	variant, err := s.ports.Router.Route(req.Job, s.settings.Flags)
	if err != nil {
		return fmt.Errorf("route %s: %w", req.Job, err)
	}
	run.SchemaVersion = variant.Version
	run.Query = variant.Name

	policy, err := s.policyFor(job, variant.Version)
	if err != nil {
		return err
	}

	params := job.DefaultParams.With(req.Window.Params()).With(req.Params)

	if !req.DryRun {
		release, lockErr := s.lock(ctx, req, run.ID)
		if lockErr != nil {
			return lockErr
		}
		defer release()
	}

	rows, err := s.ports.Executor.Execute(ctx, variant, params)
	if err != nil {
		return fmt.Errorf("extract %s: %w", variant.Name, err)
	}
	run.RowsExtracted = len(rows)
	if len(rows) > 0 {
		log.DebugContext(ctx, "extracted sample", "row", pii.SafeFields(rows[0]))
	}

	outputs, err := s.transform(job, variant.Version, policy, rows, run)
	if err != nil {
		return err
	}

	if req.DryRun {
		log.InfoContext(ctx, "dry run: skipping load", "tables", len(outputs))
		return nil
	}

	for _, out := range outputs {
		res, loadErr := s.ports.Loader.Upsert(ctx, out.Table, out.Rows)
		run.RowsLoaded += res.Loaded
		if loadErr != nil {
			run.Partial = res.Partial || run.RowsLoaded > 0
			return fmt.Errorf("load %s: %w", out.Table.Name, loadErr)
		}
		log.DebugContext(ctx, "table loaded", "table", out.Table.Name, "rows", res.Loaded, "batches", res.Batches)
	}
	return nil
}

// runPolicy is the row handling resolved from the flags before any query runs.
type runPolicy struct {
	pii   *pii.Policy
	dedup dedup.Options
}

// policyFor resolves the PII and dedup flags with Lookup, so a missing flag fails the run.
func (s *ETLService) policyFor(job model.AnalyticsJob, version model.SchemaVersion) (runPolicy, error) {
	mode, err := pii.ModeFor(version, s.settings.Flags)
	if err != nil {
		return runPolicy{}, err
	}
	policy, err := pii.NewPolicy(mode, s.settings.Tokenizer)
	if err != nil {
		return runPolicy{}, apperrors.ConfigurationField("PII_TOKENIZATION_SALT", err.Error())
	}
	opts, err := dedup.OptionsFor(s.settings.Flags, job.Target.KeyColumns)
	if err != nil {
		return runPolicy{}, err
	}
	return runPolicy{pii: policy, dedup: opts}, nil
}

func (s *ETLService) transform(
	job model.AnalyticsJob,
	version model.SchemaVersion,
	policy runPolicy,
	rows []model.ResultRow,
	run *model.RunResult,
) ([]transform.Output, error) {
	if err := transform.GuardRows(version, rows); err != nil {
		return nil, err
	}

	handled := make([]model.ResultRow, len(rows))
	for i, row := range rows {
		handled[i] = policy.pii.Apply(row)
	}

	unique, removed, err := dedup.New(policy.dedup).Deduplicate(handled)
	if err != nil {
		return nil, fmt.Errorf("deduplicate: %w", err)
	}
	run.RowsDeduplicated = removed

	outputs, err := transform.Apply(job, version, unique)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	run.RowsTransformed = len(outputs[0].Rows)
	return outputs, nil
}

// lock takes the distributed job/window lock. The returned release func never fails the run.
func (s *ETLService) lock(ctx context.Context, req model.RunRequest, token string) (func(), error) {
	if s.ports.Locker == nil {
		return func() {}, nil
	}

	key := core.RunLockKey(req.Job, req.Window)
	ok, err := s.ports.Locker.Acquire(ctx, key, token, s.settings.LockTTL)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "acquire run lock %s", key)
	}
	if !ok {
		return nil, apperrors.Conflictf("job %s is already running for %s", req.Job, req.Window)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		released, relErr := s.ports.Locker.Release(releaseCtx, key, token)
		switch {
		case relErr != nil:
			s.logger.WarnContext(ctx, "release run lock failed", "key", key, "error", relErr)
		case !released:
			s.logger.WarnContext(ctx, "run lock expired before release", "key", key)
		}
	}, nil
}

// record writes the run to history. Dry runs, unknown jobs and empty windows are not recorded.
func (s *ETLService) record(ctx context.Context, req model.RunRequest, run *model.RunResult, log *slog.Logger) {
	if s.ports.Runs == nil || req.DryRun || !req.Job.Valid() || !req.Window.Start.Before(req.Window.End) {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.ports.Runs.Record(recordCtx, run); err != nil {
		log.ErrorContext(ctx, "record run failed", "error", err)
	}
}

func (s *ETLService) notify(ctx context.Context, run *model.RunResult, err error) {
	if s.notifier == nil {
		return
	}
	class := obserrors.Classify(err)
	if errors.Is(err, context.Canceled) {
		class = string(apperrors.ErrCodeCanceled)
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	s.notifier.NotifyRunFailure(notifyCtx, notify.RunFailurePayload{
		RunID:         run.ID,
		Job:           string(run.Job),
		SchemaVersion: string(run.SchemaVersion),
		Window:        run.Window.String(),
		Partial:       run.Partial,
		RowsLoaded:    run.RowsLoaded,
		Error:         run.Error,
		ErrorClass:    class,
		OccurredAt:    run.FinishedAt,
		Metadata:      s.settings.Metadata,
	})
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }
