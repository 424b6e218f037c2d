// Package failurenotifier fans run failures out to the configured notification sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches run failure events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
	}
}

// NotifyRunFailure fans the payload out to all sinks and waits for every delivery.
// Runs stopped by the operator (error class "canceled") are not reported.
func (s *Service) NotifyRunFailure(ctx context.Context, payload notify.RunFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if payload.ErrorClass == string(apperrors.ErrCodeCanceled) {
		s.logger.DebugContext(ctx, "skipping notification for canceled run",
			"run_id", payload.RunID,
			"job", payload.Job,
		)
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
		if payload.ErrorClass == string(apperrors.ErrCodeConflict) {
			payload.Severity = notify.SeverityWarning
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendRunFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"run_id", payload.RunID,
					"job", payload.Job,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
