// Package notify defines run-failure notifications and the sinks that deliver them.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// RunFailurePayload captures the canonical data we emit for a failed ETL run.
type RunFailurePayload struct {
	RunID         string
	Job           string
	SchemaVersion string
	Window        string
	Partial       bool
	RowsLoaded    int
	Error         string
	ErrorClass    string
	Severity      string
	OccurredAt    time.Time
	Metadata      map[string]string
}

// DedupKey groups repeated failures of the same job and window into one incident.
func (p RunFailurePayload) DedupKey() string {
	switch {
	case p.Job != "" && p.Window != "":
		return "etl:" + p.Job + ":" + p.Window
	case p.Job != "":
		return "etl:" + p.Job + ":" + p.RunID
	default:
		return "etl:" + p.RunID
	}
}

// Sink describes a destination capable of consuming run failure notifications.
type Sink interface {
	SendRunFailure(ctx context.Context, payload RunFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload RunFailurePayload) error

// SendRunFailure implements the Sink interface.
func (f SinkFunc) SendRunFailure(ctx context.Context, payload RunFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
