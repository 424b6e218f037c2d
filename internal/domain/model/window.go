package model

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// DateLayout is the CLI and report date format.
const DateLayout = "2006-01-02"

// Window is a half-open extraction interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow returns a Window or a validation error when start is not before end.
func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, apperrors.Validationf(
			"window start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339),
		)
	}
	return Window{Start: start, End: end}, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, apperrors.Validationf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PreviousDay returns the full day before ref.
func PreviousDay(ref time.Time) Window {
	today := StartOfDay(ref)
	return Window{Start: today.AddDate(0, 0, -1), End: today}
}

// PreviousHour returns the full hour before ref.
func PreviousHour(ref time.Time) Window {
	thisHour := ref.Truncate(time.Hour)
	return Window{Start: thisHour.Add(-time.Hour), End: thisHour}
}

// DaysBack returns [end-days, end).
func DaysBack(end time.Time, days int) (Window, error) {
	if days <= 0 {
		return Window{}, apperrors.Validationf("days back must be positive, got %d", days)
	}
	return NewWindow(end.AddDate(0, 0, -days), end)
}

// Duration returns End-Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// SplitDays cuts the window into consecutive windows of at most days days.
func (w Window) SplitDays(days int) ([]Window, error) {
	if days <= 0 {
		return nil, apperrors.Validationf("batch days must be positive, got %d", days)
	}
	var out []Window
	for cur := w.Start; cur.Before(w.End); {
		next := cur.AddDate(0, 0, days)
		if next.After(w.End) {
			next = w.End
		}
		out = append(out, Window{Start: cur, End: next})
		cur = next
	}
	return out, nil
}

// String renders whole-day windows as dates and everything else as RFC 3339.
func (w Window) String() string {
	if w.Start.Equal(StartOfDay(w.Start)) && w.End.Equal(StartOfDay(w.End)) {
		return fmt.Sprintf("%s..%s", w.Start.Format(DateLayout), w.End.Format(DateLayout))
	}
	return fmt.Sprintf("%s..%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Params returns the window as start_date/end_date bind parameters.
func (w Window) Params() Params {
	return Params{"start_date": w.Start, "end_date": w.End}
}
