package util //nolint:revive // package name util hosts shared formatting helpers used by the CLI reports

import "time"

// FormatRunDuration formats a run duration for tables.
// Returns "-" for unfinished runs (zero or negative), truncates to milliseconds otherwise.
func FormatRunDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
