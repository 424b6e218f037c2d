package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseDate(t *testing.T) {
	d := day(t, "2024-03-05")
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	_, err := ParseDate("03/05/2024")
	assert.True(t, apperrors.IsValidation(err))
}

func TestNewWindow(t *testing.T) {
	start := day(t, "2024-01-01")

	_, err := NewWindow(start, start)
	assert.True(t, apperrors.IsValidation(err))

	_, err = NewWindow(start.AddDate(0, 0, 1), start)
	assert.Error(t, err)

	w, err := NewWindow(start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, w.Duration())
}

func TestPreviousDayAndHour(t *testing.T) {
	ref := time.Date(2024, 1, 2, 13, 45, 0, 0, time.UTC)

	w := PreviousDay(ref)
	assert.Equal(t, "2024-01-01..2024-01-02", w.String())

	h := PreviousHour(ref)
	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), h.Start)
	assert.Equal(t, time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC), h.End)
	assert.Equal(t, "2024-01-02T12:00:00Z..2024-01-02T13:00:00Z", h.String())
}

func TestDaysBack(t *testing.T) {
	end := day(t, "2024-01-10")

	w, err := DaysBack(end, 3)
	require.NoError(t, err)
	assert.Equal(t, day(t, "2024-01-07"), w.Start)

	_, err = DaysBack(end, 0)
	assert.Error(t, err)
}

func TestWindow_Contains(t *testing.T) {
	w := Window{Start: day(t, "2024-01-01"), End: day(t, "2024-01-02")}

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.End), "end is exclusive")
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
}

func TestWindow_SplitDays(t *testing.T) {
	w := Window{Start: day(t, "2024-01-01"), End: day(t, "2024-01-17")}

	parts, err := w.SplitDays(7)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "2024-01-01..2024-01-08", parts[0].String())
	assert.Equal(t, "2024-01-08..2024-01-15", parts[1].String())
	assert.Equal(t, "2024-01-15..2024-01-17", parts[2].String())

	for i := 1; i < len(parts); i++ {
		assert.Equal(t, parts[i-1].End, parts[i].Start, "windows are contiguous")
	}

	_, err = w.SplitDays(0)
	assert.Error(t, err)

	empty, err := Window{}.SplitDays(1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWindow_Params(t *testing.T) {
	w := Window{Start: day(t, "2024-01-01"), End: day(t, "2024-01-02")}
	p := w.Params()
	assert.Equal(t, w.Start, p["start_date"])
	assert.Equal(t, w.End, p["end_date"])
	assert.False(t, w.IsZero())
	assert.True(t, Window{}.IsZero())
}
