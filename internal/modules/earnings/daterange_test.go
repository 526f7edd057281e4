package earnings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	r, err := NewDateRange(
		time.Date(2026, 3, 2, 15, 4, 5, 0, loc),
		time.Date(2026, 3, 4, 1, 0, 0, 0, loc),
		loc,
	)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), r.Start)
	assert.Equal(t, time.Date(2026, 3, 4, 23, 59, 59, 999000000, loc), r.End)

	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.Start.Add(-time.Millisecond)))
	assert.False(t, r.Contains(r.End.Add(time.Millisecond)))
}

func TestDateRangeSameDay(t *testing.T) {
	day := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r, err := NewDateRange(day, day, time.UTC)
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)))
}

func TestDateRangeErrorsAndOpenEnds(t *testing.T) {
	_, err := NewDateRange(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), nil)
	assert.ErrorIs(t, err, ErrInvalidRange)

	var zero DateRange
	assert.True(t, zero.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))

	r, err := ParseDateRange("2026-05-01", "", time.UTC)
	require.NoError(t, err)
	assert.True(t, r.End.IsZero())
	assert.True(t, r.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)))

	_, err = ParseDateRange("05/01/2026", "", time.UTC)
	assert.Error(t, err)
}
