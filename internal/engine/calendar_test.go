package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/engine"
)

func day(day, hour, minute int) time.Time {
	return time.Date(2026, 6, day, hour, minute, 0, 0, time.UTC)
}

func TestInTradingWindow(t *testing.T) {
	assert.True(t, engine.InTradingWindow(day(1, 9, 30)))   // Monday open
	assert.True(t, engine.InTradingWindow(day(1, 10, 45)))  // mid-morning
	assert.True(t, engine.InTradingWindow(day(1, 13, 0)))   // afternoon open
	assert.True(t, engine.InTradingWindow(day(1, 14, 59)))  // before close
	assert.False(t, engine.InTradingWindow(day(1, 11, 30))) // morning close is exclusive
	assert.False(t, engine.InTradingWindow(day(1, 12, 0)))  // lunch break
	assert.False(t, engine.InTradingWindow(day(1, 15, 0)))  // closed
	assert.False(t, engine.InTradingWindow(day(1, 8, 0)))   // pre-open
	assert.False(t, engine.InTradingWindow(day(6, 10, 0)))  // Saturday
	assert.False(t, engine.InTradingWindow(day(7, 10, 0)))  // Sunday
}

func TestSnapToTradingWindow_SaturdayToMonday(t *testing.T) {
	snapped, ok := engine.SnapToTradingWindow(day(6, 14, 0)) // Saturday afternoon
	require.True(t, ok)
	assert.Equal(t, day(8, 9, 30), snapped) // Monday 09:30
}

func TestSnapToTradingWindow_InsideWindowUnchanged(t *testing.T) {
	ts := day(1, 10, 15)
	snapped, ok := engine.SnapToTradingWindow(ts)
	require.True(t, ok)
	assert.Equal(t, ts, snapped)
}

func TestSnapToTradingWindow_LunchToAfternoon(t *testing.T) {
	snapped, ok := engine.SnapToTradingWindow(day(1, 12, 10))
	require.True(t, ok)
	assert.Equal(t, day(1, 13, 0), snapped)
}

func TestSnapToTradingWindow_AfterCloseToNextMorning(t *testing.T) {
	snapped, ok := engine.SnapToTradingWindow(day(1, 16, 0))
	require.True(t, ok)
	assert.Equal(t, day(2, 9, 30), snapped)
}

func TestSnapToTradingWindow_FridayEveningToMonday(t *testing.T) {
	snapped, ok := engine.SnapToTradingWindow(day(5, 18, 0)) // Friday after close
	require.True(t, ok)
	assert.Equal(t, day(8, 9, 30), snapped)
}

func TestNextTradingTime_StepsWithinSession(t *testing.T) {
	next, ok := engine.NextTradingTime(day(1, 9, 30), time.Hour)
	require.True(t, ok)
	assert.Equal(t, day(1, 10, 30), next)

	// 10:30 + 1h = 11:30, outside the morning window → 13:00.
	next, ok = engine.NextTradingTime(day(1, 10, 30), time.Hour)
	require.True(t, ok)
	assert.Equal(t, day(1, 13, 0), next)

	// 14:00 + 1h = 15:00, closed → next day 09:30.
	next, ok = engine.NextTradingTime(day(1, 14, 0), time.Hour)
	require.True(t, ok)
	assert.Equal(t, day(2, 9, 30), next)
}
