package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New("Not/AZone")
	assert.Error(t, err)
}

func TestCombineDateTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clk := NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	date := time.Date(2026, 3, 20, 0, 0, 0, 0, loc)
	at, err := CombineDateTime(clk, date, "14:00")
	require.NoError(t, err)
	assert.Equal(t, 14, at.Hour())
	assert.Equal(t, 20, at.Day())
	assert.Equal(t, loc, at.Location())

	_, err = CombineDateTime(clk, date, "2pm")
	assert.Error(t, err)
}

func TestSameDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clk := NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	a := time.Date(2026, 3, 15, 0, 1, 0, 0, loc)
	b := time.Date(2026, 3, 15, 23, 59, 0, 0, loc)
	c := time.Date(2026, 3, 16, 0, 1, 0, 0, loc)

	assert.True(t, SameDay(clk, a, b))
	assert.False(t, SameDay(clk, b, c))
}

func TestManualAdvance(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clk := NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	clk.Advance(45 * time.Minute)
	assert.Equal(t, 9, clk.Now().Hour())
	assert.Equal(t, 45, clk.Now().Minute())

	today := Today(clk)
	assert.Equal(t, 0, today.Hour())
	assert.Equal(t, 15, today.Day())
}
