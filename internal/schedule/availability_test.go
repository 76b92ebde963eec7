package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/pkg/clock"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func bookingAt(slot string, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		Base:            model.Base{ID: uuid.New()},
		AppointmentTime: slot,
		Status:          status,
	}
}

func TestDailySlots(t *testing.T) {
	slots := DailySlots()
	assert.Len(t, slots, 10)
	assert.Equal(t, "10:00", slots[0])
	assert.Equal(t, "19:00", slots[len(slots)-1])
	assert.Equal(t, 10, TotalSlotCount())
}

func TestDayAvailabilityFutureDate(t *testing.T) {
	loc := kolkata(t)
	clk := clock.NewManual(time.Date(2026, 3, 10, 9, 0, 0, 0, loc))
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)

	result := ComputeDayAvailability(clk, date, "koramangala", nil)

	assert.Equal(t, "2026-03-15", result.Date)
	assert.Len(t, result.AvailableSlots, 10)
	for _, d := range result.SlotDetails {
		assert.False(t, d.IsPastTime)
		assert.False(t, d.IsBooked)
		assert.True(t, d.IsAvailable)
	}
}

func TestDayAvailabilitySameDayLeadTime(t *testing.T) {
	loc := kolkata(t)
	// 14:30 today: slots up to and including 15:00 are past.
	clk := clock.NewManual(time.Date(2026, 3, 15, 14, 30, 0, 0, loc))
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)

	result := ComputeDayAvailability(clk, date, "koramangala", nil)

	past := make(map[string]bool)
	for _, d := range result.SlotDetails {
		past[d.Time] = d.IsPastTime
	}
	assert.True(t, past["10:00"])
	assert.True(t, past["14:00"])
	assert.True(t, past["15:00"])
	assert.False(t, past["16:00"])
	assert.False(t, past["19:00"])
	assert.Equal(t, []string{"16:00", "17:00", "18:00", "19:00"}, result.AvailableSlots)
}

func TestDayAvailabilityOccupiedStatuses(t *testing.T) {
	loc := kolkata(t)
	clk := clock.NewManual(time.Date(2026, 3, 10, 9, 0, 0, 0, loc))
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)

	existing := []*model.Booking{
		bookingAt("10:00", model.BookingStatusPending),
		bookingAt("11:00", model.BookingStatusConfirmed),
		bookingAt("12:00", model.BookingStatusInProgress),
		bookingAt("13:00", model.BookingStatusCancelled),
		bookingAt("14:00", model.BookingStatusCompleted),
		bookingAt("15:00", model.BookingStatusNoShow),
	}

	result := ComputeDayAvailability(clk, date, "koramangala", existing)

	booked := make(map[string]bool)
	for _, d := range result.SlotDetails {
		booked[d.Time] = d.IsBooked
	}
	assert.True(t, booked["10:00"])
	assert.True(t, booked["11:00"])
	assert.True(t, booked["12:00"])
	// Terminal bookings free the slot.
	assert.False(t, booked["13:00"])
	assert.False(t, booked["14:00"])
	assert.False(t, booked["15:00"])
}

func TestMonthAvailability(t *testing.T) {
	loc := kolkata(t)
	clk := clock.NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	full := make([]*model.Booking, 0, 10)
	for _, slot := range DailySlots() {
		full = append(full, bookingAt(slot, model.BookingStatusConfirmed))
	}
	byDay := map[string][]*model.Booking{
		"2026-03-20": {bookingAt("10:00", model.BookingStatusConfirmed)},
		"2026-03-21": full,
	}

	overview, err := ComputeMonthAvailability(clk, 2026, 3, byDay)
	require.NoError(t, err)
	assert.Len(t, overview, 31)

	assert.True(t, overview["2026-03-14"].IsPast)
	assert.False(t, overview["2026-03-14"].IsAvailable)
	assert.Equal(t, 0, overview["2026-03-14"].TotalSlotCount)

	// Today is never past, even with most slots gone by the clock.
	assert.False(t, overview["2026-03-15"].IsPast)

	partial := overview["2026-03-20"]
	assert.True(t, partial.IsAvailable)
	assert.Equal(t, 9, partial.AvailableSlotCount)
	assert.False(t, partial.FullyBooked)

	booked := overview["2026-03-21"]
	assert.False(t, booked.IsAvailable)
	assert.Equal(t, 0, booked.AvailableSlotCount)
	assert.True(t, booked.FullyBooked)
}

func TestMonthAvailabilityYearBounds(t *testing.T) {
	loc := kolkata(t)
	clk := clock.NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	_, err := ComputeMonthAvailability(clk, 2023, 3, nil)
	assert.Error(t, err)

	_, err = ComputeMonthAvailability(clk, 2031, 3, nil)
	assert.Error(t, err)

	_, err = ComputeMonthAvailability(clk, 2026, 13, nil)
	assert.Error(t, err)

	_, err = ComputeMonthAvailability(clk, 2030, 12, nil)
	assert.NoError(t, err)
}

func TestParseSlot(t *testing.T) {
	assert.NoError(t, ParseSlot("10:00"))
	assert.NoError(t, ParseSlot("19:00"))
	assert.Error(t, ParseSlot("09:00"))
	assert.Error(t, ParseSlot("20:00"))
	assert.Error(t, ParseSlot("10:30"))
	assert.Error(t, ParseSlot("1000"))
}

func TestParseDate(t *testing.T) {
	loc := kolkata(t)
	clk := clock.NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	d, err := ParseDate(clk, "2026-04-01")
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 2026, d.Year())

	_, err = ParseDate(clk, "01-04-2026")
	assert.Error(t, err)
}
