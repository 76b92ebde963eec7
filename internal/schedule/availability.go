package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/pkg/clock"
	"github.com/glowclinic/booking-api/pkg/errors"
)

// Years accepted by the calendar view.
const (
	MinCalendarYear = 2024
	MaxCalendarYear = 2030
)

// bookingLeadHours is the buffer applied to same-day bookings: a slot whose
// hour is at or before the current hour plus this buffer is already past.
const bookingLeadHours = 1

// SlotDetail classifies one slot for a single day.
type SlotDetail struct {
	Time        string `json:"time"`
	IsBooked    bool   `json:"is_booked"`
	IsPastTime  bool   `json:"is_past_time"`
	IsAvailable bool   `json:"is_available"`
}

// DayAvailability is the single-day view for one location.
type DayAvailability struct {
	Date           string       `json:"date"`
	Location       string       `json:"location"`
	SlotDetails    []SlotDetail `json:"slot_details"`
	AvailableSlots []string     `json:"available_slots"`
}

// DayOverview classifies one calendar day in the month view.
type DayOverview struct {
	IsPast             bool `json:"is_past"`
	IsAvailable        bool `json:"is_available"`
	AvailableSlotCount int  `json:"available_slot_count"`
	TotalSlotCount     int  `json:"total_slot_count"`
	FullyBooked        bool `json:"fully_booked"`
}

// occupiedSlots collects the slot times held by bookings that still occupy
// their slot. Cancelled, completed and no-show bookings free the slot.
func occupiedSlots(bookings []*model.Booking) map[string]bool {
	occupied := make(map[string]bool)
	for _, b := range bookings {
		switch b.Status {
		case model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusInProgress:
			occupied[b.AppointmentTime] = true
		}
	}
	return occupied
}

// ComputeDayAvailability classifies every slot of the given clinic-local date.
// The existing bookings must already be scoped to the same date and location.
func ComputeDayAvailability(clk clock.Clock, date time.Time, location string, existing []*model.Booking) DayAvailability {
	now := clk.Now()
	isToday := clock.SameDay(clk, now, date)
	occupied := occupiedSlots(existing)

	result := DayAvailability{
		Date:     date.Format("2006-01-02"),
		Location: location,
	}

	for _, slot := range DailySlots() {
		hour, _ := strconv.Atoi(slot[:2])
		detail := SlotDetail{
			Time:       slot,
			IsBooked:   occupied[slot],
			IsPastTime: isToday && hour <= now.Hour()+bookingLeadHours,
		}
		detail.IsAvailable = !detail.IsBooked && !detail.IsPastTime

		result.SlotDetails = append(result.SlotDetails, detail)
		if detail.IsAvailable {
			result.AvailableSlots = append(result.AvailableSlots, slot)
		}
	}

	return result
}

// ComputeMonthAvailability classifies every calendar day of the month.
// bookingsByDay maps "2006-01-02" keys to that day's bookings for the
// location. Days before the clinic-local today are marked past without
// slot-level detail; the same-day lead-time filter does not apply here since
// whole days are being classified.
func ComputeMonthAvailability(clk clock.Clock, year, month int, bookingsByDay map[string][]*model.Booking) (map[string]DayOverview, error) {
	if year < MinCalendarYear || year > MaxCalendarYear {
		return nil, errors.Validationf("year must be between %d and %d", MinCalendarYear, MaxCalendarYear)
	}
	if month < 1 || month > 12 {
		return nil, errors.Validation("month must be between 1 and 12")
	}

	today := clock.Today(clk)
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, clk.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	total := TotalSlotCount()

	overview := make(map[string]DayOverview, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		day := time.Date(year, time.Month(month), d, 0, 0, 0, 0, clk.Location())
		key := day.Format("2006-01-02")

		if day.Before(today) {
			overview[key] = DayOverview{IsPast: true}
			continue
		}

		available := total - len(occupiedSlots(bookingsByDay[key]))
		overview[key] = DayOverview{
			IsAvailable:        available > 0,
			AvailableSlotCount: available,
			TotalSlotCount:     total,
			FullyBooked:        available == 0,
		}
	}

	return overview, nil
}

// ParseSlot validates an "HH:MM" value against the slot catalog.
func ParseSlot(hhmm string) error {
	for _, s := range DailySlots() {
		if s == hhmm {
			return nil
		}
	}
	return errors.Validationf("invalid appointment time %q: clinic slots run hourly from %02d:00 to %02d:00", hhmm, openingHour, closingHour)
}

// ParseDate parses a "2006-01-02" calendar date in the clinic timezone.
func ParseDate(clk clock.Clock, value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, clk.Location())
	if err != nil {
		return time.Time{}, errors.Validation(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", value))
	}
	return t, nil
}
