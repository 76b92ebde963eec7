package schedule

import "fmt"

// Clinic operating hours. One bookable slot per hour, first at open, last at
// close inclusive.
const (
	openingHour = 10
	closingHour = 19
)

// DailySlots returns the ordered set of bookable "HH:MM" slots for one
// operating day. The catalog is fixed: locations and treatments do not alter
// slot granularity.
func DailySlots() []string {
	slots := make([]string, 0, closingHour-openingHour+1)
	for h := openingHour; h <= closingHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// TotalSlotCount is the daily capacity per location.
func TotalSlotCount() int {
	return closingHour - openingHour + 1
}
