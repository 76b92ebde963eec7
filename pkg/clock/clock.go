package clock

import (
	"fmt"
	"time"
)

// Clock provides the current time in the clinic's timezone. Services take a
// Clock instead of calling time.Now so tests can pin the wall clock.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// New returns a wall clock for the given IANA timezone name.
func New(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Today returns midnight of the current clinic-local day.
func Today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location())
}

// SameDay reports whether two instants fall on the same clinic-local calendar day.
func SameDay(c Clock, a, b time.Time) bool {
	a = a.In(c.Location())
	b = b.In(c.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// CombineDateTime resolves a calendar date plus an "HH:MM" slot into a single
// instant in the clinic timezone.
func CombineDateTime(c Clock, date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	date = date.In(c.Location())
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, c.Location()), nil
}

// Manual is a fixed clock for tests. It is not safe for concurrent use.
type Manual struct {
	Current time.Time
}

// NewManual pins the clock to the given instant.
func NewManual(t time.Time) *Manual {
	return &Manual{Current: t}
}

func (m *Manual) Now() time.Time {
	return m.Current
}

func (m *Manual) Location() *time.Location {
	return m.Current.Location()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.Current = m.Current.Add(d)
}
