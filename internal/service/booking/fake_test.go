package booking

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
)

// fakeBookingRepo is an in-memory BookingRepository for service tests.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
	events   []*model.OutboxEvent

	// duplicateRefs forces Create to fail with a reference conflict for the
	// first N attempts.
	duplicateRefs int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*model.Booking)}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func isActive(s model.BookingStatus) bool {
	switch s {
	case model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusInProgress:
		return true
	}
	return false
}

func (r *fakeBookingRepo) record(evt *model.OutboxEvent) {
	if evt != nil {
		r.events = append(r.events, evt)
	}
}

func (r *fakeBookingRepo) Create(_ context.Context, b *model.Booking, evt *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicateRefs > 0 {
		r.duplicateRefs--
		return repository.ErrDuplicateReference
	}
	cp := *b
	r.bookings[b.ID] = &cp
	r.record(evt)
	return nil
}

func (r *fakeBookingRepo) Get(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *model.Booking, evt *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *b
	r.bookings[b.ID] = &cp
	r.record(evt)
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID uuid.UUID, _ model.Pagination) ([]*model.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *fakeBookingRepo) List(_ context.Context, filters *model.BookingFilters, _ model.Pagination) ([]*model.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if filters != nil {
			if filters.Status != "" && b.Status != filters.Status {
				continue
			}
			if filters.Location != "" && b.Location != filters.Location {
				continue
			}
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeBookingRepo) ListForDay(_ context.Context, location string, date time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Location == location && sameDate(b.AppointmentDate, date) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListForRange(_ context.Context, location string, from, to time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Location != location {
			continue
		}
		if b.AppointmentDate.Before(from) || b.AppointmentDate.After(to) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBookingRepo) SlotTaken(_ context.Context, location string, date time.Time, slot string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.Location == location && sameDate(b.AppointmentDate, date) && b.AppointmentTime == slot && isActive(b.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ListNoShowCandidates(_ context.Context, maxDate time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Status == model.BookingStatusConfirmed && !b.CheckedIn && !b.AppointmentDate.After(maxDate) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkNoShow(_ context.Context, id uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	// Same guard the UPDATE re-checks in SQL.
	if b.Status != model.BookingStatusConfirmed || b.CheckedIn {
		return false, nil
	}
	b.Status = model.BookingStatusNoShow
	b.NoShowMarkedAt = &at
	r.record(evt)
	return true, nil
}

func (r *fakeBookingRepo) ListConfirmedBetween(_ context.Context, fromDate, toDate time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Status != model.BookingStatusConfirmed {
			continue
		}
		if b.AppointmentDate.Before(fromDate) || b.AppointmentDate.After(toDate) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBookingRepo) AppendReminder(_ context.Context, id uuid.UUID, log model.ReminderLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.RemindersSent = log
	return nil
}

// fakeTreatmentRepo serves a fixed catalog.
type fakeTreatmentRepo struct {
	treatments map[uuid.UUID]*model.Treatment
}

func newFakeTreatmentRepo(treatments ...*model.Treatment) *fakeTreatmentRepo {
	m := make(map[uuid.UUID]*model.Treatment)
	for _, t := range treatments {
		m[t.ID] = t
	}
	return &fakeTreatmentRepo{treatments: m}
}

func (r *fakeTreatmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, ok := r.treatments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (r *fakeTreatmentRepo) List(_ context.Context, _ *model.TreatmentFilters) ([]*model.Treatment, error) {
	var out []*model.Treatment
	for _, t := range r.treatments {
		out = append(out, t)
	}
	return out, nil
}
