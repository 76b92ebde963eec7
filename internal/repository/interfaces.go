package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
)

// ErrDuplicateReference is returned by create operations when the generated
// booking reference or order number collides with an existing row. Callers
// regenerate and retry.
var ErrDuplicateReference = errors.New("duplicate reference")

// BookingRepository persists appointments. Mutations optionally write an
// outbox event in the same transaction.
type BookingRepository interface {
	Create(ctx context.Context, b *model.Booking, evt *model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	Update(ctx context.Context, b *model.Booking, evt *model.OutboxEvent) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.Booking, int, error)
	List(ctx context.Context, filters *model.BookingFilters, p model.Pagination) ([]*model.Booking, int, error)

	// Availability reads, scoped to one location.
	ListForDay(ctx context.Context, location string, date time.Time) ([]*model.Booking, error)
	ListForRange(ctx context.Context, location string, from, to time.Time) ([]*model.Booking, error)

	// SlotTaken reports whether an active booking already holds the slot.
	SlotTaken(ctx context.Context, location string, date time.Time, slot string, excludeID *uuid.UUID) (bool, error)

	// No-show sweep support. Candidates are confirmed, never-checked-in
	// bookings with appointment_date at or before maxDate; the per-booking
	// guard is re-evaluated inside MarkNoShow's UPDATE.
	ListNoShowCandidates(ctx context.Context, maxDate time.Time) ([]*model.Booking, error)
	MarkNoShow(ctx context.Context, id uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error)

	// Reminder support.
	ListConfirmedBetween(ctx context.Context, fromDate, toDate time.Time) ([]*model.Booking, error)
	AppendReminder(ctx context.Context, id uuid.UUID, log model.ReminderLog) error
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type TreatmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
	List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.PharmacyOrder, evt *model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error)
	Update(ctx context.Context, o *model.PharmacyOrder) error
	ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.PharmacyOrder, int, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
