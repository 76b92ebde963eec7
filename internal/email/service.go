package email

import (
	"context"
	"time"

	"github.com/glowclinic/booking-api/internal/model"
)

// Service sends transactional mail. Every call is best-effort: callers fire
// it from a goroutine, log the error, and never let it fail the primary
// operation.
type Service interface {
	SendLoginOTP(ctx context.Context, to, code string) error
	SendBookingConfirmation(ctx context.Context, b *model.Booking) error
	SendBookingCancellation(ctx context.Context, b *model.Booking) error
	SendBookingReschedule(ctx context.Context, b *model.Booking) error
	SendCheckoutOTP(ctx context.Context, b *model.Booking, code string, eligibleAt time.Time) error
	SendReminder(ctx context.Context, b *model.Booking, kind model.ReminderKind) error
}

// Noop discards all mail. Used in tests and local development.
type Noop struct{}

func (Noop) SendLoginOTP(context.Context, string, string) error            { return nil }
func (Noop) SendBookingConfirmation(context.Context, *model.Booking) error { return nil }
func (Noop) SendBookingCancellation(context.Context, *model.Booking) error { return nil }
func (Noop) SendBookingReschedule(context.Context, *model.Booking) error   { return nil }
func (Noop) SendCheckoutOTP(context.Context, *model.Booking, string, time.Time) error {
	return nil
}
func (Noop) SendReminder(context.Context, *model.Booking, model.ReminderKind) error { return nil }
