package booking

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/schedule"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/otp"
)

// appointmentAt resolves the booking's scheduled instant in clinic time.
func (s *Service) appointmentAt(b *model.Booking) (time.Time, error) {
	at, err := clock.CombineDateTime(s.clk, b.AppointmentDate, b.AppointmentTime)
	if err != nil {
		return time.Time{}, apperrors.Internal(err)
	}
	return at, nil
}

// CheckIn transitions a confirmed booking to in-progress. It is only allowed
// inside the check-in window: 15 minutes before the appointment up to 60
// minutes after. On success a checkout OTP is generated, stored and mailed.
func (s *Service) CheckIn(ctx context.Context, userID, id uuid.UUID) (*model.CheckInResponse, error) {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if b.CheckedIn {
		return nil, apperrors.Guard("you are already checked in for this appointment")
	}
	if b.Status != model.BookingStatusConfirmed {
		return nil, apperrors.Guardf("cannot check in: booking is %s", b.Status)
	}

	appointmentAt, err := s.appointmentAt(b)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	windowOpen := appointmentAt.Add(-checkInEarlyWindow)
	windowClose := appointmentAt.Add(checkInLateWindow)
	if now.Before(windowOpen) {
		return nil, apperrors.Guardf("check-in opens at %s, 15 minutes before your appointment", windowOpen.Format("15:04"))
	}
	if now.After(windowClose) {
		return nil, apperrors.Guard("the check-in window for this appointment has closed")
	}

	code := otp.Generate()
	checkInTime := now
	eligibleAt := checkInTime.Add(checkoutDelay)

	b.Status = model.BookingStatusInProgress
	b.CheckedIn = true
	b.CheckInTime = &checkInTime
	b.CheckoutOTP = &code
	b.CheckOutEligibleTime = &eligibleAt
	b.CanCheckOut = false

	if err := s.repo.Update(ctx, b, bookingEvent(model.EventBookingCheckedIn, b)); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dispatchEmail("checkout_otp", func(ctx context.Context) error {
		return s.emailSvc.SendCheckoutOTP(ctx, b, code, eligibleAt)
	})

	return &model.CheckInResponse{
		BookingReference:     b.BookingReference,
		CheckInTime:          checkInTime,
		CheckOutEligibleTime: eligibleAt,
		OTP:                  code,
	}, nil
}

// checkoutGuards validates the shared preconditions of both checkout paths.
func checkoutGuards(b *model.Booking) error {
	if !b.CheckedIn {
		return apperrors.Guard("cannot check out: you have not checked in")
	}
	if b.CheckedOut {
		return apperrors.Guard("this appointment is already checked out")
	}
	return nil
}

func (s *Service) completeCheckout(ctx context.Context, b *model.Booking, adminID *uuid.UUID) error {
	now := s.clk.Now()
	b.Status = model.BookingStatusCompleted
	b.CheckedOut = true
	b.CheckOutTime = &now
	b.CanCheckOut = true
	b.CheckoutOTP = nil
	b.AdminCheckout = adminID

	if err := s.repo.Update(ctx, b, bookingEvent(model.EventBookingCompleted, b)); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// SelfCheckout completes an in-progress booking once 20 minutes have elapsed
// since check-in.
func (s *Service) SelfCheckout(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error) {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := checkoutGuards(b); err != nil {
		return nil, err
	}

	eligibleAt := b.CheckInTime.Add(checkoutDelay)
	now := s.clk.Now()
	if now.Before(eligibleAt) {
		remaining := int(math.Ceil(eligibleAt.Sub(now).Minutes()))
		return nil, apperrors.Guardf("self-checkout is not available yet: please wait %d more minute(s)", remaining)
	}

	if err := s.completeCheckout(ctx, b, nil); err != nil {
		return nil, err
	}
	return b, nil
}

// StaffCheckout completes an in-progress booking immediately when the
// customer presents the checkout OTP. The OTP is single-use: it is cleared on
// success, so a replay fails.
func (s *Service) StaffCheckout(ctx context.Context, id uuid.UUID, code string, adminID uuid.UUID) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkoutGuards(b); err != nil {
		return nil, err
	}

	if b.CheckoutOTP == nil || *b.CheckoutOTP != code {
		return nil, apperrors.Guard("invalid checkout code")
	}

	if err := s.completeCheckout(ctx, b, &adminID); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel moves a pending or confirmed booking to cancelled. A reason is
// required so the clinic can follow up.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID, reason string) (*model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < 5 || len(reason) > 500 {
		return nil, apperrors.Validation("cancellation reason must be between 5 and 500 characters")
	}

	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case model.BookingStatusPending, model.BookingStatusConfirmed:
		// cancellable
	default:
		return nil, apperrors.Guardf("cannot cancel a booking that is %s", b.Status)
	}

	b.Status = model.BookingStatusCancelled
	b.CancellationReason = &reason

	if err := s.repo.Update(ctx, b, bookingEvent(model.EventBookingCancelled, b)); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dispatchEmail("booking_cancellation", func(ctx context.Context) error {
		return s.emailSvc.SendBookingCancellation(ctx, b)
	})

	return b, nil
}

// Reschedule moves a booking to a new future slot. A booking may be
// rescheduled at most once over its lifetime; the prior slot is snapshotted.
func (s *Service) Reschedule(ctx context.Context, userID, id uuid.UUID, req *model.RescheduleBookingRequest) (*model.Booking, error) {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case model.BookingStatusCompleted, model.BookingStatusCancelled, model.BookingStatusNoShow:
		return nil, apperrors.Guardf("cannot reschedule a booking that is %s", b.Status)
	}
	if b.RescheduleCount >= maxReschedules {
		return nil, apperrors.Guard("this booking can only be rescheduled once")
	}

	if err := schedule.ParseSlot(req.AppointmentTime); err != nil {
		return nil, err
	}
	newDate, err := schedule.ParseDate(s.clk, req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	newAt, err := clock.CombineDateTime(s.clk, newDate, req.AppointmentTime)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !newAt.After(s.clk.Now()) {
		return nil, apperrors.Guard("the new appointment time must be in the future")
	}

	taken, err := s.repo.SlotTaken(ctx, b.Location, newDate, req.AppointmentTime, &b.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.Guard("this slot is no longer available")
	}

	now := s.clk.Now()
	prevDate := b.AppointmentDate
	prevTime := b.AppointmentTime

	b.RescheduledFromDate = &prevDate
	b.RescheduledFromTime = &prevTime
	b.RescheduledAt = &now
	b.AppointmentDate = newDate
	b.AppointmentTime = req.AppointmentTime
	b.RescheduleCount++
	b.Status = model.BookingStatusConfirmed

	if err := s.repo.Update(ctx, b, bookingEvent(model.EventBookingRescheduled, b)); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dispatchEmail("booking_reschedule", func(ctx context.Context) error {
		return s.emailSvc.SendBookingReschedule(ctx, b)
	})

	return b, nil
}

// Rate records a 1-5 rating with optional feedback on a completed booking.
func (s *Service) Rate(ctx context.Context, userID, id uuid.UUID, rating int, feedback string) (*model.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingStatusCompleted {
		return nil, apperrors.Guard("only completed appointments can be rated")
	}

	b.Rating = &rating
	if feedback != "" {
		b.Feedback = &feedback
	}

	if err := s.repo.Update(ctx, b, nil); err != nil {
		return nil, apperrors.Internal(err)
	}
	return b, nil
}

// MarkNoShows sweeps confirmed bookings whose appointment time passed more
// than 30 minutes ago without a check-in and marks them no-show. The sweep is
// idempotent and best-effort: each booking is processed independently, and
// the per-row guard inside MarkNoShow skips bookings that checked in after
// the candidate read.
func (s *Service) MarkNoShows(ctx context.Context) (int64, error) {
	now := s.clk.Now()
	cutoff := now.Add(-noShowGrace)

	candidates, err := s.repo.ListNoShowCandidates(ctx, clock.Today(s.clk))
	if err != nil {
		return 0, apperrors.Internal(err)
	}

	var marked int64
	for _, b := range candidates {
		at, err := s.appointmentAt(b)
		if err != nil {
			s.logger.Error(err, "skipping no-show candidate with bad slot", "booking", b.BookingReference)
			continue
		}
		if !at.Before(cutoff) {
			continue
		}

		b.Status = model.BookingStatusNoShow
		ok, err := s.repo.MarkNoShow(ctx, b.ID, now, bookingEvent(model.EventBookingNoShow, b))
		if err != nil {
			s.logger.Error(err, "failed to mark no-show", "booking", b.BookingReference)
			continue
		}
		if ok {
			marked++
		}
	}

	return marked, nil
}

// load fetches a booking without an ownership check (staff paths).
func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, apperrors.Internal(err)
	}
	return b, nil
}
