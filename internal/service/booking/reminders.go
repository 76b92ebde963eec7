package booking

import (
	"context"
	"time"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
)

// reminderWindows bands the lead time before the appointment into
// half-open intervals (floor, lead]. Each kind fires only inside its own
// band: once the 1-hour band is reached the 12-hour reminder is stale and
// is not sent.
var reminderWindows = []struct {
	kind  model.ReminderKind
	lead  time.Duration
	floor time.Duration
}{
	{model.ReminderKind12Hour, 12 * time.Hour, time.Hour},
	{model.ReminderKind1Hour, time.Hour, 0},
}

// SendReminders dispatches due appointment reminders for confirmed bookings.
// A reminder of a given kind is sent at most once per booking: the log entry
// is appended only after a successful send, so failures are retried on the
// next pass. Returns the number of reminders sent keyed by kind.
func (s *Service) SendReminders(ctx context.Context) (map[model.ReminderKind]int, error) {
	now := s.clk.Now()
	today := clock.Today(s.clk)
	tomorrow := today.AddDate(0, 0, 1)

	bookings, err := s.repo.ListConfirmedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	sent := make(map[model.ReminderKind]int)
	for _, b := range bookings {
		at, err := s.appointmentAt(b)
		if err != nil {
			s.logger.Error(err, "skipping reminder for booking with bad slot", "booking", b.BookingReference)
			continue
		}
		lead := at.Sub(now)
		if lead <= 0 {
			continue
		}

		for _, w := range reminderWindows {
			if lead > w.lead || lead <= w.floor || b.RemindersSent.Contains(w.kind) {
				continue
			}
			if err := s.emailSvc.SendReminder(ctx, b, w.kind); err != nil {
				s.logger.Error(err, "reminder dispatch failed", "booking", b.BookingReference, "kind", string(w.kind))
				continue
			}

			b.RemindersSent = append(b.RemindersSent, model.ReminderEntry{Kind: w.kind, SentAt: now})
			if err := s.repo.AppendReminder(ctx, b.ID, b.RemindersSent); err != nil {
				s.logger.Error(err, "failed to record reminder", "booking", b.BookingReference, "kind", string(w.kind))
				continue
			}
			sent[w.kind]++
		}
	}

	return sent, nil
}
