package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
)

const bookingColumns = `
	id, booking_reference, user_id,
	customer_name, customer_mobile, customer_email,
	treatment_id, treatment_name, treatment_category, treatment_price, treatment_duration_min,
	location, appointment_date, appointment_time, status,
	payment_status, payment_method, total_amount,
	reschedule_count, rescheduled_from_date, rescheduled_from_time, rescheduled_at,
	cancellation_reason,
	checked_in, check_in_time, checkout_otp, check_out_eligible_time, can_check_out,
	checked_out, check_out_time, admin_checkout,
	rating, feedback, no_show_marked_at, reminders_sent,
	created_at, updated_at`

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{NewBaseRepository(db)}
}

func (r *bookingRepository) Create(ctx context.Context, b *model.Booking, evt *model.OutboxEvent) error {
	query := `
		INSERT INTO bookings (
			id, booking_reference, user_id,
			customer_name, customer_mobile, customer_email,
			treatment_id, treatment_name, treatment_category, treatment_price, treatment_duration_min,
			location, appointment_date, appointment_time, status,
			payment_status, payment_method, total_amount,
			reschedule_count, checked_in, can_check_out, checked_out,
			reminders_sent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
	`
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			b.ID,
			b.BookingReference,
			b.UserID,
			b.CustomerName,
			b.CustomerMobile,
			b.CustomerEmail,
			b.TreatmentID,
			b.TreatmentName,
			b.TreatmentCategory,
			b.TreatmentPrice,
			b.TreatmentDurationMin,
			b.Location,
			b.AppointmentDate,
			b.AppointmentTime,
			b.Status,
			b.PaymentStatus,
			b.PaymentMethod,
			b.TotalAmount,
			b.RescheduleCount,
			b.CheckedIn,
			b.CanCheckOut,
			b.CheckedOut,
			b.RemindersSent,
			b.CreatedAt,
			b.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if evt != nil {
			if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
				return fmt.Errorf("failed to create outbox event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("booking reference %s: %w", b.BookingReference, repository.ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b model.Booking
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *model.Booking, evt *model.OutboxEvent) error {
	query := `
		UPDATE bookings SET
			appointment_date = $1, appointment_time = $2, status = $3,
			payment_status = $4, payment_method = $5,
			reschedule_count = $6, rescheduled_from_date = $7, rescheduled_from_time = $8, rescheduled_at = $9,
			cancellation_reason = $10,
			checked_in = $11, check_in_time = $12, checkout_otp = $13,
			check_out_eligible_time = $14, can_check_out = $15,
			checked_out = $16, check_out_time = $17, admin_checkout = $18,
			rating = $19, feedback = $20, no_show_marked_at = $21, reminders_sent = $22,
			updated_at = $23
		WHERE id = $24
	`
	b.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			b.AppointmentDate,
			b.AppointmentTime,
			b.Status,
			b.PaymentStatus,
			b.PaymentMethod,
			b.RescheduleCount,
			b.RescheduledFromDate,
			b.RescheduledFromTime,
			b.RescheduledAt,
			b.CancellationReason,
			b.CheckedIn,
			b.CheckInTime,
			b.CheckoutOTP,
			b.CheckOutEligibleTime,
			b.CanCheckOut,
			b.CheckedOut,
			b.CheckOutTime,
			b.AdminCheckout,
			b.Rating,
			b.Feedback,
			b.NoShowMarkedAt,
			b.RemindersSent,
			b.UpdatedAt,
			b.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		if evt != nil {
			if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
				return fmt.Errorf("failed to create outbox event: %w", err)
			}
		}
		return nil
	})
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.Booking, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $2 OFFSET $3`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, userID, p.PageSize, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters, p model.Pagination) ([]*model.Booking, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			where += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Location != "" {
			where += fmt.Sprintf(" AND location = $%d", argCount)
			args = append(args, filters.Location)
			argCount++
		}
		if filters.StartDate != nil {
			where += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, *filters.StartDate)
			argCount++
		}
		if filters.EndDate != nil {
			where += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, *filters.EndDate)
			argCount++
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := `SELECT` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY appointment_date DESC, appointment_time DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, p.PageSize, p.Offset())

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListForDay(ctx context.Context, location string, date time.Time) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE location = $1 AND appointment_date = $2
		ORDER BY appointment_time ASC`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, location, date); err != nil {
		return nil, fmt.Errorf("failed to list bookings for day: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListForRange(ctx context.Context, location string, from, to time.Time) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE location = $1 AND appointment_date >= $2 AND appointment_date <= $3
		ORDER BY appointment_date ASC, appointment_time ASC`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, location, from, to); err != nil {
		return nil, fmt.Errorf("failed to list bookings for range: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) SlotTaken(ctx context.Context, location string, date time.Time, slot string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE location = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status IN ('pending', 'confirmed', 'in-progress')
	`
	args := []interface{}{location, date, slot}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}
	query += ")"

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, args...); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

func (r *bookingRepository) ListNoShowCandidates(ctx context.Context, maxDate time.Time) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed'
		AND checked_in = FALSE
		AND appointment_date <= $1
		ORDER BY appointment_date ASC, appointment_time ASC`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, maxDate); err != nil {
		return nil, fmt.Errorf("failed to list no-show candidates: %w", err)
	}
	return bookings, nil
}

// MarkNoShow re-checks the sweep guard inside the UPDATE, so a booking whose
// check-in committed after the candidate read is skipped rather than
// clobbered.
func (r *bookingRepository) MarkNoShow(ctx context.Context, id uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'no-show', no_show_marked_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'confirmed' AND checked_in = FALSE
	`

	var marked bool
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, at, id)
		if err != nil {
			return fmt.Errorf("failed to mark no-show: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		marked = rows > 0
		if marked && evt != nil {
			if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
				return fmt.Errorf("failed to create outbox event: %w", err)
			}
		}
		return nil
	})
	return marked, err
}

func (r *bookingRepository) ListConfirmedBetween(ctx context.Context, fromDate, toDate time.Time) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed'
		AND appointment_date >= $1 AND appointment_date <= $2
		ORDER BY appointment_date ASC, appointment_time ASC`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, fromDate, toDate); err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) AppendReminder(ctx context.Context, id uuid.UUID, log model.ReminderLog) error {
	query := `UPDATE bookings SET reminders_sent = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, log, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	return nil
}
