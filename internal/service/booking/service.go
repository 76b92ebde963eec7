package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/email"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
	"github.com/glowclinic/booking-api/internal/schedule"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/reference"
)

// Business-time constants of the appointment lifecycle. These are rules of
// the clinic floor, not execution timeouts.
const (
	checkInEarlyWindow  = 15 * time.Minute
	checkInLateWindow   = 60 * time.Minute
	checkoutDelay       = 20 * time.Minute
	noShowGrace         = 30 * time.Minute
	maxReschedules      = 1
	referenceAttempts   = 3
	emailDispatchBudget = 15 * time.Second
)

type Service struct {
	repo          repository.BookingRepository
	treatmentRepo repository.TreatmentRepository
	emailSvc      email.Service
	clk           clock.Clock
	refGen        *reference.Generator
	logger        *logger.Logger
}

func NewService(
	repo repository.BookingRepository,
	treatmentRepo repository.TreatmentRepository,
	emailSvc email.Service,
	clk clock.Clock,
	refGen *reference.Generator,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		treatmentRepo: treatmentRepo,
		emailSvc:      emailSvc,
		clk:           clk,
		refGen:        refGen,
		logger:        logger,
	}
}

// dispatchEmail runs a mail send in the background. Failures are logged and
// swallowed: mail must never fail or delay a booking operation.
func (s *Service) dispatchEmail(op string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchBudget)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error(err, "email dispatch failed", "op", op)
		}
	}()
}

func eventPayload(b *model.Booking) json.RawMessage {
	payload, _ := json.Marshal(map[string]interface{}{
		"booking_id":        b.ID,
		"booking_reference": b.BookingReference,
		"user_id":           b.UserID,
		"treatment_id":      b.TreatmentID,
		"location":          b.Location,
		"appointment_date":  b.AppointmentDate.Format("2006-01-02"),
		"appointment_time":  b.AppointmentTime,
		"status":            b.Status,
	})
	return payload
}

func bookingEvent(eventType string, b *model.Booking) *model.OutboxEvent {
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   eventPayload(b),
	}
}

// CreateBooking validates the request, snapshots customer and treatment
// details, and persists a confirmed appointment with a fresh reference.
func (s *Service) CreateBooking(ctx context.Context, userID uuid.UUID, req *model.CreateBookingRequest) (*model.Booking, error) {
	if !model.IsValidLocation(req.Location) {
		return nil, apperrors.Validationf("invalid location %q", req.Location)
	}
	if err := schedule.ParseSlot(req.AppointmentTime); err != nil {
		return nil, err
	}
	date, err := schedule.ParseDate(s.clk, req.AppointmentDate)
	if err != nil {
		return nil, err
	}

	treatment, err := s.treatmentRepo.Get(ctx, req.TreatmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("treatment")
		}
		return nil, apperrors.Internal(err)
	}
	if !treatment.Active {
		return nil, apperrors.Guard("this treatment is currently unavailable")
	}
	if !treatment.Locations.Contains(req.Location) {
		return nil, apperrors.Guardf("%s is not offered at the %s branch", treatment.Name, req.Location)
	}

	appointmentAt, err := clock.CombineDateTime(s.clk, date, req.AppointmentTime)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !appointmentAt.After(s.clk.Now()) {
		return nil, apperrors.Guard("appointment must be scheduled for a future time")
	}

	taken, err := s.repo.SlotTaken(ctx, req.Location, date, req.AppointmentTime, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.Guard("this slot is no longer available")
	}

	b := &model.Booking{
		Base:                 model.Base{ID: uuid.New()},
		UserID:               userID,
		CustomerName:         req.PersonalDetails.Name,
		CustomerMobile:       req.PersonalDetails.Mobile,
		CustomerEmail:        req.PersonalDetails.Email,
		TreatmentID:          treatment.ID,
		TreatmentName:        treatment.Name,
		TreatmentCategory:    treatment.Category,
		TreatmentPrice:       treatment.Price,
		TreatmentDurationMin: treatment.DurationMin,
		Location:             req.Location,
		AppointmentDate:      date,
		AppointmentTime:      req.AppointmentTime,
		Status:               model.BookingStatusConfirmed,
		PaymentStatus:        model.PaymentStatusPending,
		PaymentMethod:        req.PaymentMethod,
		TotalAmount:          treatment.Price,
		RemindersSent:        model.ReminderLog{},
	}

	// References collide rarely; the UNIQUE constraint catches when they do.
	var createErr error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		b.BookingReference = s.refGen.Generate(reference.BookingPrefix)
		createErr = s.repo.Create(ctx, b, bookingEvent(model.EventBookingCreated, b))
		if createErr == nil {
			break
		}
		if !errors.Is(createErr, repository.ErrDuplicateReference) {
			return nil, apperrors.Internal(createErr)
		}
	}
	if createErr != nil {
		return nil, apperrors.Internal(fmt.Errorf("could not allocate a booking reference: %w", createErr))
	}

	s.dispatchEmail("booking_confirmation", func(ctx context.Context) error {
		return s.emailSvc.SendBookingConfirmation(ctx, b)
	})

	return b, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// loadOwned fetches a booking and verifies the caller owns it.
func (s *Service) loadOwned(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, apperrors.Internal(err)
	}
	if b.UserID != userID {
		return nil, apperrors.Forbidden("you do not have access to this booking")
	}
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, userID, id uuid.UUID) (*model.Booking, error) {
	return s.loadOwned(ctx, userID, id)
}

func (s *Service) ListUserBookings(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.Booking, int, error) {
	p.Normalize()
	bookings, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return bookings, total, nil
}

func (s *Service) ListBookings(ctx context.Context, filters *model.BookingFilters, p model.Pagination) ([]*model.Booking, int, error) {
	p.Normalize()
	bookings, total, err := s.repo.List(ctx, filters, p)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return bookings, total, nil
}

// DeleteBooking removes a booking record. Only cancelled bookings may be
// deleted; everything else stays for the audit trail.
func (s *Service) DeleteBooking(ctx context.Context, userID, id uuid.UUID) error {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if b.Status != model.BookingStatusCancelled {
		return apperrors.Guard("only cancelled bookings can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// GetDayAvailability classifies every slot of one clinic day at a location.
func (s *Service) GetDayAvailability(ctx context.Context, dateStr, location string) (*schedule.DayAvailability, error) {
	if !model.IsValidLocation(location) {
		return nil, apperrors.Validationf("invalid location %q", location)
	}
	date, err := schedule.ParseDate(s.clk, dateStr)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListForDay(ctx, location, date)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := schedule.ComputeDayAvailability(s.clk, date, location, existing)
	return &result, nil
}

// GetMonthAvailability classifies every day of a calendar month at a location.
func (s *Service) GetMonthAvailability(ctx context.Context, year, month int, location string) (map[string]schedule.DayOverview, error) {
	if !model.IsValidLocation(location) {
		return nil, apperrors.Validationf("invalid location %q", location)
	}
	if year < schedule.MinCalendarYear || year > schedule.MaxCalendarYear {
		return nil, apperrors.Validationf("year must be between %d and %d", schedule.MinCalendarYear, schedule.MaxCalendarYear)
	}
	if month < 1 || month > 12 {
		return nil, apperrors.Validation("month must be between 1 and 12")
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.clk.Location())
	last := first.AddDate(0, 1, -1)

	bookings, err := s.repo.ListForRange(ctx, location, first, last)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	byDay := make(map[string][]*model.Booking)
	for _, b := range bookings {
		key := b.AppointmentDate.Format("2006-01-02")
		byDay[key] = append(byDay[key], b)
	}

	return schedule.ComputeMonthAvailability(s.clk, year, month, byDay)
}
