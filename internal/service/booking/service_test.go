package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowclinic/booking-api/internal/email"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/reference"
)

type testEnv struct {
	svc       *Service
	repo      *fakeBookingRepo
	clk       *clock.Manual
	treatment *model.Treatment
	userID    uuid.UUID
	mailer    email.Service
}

// newTestEnv pins the clock to 2026-03-15 09:00 clinic time.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clk := clock.NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))

	treatment := &model.Treatment{
		Base:        model.Base{ID: uuid.New()},
		Name:        "Hydra Facial",
		Category:    "skin",
		Price:       2500,
		DurationMin: 45,
		Locations:   model.StringList{"koramangala", "indiranagar"},
		Active:      true,
	}

	repo := newFakeBookingRepo()
	env := &testEnv{
		repo:      repo,
		clk:       clk,
		treatment: treatment,
		userID:    uuid.New(),
		mailer:    email.Noop{},
	}
	env.svc = NewService(
		repo,
		newFakeTreatmentRepo(treatment),
		env.mailer,
		clk,
		reference.NewGeneratorWithRand(clk, func(n int) int { return 42 }),
		logger.NewLogger(nil),
	)
	return env
}

func (e *testEnv) createRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		TreatmentID: e.treatment.ID,
		PersonalDetails: model.PersonalDetails{
			Name:   "Asha Rao",
			Mobile: "9876543210",
			Email:  "asha@example.com",
		},
		Location:        "koramangala",
		AppointmentDate: "2026-03-20",
		AppointmentTime: "14:00",
		PaymentMethod:   "upi",
	}
}

func (e *testEnv) mustCreate(t *testing.T) *model.Booking {
	t.Helper()
	b, err := e.svc.CreateBooking(context.Background(), e.userID, e.createRequest())
	require.NoError(t, err)
	return b
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)

	b := env.mustCreate(t)

	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "GLW202603151042", b.BookingReference)
	assert.Equal(t, "Hydra Facial", b.TreatmentName)
	assert.Equal(t, 2500.0, b.TotalAmount)
	assert.Equal(t, "Asha Rao", b.CustomerName)
	assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)

	require.Len(t, env.repo.events, 1)
	assert.Equal(t, model.EventBookingCreated, env.repo.events[0].EventType)
}

func TestCreateBookingSlotConflict(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreate(t)

	other := uuid.New()
	_, err := env.svc.CreateBooking(context.Background(), other, env.createRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))
	assert.Contains(t, err.Error(), "no longer available")
}

func TestCreateBookingRejectsPastSlot(t *testing.T) {
	env := newTestEnv(t)

	req := env.createRequest()
	req.AppointmentDate = "2026-03-14"
	_, err := env.svc.CreateBooking(context.Background(), env.userID, req)
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))
}

func TestCreateBookingRejectsInvalidSlot(t *testing.T) {
	env := newTestEnv(t)

	req := env.createRequest()
	req.AppointmentTime = "09:00"
	_, err := env.svc.CreateBooking(context.Background(), env.userID, req)
	assert.Error(t, err)

	req = env.createRequest()
	req.Location = "hsr-layout"
	_, err = env.svc.CreateBooking(context.Background(), env.userID, req)
	assert.Error(t, err)
}

func TestCreateBookingWrongBranchForTreatment(t *testing.T) {
	env := newTestEnv(t)

	req := env.createRequest()
	req.Location = "whitefield"
	_, err := env.svc.CreateBooking(context.Background(), env.userID, req)
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))
}

func TestCreateBookingRetriesOnDuplicateReference(t *testing.T) {
	env := newTestEnv(t)
	env.repo.duplicateRefs = 2

	b := env.mustCreate(t)
	assert.NotEmpty(t, b.BookingReference)
}

func TestCreateBookingGivesUpAfterRetries(t *testing.T) {
	env := newTestEnv(t)
	env.repo.duplicateRefs = 3

	_, err := env.svc.CreateBooking(context.Background(), env.userID, env.createRequest())
	assert.Error(t, err)
}

func TestGetBookingOwnership(t *testing.T) {
	env := newTestEnv(t)
	b := env.mustCreate(t)

	got, err := env.svc.GetBooking(context.Background(), env.userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = env.svc.GetBooking(context.Background(), uuid.New(), b.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	_, err = env.svc.GetBooking(context.Background(), env.userID, uuid.New())
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestDeleteBookingOnlyCancelled(t *testing.T) {
	env := newTestEnv(t)
	b := env.mustCreate(t)

	err := env.svc.DeleteBooking(context.Background(), env.userID, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))

	_, err = env.svc.Cancel(context.Background(), env.userID, b.ID, "change of plans")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteBooking(context.Background(), env.userID, b.ID))

	_, err = env.svc.GetBooking(context.Background(), env.userID, b.ID)
	assert.Error(t, err)
}

func TestDayAvailabilityReflectsBooking(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreate(t)

	day, err := env.svc.GetDayAvailability(context.Background(), "2026-03-20", "koramangala")
	require.NoError(t, err)

	assert.NotContains(t, day.AvailableSlots, "14:00")
	assert.Contains(t, day.AvailableSlots, "15:00")
	for _, d := range day.SlotDetails {
		if d.Time == "14:00" {
			assert.True(t, d.IsBooked)
			assert.False(t, d.IsAvailable)
		}
	}
}

func TestDayAvailabilityFreedByCancellation(t *testing.T) {
	env := newTestEnv(t)
	b := env.mustCreate(t)

	_, err := env.svc.Cancel(context.Background(), env.userID, b.ID, "change of plans")
	require.NoError(t, err)

	day, err := env.svc.GetDayAvailability(context.Background(), "2026-03-20", "koramangala")
	require.NoError(t, err)
	assert.Contains(t, day.AvailableSlots, "14:00")
}

func TestMonthAvailability(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreate(t)

	month, err := env.svc.GetMonthAvailability(context.Background(), 2026, 3, "koramangala")
	require.NoError(t, err)

	day := month["2026-03-20"]
	assert.False(t, day.IsPast)
	assert.Equal(t, 9, day.AvailableSlotCount)
	assert.False(t, day.FullyBooked)

	assert.True(t, month["2026-03-01"].IsPast)

	_, err = env.svc.GetMonthAvailability(context.Background(), 2031, 1, "koramangala")
	assert.Error(t, err)
}
