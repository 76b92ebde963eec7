package order

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/reference"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.PharmacyOrder
	events []*model.OutboxEvent

	// duplicateRefs makes the next n creates fail with a reference conflict.
	duplicateRefs int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.PharmacyOrder)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.PharmacyOrder, evt *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicateRefs > 0 {
		r.duplicateRefs--
		return repository.ErrDuplicateReference
	}
	cp := *o
	r.orders[o.ID] = &cp
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *model.PharmacyOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, p model.Pagination) ([]*model.PharmacyOrder, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PharmacyOrder
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func newOrderService(t *testing.T, repo *fakeOrderRepo) *Service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clk := clock.NewManual(time.Date(2026, 3, 15, 9, 0, 0, 0, loc))
	refGen := reference.NewGeneratorWithRand(clk, func(int) int { return 42 })
	return NewService(repo, refGen, logger.NewLogger(nil))
}

func createRequest() *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		Items: []model.OrderItemRequest{
			{Name: "Vitamin C Serum", Quantity: 2, UnitPrice: 799.50},
			{Name: "SPF 50 Sunscreen", Quantity: 1, UnitPrice: 450},
		},
		ShippingAddress: "221B Residency Road, Bengaluru 560025",
	}
}

func TestCreateOrderComputesTotal(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo)
	userID := uuid.New()

	o, err := svc.Create(context.Background(), userID, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORD202603151042", o.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.InDelta(t, 2*799.50+450, o.TotalAmount, 0.001)
	assert.Equal(t, userID, o.UserID)

	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventOrderCreated, repo.events[0].EventType)
}

func TestCreateOrderRetriesOnDuplicateNumber(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.duplicateRefs = 2
	svc := newOrderService(t, repo)

	o, err := svc.Create(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, o.OrderNumber)
}

func TestCreateOrderGivesUpAfterRetries(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.duplicateRefs = 3
	svc := newOrderService(t, repo)

	_, err := svc.Create(context.Background(), uuid.New(), createRequest())
	require.Error(t, err)
}

func TestGetOrderOwnership(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo)
	userID := uuid.New()

	o, err := svc.Create(context.Background(), userID, createRequest())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), userID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = svc.Get(context.Background(), uuid.New(), o.ID)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	_, err = svc.Get(context.Background(), userID, uuid.New())
	require.Error(t, err)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestUpdateStatusTransitions(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo)

	o, err := svc.Create(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)

	// pending cannot jump straight to shipped.
	_, err = svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusShipped)
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))

	for _, next := range []model.OrderStatus{
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	} {
		got, err := svc.UpdateStatus(context.Background(), o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	// delivered is terminal.
	_, err = svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, apperrors.IsGuard(err))
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatus("misplaced"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo)

	o, err := svc.Create(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)

	got, err := svc.UpdateStatus(context.Background(), o.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
}
