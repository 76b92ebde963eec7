package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/reference"
)

const referenceAttempts = 3

// Service handles pharmacy orders. Items arrive as fully-described snapshots;
// totals are computed server-side and never trusted from the client.
type Service struct {
	repo   repository.OrderRepository
	refGen *reference.Generator
	logger *logger.Logger
}

func NewService(repo repository.OrderRepository, refGen *reference.Generator, logger *logger.Logger) *Service {
	return &Service{repo: repo, refGen: refGen, logger: logger}
}

func orderEvent(o *model.PharmacyOrder) *model.OutboxEvent {
	payload, _ := json.Marshal(map[string]interface{}{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"user_id":      o.UserID,
		"total_amount": o.TotalAmount,
		"status":       o.Status,
	})
	return &model.OutboxEvent{
		EventType: model.EventOrderCreated,
		Payload:   payload,
	}
}

// Create places a new order in pending status.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *model.CreateOrderRequest) (*model.PharmacyOrder, error) {
	items := make(model.OrderItems, 0, len(req.Items))
	var total float64
	for _, it := range req.Items {
		items = append(items, model.OrderItem{
			Name:      strings.TrimSpace(it.Name),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
		total += float64(it.Quantity) * it.UnitPrice
	}

	o := &model.PharmacyOrder{
		Base:            model.Base{ID: uuid.New()},
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
	}

	var createErr error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		o.OrderNumber = s.refGen.Generate(reference.OrderPrefix)
		createErr = s.repo.Create(ctx, o, orderEvent(o))
		if createErr == nil {
			break
		}
		if !errors.Is(createErr, repository.ErrDuplicateReference) {
			return nil, apperrors.Internal(createErr)
		}
	}
	if createErr != nil {
		return nil, apperrors.Internal(fmt.Errorf("could not allocate an order number: %w", createErr))
	}

	return o, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*model.PharmacyOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("order")
		}
		return nil, apperrors.Internal(err)
	}
	if o.UserID != userID {
		return nil, apperrors.Forbidden("you do not have access to this order")
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.PharmacyOrder, int, error) {
	p.Normalize()
	orders, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return orders, total, nil
}

// UpdateStatus advances an order through its fulfilment states. Illegal moves
// are rejected with the current status spelled out.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.PharmacyOrder, error) {
	switch next {
	case model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return nil, apperrors.Validationf("unknown order status %q", next)
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("order")
		}
		return nil, apperrors.Internal(err)
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, apperrors.Guardf("cannot move a %s order to %s", o.Status, next)
	}

	o.Status = next
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, apperrors.Internal(err)
	}
	return o, nil
}
