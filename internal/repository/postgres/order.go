package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
)

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{NewBaseRepository(db)}
}

func (r *orderRepository) Create(ctx context.Context, o *model.PharmacyOrder, evt *model.OutboxEvent) error {
	query := `
		INSERT INTO pharmacy_orders (
			id, order_number, user_id, items, total_amount, status,
			shipping_address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			o.ID, o.OrderNumber, o.UserID, o.Items, o.TotalAmount,
			o.Status, o.ShippingAddress, o.CreatedAt, o.UpdatedAt,
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
			return fmt.Errorf("order number %s: %w", o.OrderNumber, repository.ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	query := `
		SELECT id, order_number, user_id, items, total_amount, status,
			   shipping_address, created_at, updated_at
		FROM pharmacy_orders WHERE id = $1
	`
	var o model.PharmacyOrder
	if err := r.db.GetContext(ctx, &o, query, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *model.PharmacyOrder) error {
	query := `
		UPDATE pharmacy_orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	o.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, o.Status, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.PharmacyOrder, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pharmacy_orders WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `
		SELECT id, order_number, user_id, items, total_amount, status,
			   shipping_address, created_at, updated_at
		FROM pharmacy_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var orders []*model.PharmacyOrder
	if err := r.db.SelectContext(ctx, &orders, query, userID, p.PageSize, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}
