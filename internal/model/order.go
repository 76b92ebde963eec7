package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions lists the legal status moves for pharmacy orders.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a purchased pharmacy item. The medicine catalog
// itself lives outside this service; items arrive fully described.
type OrderItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderItems is stored as jsonb.
type OrderItems []OrderItem

func (l OrderItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *OrderItems) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for OrderItems: %T", src)
	}
	return json.Unmarshal(data, l)
}

// PharmacyOrder is a pharmacy purchase with a generated order number.
type PharmacyOrder struct {
	Base
	OrderNumber     string      `db:"order_number" json:"order_number"`
	UserID          uuid.UUID   `db:"user_id" json:"user_id"`
	Items           OrderItems  `db:"items" json:"items"`
	TotalAmount     float64     `db:"total_amount" json:"total_amount"`
	Status          OrderStatus `db:"status" json:"status"`
	ShippingAddress string      `db:"shipping_address" json:"shipping_address"`
}

type OrderItemRequest struct {
	Name      string  `json:"name" binding:"required,max=200"`
	Quantity  int     `json:"quantity" binding:"required,min=1,max=50"`
	UnitPrice float64 `json:"unit_price" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" binding:"required,min=10,max=500"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
