package ports

import (
	"context"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
)

// OrderItemInput is one requested (product, quantity) pair.
type OrderItemInput struct {
	ProductID string
	Quantity  int32
}

// CreateOrderCommand carries the items of a new order.
type CreateOrderCommand struct {
	Items []OrderItemInput
}

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	// ConfirmPayment reports false without error when the order is unknown.
	ConfirmPayment(ctx context.Context, orderID string) (bool, error)
	GetOrders(ctx context.Context) ([]*domain.Order, error)
	// GetOrderByID returns nil without error when the order is unknown.
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
}
