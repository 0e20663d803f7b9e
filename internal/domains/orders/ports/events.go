package ports

import (
	"context"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
)

// EventPublisher announces newly created orders.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}
