package ports

import (
	"context"
	"errors"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository persists order aggregates. Save is an upsert of the whole
// aggregate; implementations must serialise writes to a single order.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}
