package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

// Service orchestrates order use cases.
type Service struct {
	repo      ports.Repository
	catalog   ports.ProductCatalog
	publisher ports.EventPublisher
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(repo ports.Repository, catalog ports.ProductCatalog, publisher ports.EventPublisher, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates the request, snapshots each product, stores the
// pending order and only then publishes OrderCreated. Nothing is stored when
// validation fails. A publish failure is returned to the caller with the
// order already stored.
func (s *Service) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, mapError(domain.ErrEmptyOrder)
	}

	products, err := s.resolveProducts(ctx, cmd.Items)
	if err != nil {
		return nil, mapError(err)
	}

	lines := make([]domain.Line, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		product := products[item.ProductID]
		line, err := domain.NewLine(product.ID, product.Name, item.Quantity, product.Price)
		if err != nil {
			return nil, mapError(err)
		}
		lines = append(lines, line)
	}

	order, err := domain.NewOrder(s.newID(), s.now().UTC(), lines)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: order %s: %w", ErrPublishFailed, order.ID, err)
	}
	return order.Clone(), nil
}

// resolveProducts looks up each distinct product once, sequentially, in input order.
func (s *Service) resolveProducts(ctx context.Context, items []ports.OrderItemInput) (map[string]ports.Product, error) {
	products := make(map[string]ports.Product, len(items))
	for _, item := range items {
		if _, seen := products[item.ProductID]; seen {
			continue
		}
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if errors.Is(err, ports.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if err != nil {
			return nil, fmt.Errorf("lookup product %s: %w", item.ProductID, err)
		}
		if product.ID == "" {
			product.ID = item.ProductID
		}
		products[item.ProductID] = product
	}
	return products, nil
}

// ConfirmPayment marks the order paid. Unknown orders yield false, not an error.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string) (bool, error) {
	if strings.TrimSpace(orderID) == "" {
		return false, nil
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	order.MarkPaid()
	if err := s.repo.Save(ctx, order); err != nil {
		return false, fmt.Errorf("save order: %w", err)
	}
	return true, nil
}

// GetOrders lists orders oldest first.
func (s *Service) GetOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *Service) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

var _ ports.Service = (*Service)(nil)
