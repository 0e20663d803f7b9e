package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
)

// ErrInvalidInput signals a product that violates catalog rules.
var ErrInvalidInput = errors.New("invalid product input")

// Service implements the product catalog use cases.
type Service struct {
	repo  ports.Repository
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateProduct(ctx context.Context, cmd ports.CreateProductCommand) (*domain.Product, error) {
	product, err := domain.NewProduct(s.newID(), cmd.Name, cmd.Price, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, ports.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: %q", ports.ErrDuplicateName, product.Name)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product.Clone(), nil
}

// GetProduct returns ports.ErrNotFound for unknown ids.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ports.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ListProducts orders by creation time, then id.
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

var _ ports.Service = (*Service)(nil)
