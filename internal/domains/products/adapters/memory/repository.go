package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory product catalog.
type Repository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	byName   map[string]string
}

func NewRepository() *Repository {
	return &Repository{products: map[string]*domain.Product{}, byName: map[string]string{}}
}

func (r *Repository) Create(_ context.Context, product *domain.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	key := domain.NameKey(product.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[key]; taken {
		return ports.ErrDuplicateName
	}
	r.products[product.ID] = product.Clone()
	r.byName[key] = product.ID
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		out = append(out, product.Clone())
	}
	return out, nil
}
