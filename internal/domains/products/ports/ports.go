package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
)

var (
	// ErrNotFound is returned when a product id does not resolve.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when another product already uses the name, ignoring case.
	ErrDuplicateName = errors.New("product name already exists")
)

// Repository persists products.
type Repository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
}

// CreateProductCommand is the input of CreateProduct.
type CreateProductCommand struct {
	Name  string
	Price decimal.Decimal
}

// Service is the product catalog use-case boundary.
type Service interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}
