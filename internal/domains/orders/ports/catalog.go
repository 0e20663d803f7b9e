package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned by a catalog when the product does not exist.
// Transport failures are reported as other errors.
var ErrProductNotFound = errors.New("product not found")

// Product is the snapshot the order service needs from the catalog.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// ProductCatalog looks products up synchronously.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}
