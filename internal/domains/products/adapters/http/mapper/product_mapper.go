package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
)

// CreateProductRequest is the POST /products body.
type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Product is the transport shape of a catalog entry.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

func ToCommand(req CreateProductRequest) ports.CreateProductCommand {
	return ports.CreateProductCommand{Name: req.Name, Price: req.Price}
}

func FromDomainProduct(p *domain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, CreatedAt: p.CreatedAt}
}

func FromDomainProducts(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromDomainProduct(p))
	}
	return out
}
