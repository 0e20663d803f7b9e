package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNameLength bounds product names, in characters.
const MaxNameLength = 200

var (
	ErrNameRequired = errors.New("product name is required")
	ErrNameTooLong  = errors.New("product name is too long")
	ErrInvalidPrice = errors.New("product price must be greater than zero")
	ErrInvalidID    = errors.New("product id is required")
)

// Product is a catalog entry referenced by order lines.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
}

// NewProduct trims and validates the name and requires a positive price.
func NewProduct(id, name string, price decimal.Decimal, createdAt time.Time) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	return &Product{ID: id, Name: name, Price: price, CreatedAt: createdAt}, nil
}

// NameKey is the case-insensitive uniqueness key of a product name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Clone returns a copy safe to hand across adapters.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
