package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrPublishFailed signals the order was stored but OrderCreated could not be published.
	ErrPublishFailed = errors.New("order created event could not be published")
)

// ProductNotFoundError names the product that could not be resolved.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ports.ErrProductNotFound
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyOrder) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, ports.ErrProductNotFound) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
