package ports

import (
	"context"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
)

// PaymentConfirmer reports a finished payment back to the order authority.
// A false result with a nil error means the order was not found.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID string) (bool, error)
}

// Service runs the payment simulation.
type Service interface {
	// ProcessPayment waits for the simulated gateway and then confirms.
	ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error)
	// Confirm performs only the confirmation step.
	Confirm(ctx context.Context, orderID string) (domain.Outcome, error)
}

// PaymentOrchestrator decides where a payment runs: in-process or as a durable workflow.
type PaymentOrchestrator interface {
	ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error)
}
