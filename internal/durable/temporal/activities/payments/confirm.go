package payments

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
)

const (
	// ConfirmPaymentActivityName calls the confirmation bridge once.
	ConfirmPaymentActivityName = "payments.activities.ConfirmPayment"
	// OrderNotConfirmedErrorType marks a refused confirmation in the application error.
	OrderNotConfirmedErrorType = "OrderNotConfirmed"
)

// Activities groups the payment activities executed by the worker.
type Activities struct {
	service ports.Service
}

func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// ConfirmPayment reports the order as paid. A refusal is returned as a
// non-retryable application error so the workflow fails without retrying.
func (a *Activities) ConfirmPayment(ctx context.Context, orderID string) (domain.Outcome, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("payment activities not initialized", "orderId", orderID)
		return domain.Outcome{}, errors.New("payment activities not initialized")
	}
	info := activity.GetInfo(ctx)
	logger.Info("ConfirmPayment activity started", "orderId", orderID, "attempt", info.Attempt)
	outcome, err := a.service.Confirm(ctx, orderID)
	if err != nil {
		logger.Warn("ConfirmPayment activity failed", "orderId", orderID, "stage", string(outcome.Stage), "error", err)
		if outcome.Stage == domain.StageFailedTerminal {
			return outcome, temporal.NewNonRetryableApplicationError(err.Error(), OrderNotConfirmedErrorType, err)
		}
		return outcome, err
	}
	logger.Info("ConfirmPayment activity completed", "orderId", orderID)
	return outcome, nil
}
