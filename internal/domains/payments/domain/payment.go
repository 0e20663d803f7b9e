// Package domain models the simulated payment attempt made for a created order.
package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Stage is the position of one delivery in the payment state machine.
type Stage string

const (
	StageReceived       Stage = "received"
	StageProcessing     Stage = "processing"
	StageConfirmed      Stage = "confirmed"
	StageFailedRetrying Stage = "failed_retrying"
	StageFailedTerminal Stage = "failed_terminal"
)

var (
	// ErrMissingOrderID rejects requests that cannot be confirmed against any order.
	ErrMissingOrderID = errors.New("payment request has no order id")
	// ErrOrderNotConfirmed means the order authority answered but refused the confirmation.
	ErrOrderNotConfirmed = errors.New("order authority did not confirm payment")
	// ErrConfirmationUnavailable means the confirmation call itself failed and may succeed later.
	ErrConfirmationUnavailable = errors.New("payment confirmation unavailable")
)

// Request is a payment to simulate for one order.
type Request struct {
	OrderID string
	Amount  decimal.Decimal
	// Attempt is the 1-based delivery attempt the request came from.
	Attempt int
}

// NewRequest validates the order id.
func NewRequest(orderID string, amount decimal.Decimal, attempt int) (Request, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Request{}, ErrMissingOrderID
	}
	if attempt < 1 {
		attempt = 1
	}
	return Request{OrderID: orderID, Amount: amount, Attempt: attempt}, nil
}

// Outcome is the result of a confirmation step.
type Outcome struct {
	OrderID string `json:"orderId"`
	Stage   Stage  `json:"stage"`
	Detail  string `json:"detail,omitempty"`
}

// Resolve maps the confirmation call result onto the final stage. A transport
// error always wins over the boolean.
func Resolve(confirmed bool, callErr error) Stage {
	switch {
	case callErr != nil:
		return StageFailedRetrying
	case !confirmed:
		return StageFailedTerminal
	default:
		return StageConfirmed
	}
}

// Final reports whether no further attempt can change the stage.
func (s Stage) Final() bool {
	return s == StageConfirmed || s == StageFailedTerminal
}
