package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidStatus   = errors.New("order status is invalid")
	ErrInvalidID       = errors.New("order id must not be empty")
)

// Line is one entry of an order with the product captured at order time.
type Line struct {
	ProductID   string
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
}

// NewLine validates the quantity and snapshots the product.
func NewLine(productID, productName string, quantity int32, unitPrice decimal.Decimal) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

// Total is quantity times unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Order is the aggregate root owned by the order service.
type Order struct {
	ID        string
	CreatedAt time.Time
	Status    Status
	Lines     []Line
}

// NewOrder builds a pending order from already validated lines.
func NewOrder(id string, createdAt time.Time, lines []Line) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	copied := make([]Line, len(lines))
	copy(copied, lines)
	return &Order{
		ID:        id,
		CreatedAt: createdAt,
		Status:    StatusPending,
		Lines:     copied,
	}, nil
}

// Total sums the line totals. It is never stored.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// MarkPaid sets the order to paid whatever its current status. Repeating
// the call leaves the order paid, which is what makes payment confirmation
// safe under redelivery.
func (o *Order) MarkPaid() {
	o.Status = StatusPaid
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = make([]Line, len(o.Lines))
	copy(clone.Lines, o.Lines)
	return &clone
}

// ParseStatus validates a stored status value.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusPaid, StatusFailed, StatusCancelled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}
