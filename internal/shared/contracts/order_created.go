// Package contracts holds the message schemas exchanged between services.
package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEventName is the routing key and type name of the order creation event.
const OrderCreatedEventName = "orders.order.created"

// OrderCreated is emitted once per successful order creation. It is self-contained:
// consumers never need to call back for product or pricing data.
type OrderCreated struct {
	OrderID     string             `json:"orderId"`
	CreatedAt   time.Time          `json:"createdAt"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []OrderCreatedItem `json:"items"`
}

// OrderCreatedItem is the line snapshot carried by OrderCreated.
type OrderCreatedItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}
