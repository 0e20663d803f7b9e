package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

// CreateOrderRequest is the POST /orders body.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

type CreateOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

// Order is the transport shape returned by the order endpoints.
type Order struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderItem     `json:"items"`
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// ToCommand converts a request body into the application command.
func ToCommand(req CreateOrderRequest) ports.CreateOrderCommand {
	cmd := ports.CreateOrderCommand{Items: make([]ports.OrderItemInput, 0, len(req.Items))}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, ports.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return cmd
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:          order.ID,
		CreatedAt:   order.CreatedAt,
		Status:      string(order.Status),
		TotalAmount: order.Total(),
		Items:       make([]OrderItem, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		out.Items = append(out.Items, OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.Total(),
		})
	}
	return out
}

// FromDomainOrders converts a list, never returning nil.
func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}
