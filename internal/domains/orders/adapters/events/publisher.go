package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/shared/contracts"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher maps orders onto the OrderCreated contract and hands them to the event channel.
type Publisher struct {
	channel messaging.Publisher
}

func NewPublisher(channel messaging.Publisher) *Publisher {
	return &Publisher{channel: channel}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	msg, err := OrderCreatedMessage(order)
	if err != nil {
		return err
	}
	return p.channel.Publish(ctx, msg)
}

// ToContract snapshots an order as an OrderCreated event.
func ToContract(order *domain.Order) contracts.OrderCreated {
	event := contracts.OrderCreated{
		OrderID:     order.ID,
		CreatedAt:   order.CreatedAt,
		TotalAmount: order.Total(),
		Items:       make([]contracts.OrderCreatedItem, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		event.Items = append(event.Items, contracts.OrderCreatedItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return event
}

// OrderCreatedMessage builds the channel envelope for order. The order id is
// the partition key so redeliveries of one order stay together.
func OrderCreatedMessage(order *domain.Order) (messaging.Message, error) {
	body, err := json.Marshal(ToContract(order))
	if err != nil {
		return messaging.Message{}, fmt.Errorf("encode order created: %w", err)
	}
	return messaging.Message{
		ID:          uuid.NewString(),
		Name:        contracts.OrderCreatedEventName,
		Key:         order.ID,
		Body:        body,
		PublishedAt: order.CreatedAt,
	}, nil
}
