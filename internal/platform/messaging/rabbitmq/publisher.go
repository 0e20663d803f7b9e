package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

var _ messaging.Publisher = (*Publisher)(nil)

// ErrNotConfirmed is returned when the broker nacks a publish.
var ErrNotConfirmed = errors.New("rabbitmq publish not confirmed")

// Publisher emits persistent messages and waits for broker confirmation.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewPublisher opens a confirm-mode channel on conn.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("could not open channel: %w", err)
	}
	if err := declareExchange(ch, ExchangeName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("could not enable publisher confirms: %w", err)
	}
	return &Publisher{ch: ch, exchange: ExchangeName}, nil
}

// Publish routes msg by its name and blocks until the broker confirms it.
func (p *Publisher) Publish(ctx context.Context, msg messaging.Message) error {
	publishedAt := msg.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}
	p.mu.Lock()
	confirmation, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange, // exchange
		msg.Name,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         msg.Name,
			Timestamp:    publishedAt,
			Headers:      toTable(msg.Headers),
			Body:         msg.Body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("could not publish %s: %w", msg.Name, err)
	}
	if confirmation == nil {
		return nil
	}
	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for publish confirmation: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// Close releases the publishing channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
