// Package rabbitmq implements the event channel on a durable RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange all order events are routed through.
	ExchangeName = "orders.events"
	// ExchangeType routes by event name.
	ExchangeType = "topic"
	// DeadLetterSuffix is appended to a consumer queue to name its dead-letter queue.
	DeadLetterSuffix = "_error"
)

// DialOptions controls connection retries during startup.
type DialOptions struct {
	Attempts int
	Backoff  time.Duration
	Logger   *slog.Logger
}

// Dial connects to RabbitMQ, retrying while the broker starts up.
func Dial(ctx context.Context, url string, opts DialOptions) (*amqp.Connection, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < opts.Attempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		if opts.Logger != nil {
			opts.Logger.Warn("failed to connect to RabbitMQ",
				slog.Int("attempt", i+1), slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
	return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
}

// declareExchange makes sure the shared topic exchange exists.
func declareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(
		name,         // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		return fmt.Errorf("could not declare exchange: %w", err)
	}
	return nil
}

// declareQueue declares a durable, non-exclusive queue.
func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("could not declare queue %s: %w", name, err)
	}
	return nil
}

func toTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}
	table := make(amqp.Table, len(headers))
	for k, v := range headers {
		table[k] = v
	}
	return table
}

func fromTable(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	headers := make(map[string]string, len(table))
	for k, v := range table {
		headers[k] = fmt.Sprint(v)
	}
	return headers
}
