package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

var _ messaging.Subscriber = (*Subscriber)(nil)

// Subscriber consumes from a durable queue bound to the events exchange.
// The queue is named after the consumer group.
type Subscriber struct {
	conn        *amqp.Connection
	dispatcher  *messaging.Dispatcher
	bindingKeys []string
	prefetch    int
	logger      *slog.Logger
}

// SubscriberOption customises a Subscriber.
type SubscriberOption func(*Subscriber)

// WithBindingKeys restricts the routing keys bound to the consumer queue.
func WithBindingKeys(keys ...string) SubscriberOption {
	return func(s *Subscriber) {
		if len(keys) > 0 {
			s.bindingKeys = keys
		}
	}
}

// WithPrefetch sets the channel QoS prefetch count.
func WithPrefetch(n int) SubscriberOption {
	return func(s *Subscriber) {
		if n > 0 {
			s.prefetch = n
		}
	}
}

// WithLogger sets the subscriber logger.
func WithLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSubscriber builds a subscriber on conn.
func NewSubscriber(conn *amqp.Connection, dispatcher *messaging.Dispatcher, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		conn:        conn,
		dispatcher:  dispatcher,
		bindingKeys: []string{"#"},
		prefetch:    1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Subscribe consumes group's queue one message at a time until ctx ends.
func (s *Subscriber) Subscribe(ctx context.Context, group string, handler messaging.Handler) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("could not open channel: %w", err)
	}
	defer ch.Close()

	if err := s.declareTopology(ch, group); err != nil {
		return err
	}
	if err := ch.Qos(s.prefetch, 0, false); err != nil {
		return fmt.Errorf("could not set qos: %w", err)
	}
	deliveries, err := ch.Consume(
		group, // queue
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("could not start consume: %w", err)
	}
	s.logger.Info("consuming", slog.String("queue", group), slog.String("exchange", ExchangeName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := s.handle(ctx, ch, group, d, handler); err != nil {
				return err
			}
		}
	}
}

func (s *Subscriber) declareTopology(ch *amqp.Channel, group string) error {
	if err := declareExchange(ch, ExchangeName); err != nil {
		return err
	}
	if err := declareQueue(ch, group); err != nil {
		return err
	}
	if err := declareQueue(ch, group+DeadLetterSuffix); err != nil {
		return err
	}
	for _, key := range s.bindingKeys {
		if err := ch.QueueBind(group, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("could not bind queue %s to %s: %w", group, key, err)
		}
	}
	return nil
}

func (s *Subscriber) handle(ctx context.Context, ch *amqp.Channel, group string, d amqp.Delivery, handler messaging.Handler) error {
	msg := messaging.Message{
		ID:          d.MessageId,
		Name:        d.RoutingKey,
		Body:        d.Body,
		Headers:     fromTable(d.Headers),
		PublishedAt: d.Timestamp,
	}
	disposition := s.dispatcher.Dispatch(ctx, group, msg, handler)
	switch disposition.Action {
	case messaging.ActionAck:
		return d.Ack(false)
	case messaging.ActionDeadLetter:
		if err := s.deadLetter(ctx, ch, group, d, disposition); err != nil {
			s.logger.Error("failed to dead-letter message",
				slog.String("message.id", d.MessageId), slog.String("error", err.Error()))
			return d.Nack(false, true)
		}
		return d.Ack(false)
	default:
		return d.Nack(false, true)
	}
}

func (s *Subscriber) deadLetter(ctx context.Context, ch *amqp.Channel, group string, d amqp.Delivery, disposition messaging.Disposition) error {
	headers := d.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	for k, v := range disposition.DeadLetterHeaders() {
		headers[k] = v
	}
	headers[messaging.HeaderEventName] = d.RoutingKey
	// Publish on the default exchange so the routing key addresses the queue directly.
	return ch.PublishWithContext(context.WithoutCancel(ctx),
		"",                     // exchange
		group+DeadLetterSuffix, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Type:         d.Type,
			Timestamp:    d.Timestamp,
			Headers:      headers,
			Body:         d.Body,
		},
	)
}
