// Package transport opens the configured event channel implementation.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/platform/messaging/kafka"
	"github.com/Apurer/order-saga/internal/platform/messaging/memory"
	"github.com/Apurer/order-saga/internal/platform/messaging/rabbitmq"
)

// Kind selects the event channel implementation.
type Kind string

const (
	KindRabbitMQ Kind = "rabbitmq"
	KindKafka    Kind = "kafka"
	KindMemory   Kind = "memory"
)

// ParseKind validates an EVENT_TRANSPORT value. Empty means RabbitMQ.
func ParseKind(raw string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "":
		return KindRabbitMQ, nil
	case KindRabbitMQ, KindKafka, KindMemory:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown event transport %q", raw)
	}
}

// Settings locate the broker for the selected Kind.
type Settings struct {
	Kind         Kind
	RabbitMQURL  string
	KafkaBrokers string
	// Bus is used for KindMemory; a fresh bus is created when nil.
	Bus *memory.Bus
}

// OpenPublisher connects a publisher. The returned close func releases the
// publisher and its connection.
func OpenPublisher(ctx context.Context, s Settings, logger *slog.Logger) (messaging.Publisher, func(), error) {
	switch s.Kind {
	case KindKafka:
		client := kafka.NewClient(s.KafkaBrokers)
		pub, err := kafka.NewPublisher(client, kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil
	case KindMemory:
		bus := s.Bus
		if bus == nil {
			logger.Warn("in-memory event transport selected; events stay inside this process")
			bus = memory.NewBus(nil)
		}
		return bus, func() {}, nil
	default:
		conn, err := dialRabbit(ctx, s, logger)
		if err != nil {
			return nil, nil, err
		}
		pub, err := rabbitmq.NewPublisher(conn)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return pub, func() {
			_ = pub.Close()
			_ = conn.Close()
		}, nil
	}
}

// OpenSubscriber connects a subscriber that applies dispatcher's redelivery policy.
func OpenSubscriber(ctx context.Context, s Settings, dispatcher *messaging.Dispatcher, logger *slog.Logger) (messaging.Subscriber, func(), error) {
	switch s.Kind {
	case KindKafka:
		sub, err := kafka.NewSubscriber(kafka.NewClient(s.KafkaBrokers), kafka.Topic, dispatcher, logger)
		if err != nil {
			return nil, nil, err
		}
		return sub, func() {}, nil
	case KindMemory:
		bus := s.Bus
		if bus == nil {
			logger.Warn("in-memory event transport selected; only events published in this process are consumed")
			bus = memory.NewBus(dispatcher)
		}
		return bus, func() {}, nil
	default:
		conn, err := dialRabbit(ctx, s, logger)
		if err != nil {
			return nil, nil, err
		}
		sub := rabbitmq.NewSubscriber(conn, dispatcher, rabbitmq.WithLogger(logger))
		return sub, func() { _ = conn.Close() }, nil
	}
}

func dialRabbit(ctx context.Context, s Settings, logger *slog.Logger) (*amqp.Connection, error) {
	if strings.TrimSpace(s.RabbitMQURL) == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for the %s transport", KindRabbitMQ)
	}
	return rabbitmq.Dial(ctx, s.RabbitMQURL, rabbitmq.DialOptions{Logger: logger})
}
