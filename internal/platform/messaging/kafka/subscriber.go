package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

var _ messaging.Subscriber = (*Subscriber)(nil)

// Subscriber reads the events topic as a consumer group, committing offsets
// only after the dispatcher settles each message.
type Subscriber struct {
	client     *Client
	topic      string
	dispatcher *messaging.Dispatcher
	logger     *slog.Logger
}

// NewSubscriber builds a subscriber for topic.
func NewSubscriber(client *Client, topic string, dispatcher *messaging.Dispatcher, logger *slog.Logger) (*Subscriber, error) {
	if client == nil || !client.Enabled() {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{client: client, topic: topic, dispatcher: dispatcher, logger: logger}, nil
}

// Subscribe consumes until ctx ends. Messages still in flight at shutdown
// stay uncommitted and are redelivered to the group.
func (s *Subscriber) Subscribe(ctx context.Context, group string, handler messaging.Handler) error {
	reader := s.client.NewReader(s.topic, group)
	defer reader.Close()
	deadLetters := s.client.NewWriter(s.topic + DeadLetterSuffix)
	defer deadLetters.Close()

	s.logger.Info("consuming", slog.String("topic", s.topic), slog.String("group", group))
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		headers := fromHeaders(m.Headers)
		msg := messaging.Message{
			ID:          headers[messaging.HeaderMessageID],
			Name:        headers[messaging.HeaderEventName],
			Key:         string(m.Key),
			Body:        m.Value,
			Headers:     headers,
			PublishedAt: m.Time,
		}
		disposition := s.dispatcher.Dispatch(ctx, group, msg, handler)
		switch disposition.Action {
		case messaging.ActionRequeue:
			return nil
		case messaging.ActionDeadLetter:
			for k, v := range disposition.DeadLetterHeaders() {
				headers[k] = v
			}
			if err := deadLetters.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
				Key:     m.Key,
				Value:   m.Value,
				Time:    m.Time,
				Headers: toHeaders(headers),
			}); err != nil {
				return fmt.Errorf("write dead letter: %w", err)
			}
		}
		if err := reader.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}
