package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

var _ messaging.Publisher = (*Publisher)(nil)

// Publisher writes messages to the events topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a publisher for topic.
func NewPublisher(client *Client, topic string) (*Publisher, error) {
	if client == nil || !client.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{writer: client.NewWriter(topic)}, nil
}

// Publish writes msg synchronously.
func (p *Publisher) Publish(ctx context.Context, msg messaging.Message) error {
	publishedAt := msg.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}
	headers := msg.WithHeader(messaging.HeaderMessageID, msg.ID).
		WithHeader(messaging.HeaderEventName, msg.Name).Headers
	key := msg.Key
	if key == "" {
		key = msg.ID
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   msg.Body,
		Time:    publishedAt,
		Headers: toHeaders(headers),
	})
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
