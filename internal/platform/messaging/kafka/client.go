// Package kafka implements the event channel on a Kafka topic with a
// companion dead-letter topic.
package kafka

import (
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	// Topic carries every order event; the event name travels in a header.
	Topic = "orders.events"
	// DeadLetterSuffix names the dead-letter topic for a source topic.
	DeadLetterSuffix = ".dead-letter"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client holds broker addresses and builds readers and writers.
type Client struct {
	Brokers []string
}

// NewClient parses a comma-separated broker list.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

// Enabled reports whether any brokers are configured.
func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

// NewWriter returns a writer keyed by message key so one order stays on one partition.
func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewReader returns a consumer-group reader that commits explicitly.
func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func toHeaders(msgHeaders map[string]string) []kafka.Header {
	headers := make([]kafka.Header, 0, len(msgHeaders))
	for k, v := range msgHeaders {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

func fromHeaders(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
