// Package messaging defines the at-least-once event channel shared by the
// order and payment services, together with the redelivery policy applied by
// every transport before a message is acknowledged or dead-lettered.
package messaging

import (
	"context"
	"time"
)

// Header keys stamped on dead-lettered messages.
const (
	HeaderRetryCount       = "x-retry-count"
	HeaderExceptionMessage = "x-exception-message"
	HeaderEventName        = "x-event-name"
	HeaderMessageID        = "x-message-id"
)

// Message is the transport-neutral envelope carried by the event channel.
type Message struct {
	ID          string
	Name        string
	Key         string
	Body        []byte
	Headers     map[string]string
	PublishedAt time.Time
	// Attempt is the 1-based in-process delivery attempt, set by the dispatcher.
	Attempt int
}

// Publisher emits messages onto the channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers messages to a handler under a named consumer group.
// Subscribe blocks until ctx is cancelled or the transport fails.
type Subscriber interface {
	Subscribe(ctx context.Context, group string, handler Handler) error
}

// Handler processes a single delivery and reports how the transport should react.
type Handler interface {
	Handle(ctx context.Context, msg Message) Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) Result {
	return f(ctx, msg)
}

// WithHeader returns a copy of msg with an extra header.
func (m Message) WithHeader(key, value string) Message {
	headers := make(map[string]string, len(m.Headers)+1)
	for k, v := range m.Headers {
		headers[k] = v
	}
	headers[key] = value
	m.Headers = headers
	return m
}
