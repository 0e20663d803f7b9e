// Package memory provides an in-process event channel with the same delivery
// contract as the broker-backed transports.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("memory bus closed")

var (
	_ messaging.Publisher  = (*Bus)(nil)
	_ messaging.Subscriber = (*Bus)(nil)
)

// DeadLetter is a message that exhausted its retry budget.
type DeadLetter struct {
	Group   string
	Message messaging.Message
}

// Bus fans published messages out to every consumer group. Consumers within
// a group compete for messages. Messages published before any group exists
// are held and handed to the first group that subscribes.
type Bus struct {
	dispatcher *messaging.Dispatcher

	mu          sync.Mutex
	groups      map[string]*queue
	backlog     []messaging.Message
	deadLetters []DeadLetter
	closed      bool
}

// NewBus builds a bus. A nil dispatcher uses the default retry policy.
func NewBus(dispatcher *messaging.Dispatcher) *Bus {
	if dispatcher == nil {
		dispatcher = messaging.NewDispatcher(messaging.DefaultRetryPolicy())
	}
	return &Bus{dispatcher: dispatcher, groups: map[string]*queue{}}
}

// Publish enqueues msg for every known consumer group.
func (b *Bus) Publish(ctx context.Context, msg messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.PublishedAt.IsZero() {
		msg.PublishedAt = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if len(b.groups) == 0 {
		b.backlog = append(b.backlog, msg)
		return nil
	}
	for _, q := range b.groups {
		q.push(msg)
	}
	return nil
}

// Subscribe consumes messages for group until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, group string, handler messaging.Handler) error {
	q := b.queue(group)
	for {
		if msg, ok := q.pop(); ok {
			d := b.dispatcher.Dispatch(ctx, group, msg, handler)
			switch d.Action {
			case messaging.ActionDeadLetter:
				b.addDeadLetter(group, msg, d)
			case messaging.ActionRequeue:
				q.pushFront(msg)
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-q.notify:
		}
	}
}

// DeadLetters returns a snapshot of exhausted messages.
func (b *Bus) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DeadLetter, len(b.deadLetters))
	copy(out, b.deadLetters)
	return out
}

// Pending reports how many messages are waiting for group.
func (b *Bus) Pending(group string) int {
	b.mu.Lock()
	q, ok := b.groups[group]
	backlog := len(b.backlog)
	b.mu.Unlock()
	if !ok {
		return backlog
	}
	return q.len()
}

// Close rejects further publishes. Running subscribers stop with their context.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Bus) queue(group string) *queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.groups[group]; ok {
		return q
	}
	q := newQueue()
	if len(b.groups) == 0 {
		for _, msg := range b.backlog {
			q.push(msg)
		}
		b.backlog = nil
	}
	b.groups[group] = q
	return q
}

func (b *Bus) addDeadLetter(group string, msg messaging.Message, d messaging.Disposition) {
	for k, v := range d.DeadLetterHeaders() {
		msg = msg.WithHeader(k, v)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deadLetters = append(b.deadLetters, DeadLetter{Group: group, Message: msg})
}

type queue struct {
	mu     sync.Mutex
	items  []messaging.Message
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(msg messaging.Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.signal()
}

func (q *queue) pushFront(msg messaging.Message) {
	q.mu.Lock()
	q.items = append([]messaging.Message{msg}, q.items...)
	q.mu.Unlock()
	q.signal()
}

func (q *queue) pop() (messaging.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return messaging.Message{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
