package messaging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// Action tells a transport what to do with a delivery once the dispatcher is done.
type Action int

const (
	// ActionAck removes the message from the channel.
	ActionAck Action = iota
	// ActionDeadLetter copies the message to the dead-letter destination, then removes it.
	ActionDeadLetter
	// ActionRequeue returns the message to the channel untouched.
	ActionRequeue
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "ack"
	case ActionDeadLetter:
		return "dead_letter"
	case ActionRequeue:
		return "requeue"
	default:
		return "unknown"
	}
}

// Disposition is the dispatcher's verdict for one message.
type Disposition struct {
	Action   Action
	Result   Result
	Attempts int
}

// DeadLetterHeaders returns the headers attached to an exhausted message.
func (d Disposition) DeadLetterHeaders() map[string]string {
	return map[string]string{
		HeaderRetryCount:       strconv.Itoa(d.Attempts - 1),
		HeaderExceptionMessage: d.Result.Error(),
	}
}

// Observer is notified of every final disposition.
type Observer interface {
	ObserveDelivery(group string, msg Message, d Disposition)
}

// Dispatcher applies the retry policy uniformly for all transports.
type Dispatcher struct {
	policy    RetryPolicy
	logger    *slog.Logger
	observers []Observer
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers a disposition observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// NewDispatcher builds a dispatcher around policy.
func NewDispatcher(policy RetryPolicy, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		policy: policy,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Policy returns the configured retry policy.
func (d *Dispatcher) Policy() RetryPolicy {
	return d.policy
}

// Dispatch runs handler for msg and decides the message's fate.
func (d *Dispatcher) Dispatch(ctx context.Context, group string, msg Message, handler Handler) Disposition {
	logged := HandlerFunc(func(ctx context.Context, m Message) Result {
		res := handler.Handle(ctx, m)
		if res.Outcome == OutcomeRetryable {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "message delivery failed",
				slog.String("consumer.group", group),
				slog.String("message.id", m.ID),
				slog.Int("attempt", m.Attempt),
				slog.Int("max_attempts", d.policy.MaxAttempts()),
				slog.String("error", res.Error()))
		}
		return res
	})

	res, attempts, err := d.policy.Run(ctx, msg, logged)
	disposition := Disposition{Result: res, Attempts: attempts}
	switch {
	case err != nil:
		disposition.Action = ActionRequeue
		d.logger.LogAttrs(ctx, slog.LevelWarn, "message returned to channel",
			slog.String("consumer.group", group),
			slog.String("message.id", msg.ID),
			slog.String("error", err.Error()))
	case res.Outcome == OutcomeOK:
		disposition.Action = ActionAck
	case res.Outcome == OutcomeTerminal:
		disposition.Action = ActionAck
		d.logger.LogAttrs(ctx, slog.LevelError, "message rejected without retry",
			slog.String("consumer.group", group),
			slog.String("message.id", msg.ID),
			slog.Int("attempt", attempts),
			slog.String("error", res.Error()))
	default:
		disposition.Action = ActionDeadLetter
		d.logger.LogAttrs(ctx, slog.LevelError, "message retries exhausted",
			slog.String("consumer.group", group),
			slog.String("message.id", msg.ID),
			slog.Int("attempt", attempts),
			slog.String("error", res.Error()))
	}
	for _, o := range d.observers {
		o.ObserveDelivery(group, msg, disposition)
	}
	return disposition
}
