package messaging

import (
	"context"
	"time"
)

// RetryPolicy bounds in-process redelivery: one initial attempt plus Limit
// retries spaced by a fixed Interval.
type RetryPolicy struct {
	Limit    int
	Interval time.Duration
}

// DefaultRetryPolicy retries three times, five seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Limit: 3, Interval: 5 * time.Second}
}

// MaxAttempts is the total number of deliveries the policy allows.
func (p RetryPolicy) MaxAttempts() int {
	if p.Limit < 0 {
		return 1
	}
	return p.Limit + 1
}

// Run invokes handler until it stops asking for a retry or the policy is
// exhausted. It returns the last result and the number of attempts made. A
// non-nil error means ctx was cancelled during or between attempts while the
// handler still asked for a retry; the message was neither processed nor
// exhausted and should be handed back to the transport.
func (p RetryPolicy) Run(ctx context.Context, msg Message, handler Handler) (Result, int, error) {
	var (
		result  Result
		attempt int
	)
	for attempt = 1; attempt <= p.MaxAttempts(); attempt++ {
		msg.Attempt = attempt
		result = handler.Handle(ctx, msg)
		if result.Outcome == OutcomeRetryable && ctx.Err() != nil {
			return result, attempt, ctx.Err()
		}
		if result.Outcome != OutcomeRetryable || attempt == p.MaxAttempts() {
			return result, attempt, nil
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return result, attempt, err
		}
	}
	return result, attempt - 1, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
