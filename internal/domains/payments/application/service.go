package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
)

const (
	DefaultDelay          = 5 * time.Second
	DefaultConfirmTimeout = 10 * time.Second
)

// Service simulates a gateway round trip and confirms the order.
type Service struct {
	confirmer      ports.PaymentConfirmer
	delay          time.Duration
	confirmTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

// WithDelay sets the simulated gateway latency. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithConfirmTimeout bounds each confirmation call.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.confirmTimeout = d
		}
	}
}

// WithSleeper replaces the wait used for the simulated delay.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func NewService(confirmer ports.PaymentConfirmer, opts ...Option) *Service {
	s := &Service{
		confirmer:      confirmer,
		delay:          DefaultDelay,
		confirmTimeout: DefaultConfirmTimeout,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Delay is the configured simulated latency.
func (s *Service) Delay() time.Duration { return s.delay }

func (s *Service) ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if req.OrderID == "" {
		return domain.Outcome{Stage: domain.StageFailedTerminal, Detail: domain.ErrMissingOrderID.Error()}, domain.ErrMissingOrderID
	}
	if s.delay > 0 {
		if err := s.sleep(ctx, s.delay); err != nil {
			return domain.Outcome{OrderID: req.OrderID, Stage: domain.StageFailedRetrying, Detail: err.Error()},
				fmt.Errorf("%w: %w", domain.ErrConfirmationUnavailable, err)
		}
	}
	return s.Confirm(ctx, req.OrderID)
}

// Confirm calls the confirmation bridge once. Errors wrap
// domain.ErrConfirmationUnavailable when a retry could help and
// domain.ErrOrderNotConfirmed when it cannot.
func (s *Service) Confirm(ctx context.Context, orderID string) (domain.Outcome, error) {
	if orderID == "" {
		return domain.Outcome{Stage: domain.StageFailedTerminal, Detail: domain.ErrMissingOrderID.Error()}, domain.ErrMissingOrderID
	}
	callCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	confirmed, err := s.confirmer.ConfirmPayment(callCtx, orderID)
	outcome := domain.Outcome{OrderID: orderID, Stage: domain.Resolve(confirmed, err)}
	switch outcome.Stage {
	case domain.StageFailedRetrying:
		outcome.Detail = err.Error()
		return outcome, fmt.Errorf("%w: order %s: %w", domain.ErrConfirmationUnavailable, orderID, err)
	case domain.StageFailedTerminal:
		outcome.Detail = domain.ErrOrderNotConfirmed.Error()
		return outcome, fmt.Errorf("%w: order %s", domain.ErrOrderNotConfirmed, orderID)
	}
	return outcome, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.Service = (*Service)(nil)
