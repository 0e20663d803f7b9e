// Package events adapts OrderCreated deliveries from the event channel into payment runs.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/shared/contracts"
)

var _ messaging.Handler = (*Consumer)(nil)

// Consumer turns OrderCreated messages into payment requests.
type Consumer struct {
	orchestrator ports.PaymentOrchestrator
	logger       *slog.Logger
}

func NewConsumer(orchestrator ports.PaymentOrchestrator, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Consumer{orchestrator: orchestrator, logger: logger}
}

// Handle runs one delivery through the payment state machine.
func (c *Consumer) Handle(ctx context.Context, msg messaging.Message) messaging.Result {
	if msg.Name != "" && msg.Name != contracts.OrderCreatedEventName {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring unrelated event",
			slog.String("message.id", msg.ID), slog.String("event", msg.Name))
		return messaging.Ok()
	}

	var event contracts.OrderCreated
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "malformed order created payload",
			slog.String("message.id", msg.ID), slog.String("error", err.Error()))
		return messaging.Terminal(fmt.Errorf("decode order created: %w", err))
	}
	req, err := domain.NewRequest(event.OrderID, event.TotalAmount, msg.Attempt)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "order created event without order id",
			slog.String("message.id", msg.ID))
		return messaging.Terminal(err)
	}

	attrs := []slog.Attr{
		slog.String("order.id", req.OrderID),
		slog.String("message.id", msg.ID),
		slog.Int("attempt", req.Attempt),
	}
	c.logStage(ctx, slog.LevelInfo, domain.StageReceived, attrs, slog.String("amount", req.Amount.StringFixed(2)))
	c.logStage(ctx, slog.LevelInfo, domain.StageProcessing, attrs)

	outcome, err := c.orchestrator.ProcessPayment(ctx, req)
	switch {
	case err == nil:
		c.logStage(ctx, slog.LevelInfo, domain.StageConfirmed, attrs)
		return messaging.Ok()
	case errors.Is(err, domain.ErrOrderNotConfirmed), errors.Is(err, domain.ErrMissingOrderID):
		c.logStage(ctx, slog.LevelWarn, domain.StageFailedTerminal, attrs, slog.String("error", err.Error()))
		return messaging.Terminal(err)
	default:
		if outcome.Stage == domain.StageFailedTerminal {
			c.logStage(ctx, slog.LevelWarn, domain.StageFailedTerminal, attrs, slog.String("error", err.Error()))
			return messaging.Terminal(err)
		}
		c.logStage(ctx, slog.LevelWarn, domain.StageFailedRetrying, attrs, slog.String("error", err.Error()))
		return messaging.Retryable(err)
	}
}

func (c *Consumer) logStage(ctx context.Context, level slog.Level, stage domain.Stage, attrs []slog.Attr, extra ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+len(extra)+1)
	all = append(all, slog.String("stage", string(stage)))
	all = append(all, attrs...)
	all = append(all, extra...)
	c.logger.LogAttrs(ctx, level, "payment "+string(stage), all...)
}
