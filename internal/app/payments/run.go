package payments

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Apurer/order-saga/internal/domains/payments/adapters/confirmation"
	"github.com/Apurer/order-saga/internal/domains/payments/adapters/events"
	paymentsobs "github.com/Apurer/order-saga/internal/domains/payments/adapters/observability"
	"github.com/Apurer/order-saga/internal/domains/payments/adapters/workflows"
	paymentsapp "github.com/Apurer/order-saga/internal/domains/payments/application"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/platform/messaging/transport"
	"github.com/Apurer/order-saga/internal/platform/metrics"
	platformobservability "github.com/Apurer/order-saga/internal/platform/observability"
	"github.com/Apurer/order-saga/internal/platform/server"
	platformtemporal "github.com/Apurer/order-saga/internal/platform/temporal"
)

// resubscribeBackoff spaces reconnects after the subscriber loses its broker.
const resubscribeBackoff = 2 * time.Second

// Run boots the payment service: the OrderCreated consumer plus health and metrics.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger
	registry := metrics.NewRegistry()

	orderConn, err := confirmation.Dial(cfg.OrderServiceAddr)
	if err != nil {
		return fmt.Errorf("order service client: %w", err)
	}
	defer orderConn.Close()
	service := paymentsapp.NewService(
		confirmation.NewGRPCConfirmer(orderConn),
		paymentsapp.WithDelay(cfg.PaymentDelay),
		paymentsapp.WithConfirmTimeout(cfg.ConfirmTimeout),
	)

	var orchestrator ports.PaymentOrchestrator = workflows.NewInlinePayments(service)
	if temporalClient, err := platformtemporal.Dial(cfg.Temporal, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running payments inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orchestrator = workflows.NewTemporalPayments(temporalClient, cfg.PaymentDelay,
			workflows.WithConfirmTimeout(cfg.ConfirmTimeout))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.Temporal.Namespace))
	}
	orchestrator = paymentsobs.New(
		orchestrator,
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	dispatcher := messaging.NewDispatcher(cfg.Retry,
		messaging.WithLogger(logger),
		messaging.WithObserver(metrics.NewConsumerMetrics(registry, ServiceName)),
	)
	subscriber, closeSubscriber, err := transport.OpenSubscriber(ctx, cfg.Transport, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("open event channel: %w", err)
	}
	defer closeSubscriber()
	consumer := events.NewConsumer(orchestrator, logger)

	router := server.NewRouter(ServiceName, registry)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ServeHTTP(gctx, net.JoinHostPort("", cfg.HTTPPort), router, logger)
	})
	g.Go(func() error {
		logger.Info("consuming order events",
			slog.String("queue", cfg.ConsumerQueue),
			slog.String("transport", string(cfg.Transport.Kind)),
			slog.Int("maxAttempts", cfg.Retry.MaxAttempts()),
			slog.Duration("retryInterval", cfg.Retry.Interval))
		return Consume(gctx, subscriber, cfg.ConsumerQueue, consumer, logger)
	})
	return g.Wait()
}

// Consume keeps a subscription alive until ctx ends. Transport failures are
// logged and the subscription is re-established after a short pause.
func Consume(ctx context.Context, subscriber messaging.Subscriber, group string, handler messaging.Handler, logger *slog.Logger) error {
	for ctx.Err() == nil {
		if err := subscriber.Subscribe(ctx, group, handler); err != nil {
			logger.Warn("subscription interrupted", slog.String("queue", group), slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
			case <-time.After(resubscribeBackoff):
			}
		}
	}
	return nil
}
