package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/order-saga/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int("order.items", len(cmd.Items))))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int("order.items", len(cmd.Items)))
	order, err := s.inner.CreateOrder(ctx, cmd)
	if err != nil {
		s.metrics.recordCreateFailed(ctx)
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	total := order.Total()
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.String("order.total", total.String()))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created",
		slog.String("order.id", order.ID),
		slog.String("order.total", total.String()),
		slog.Int("order.lines", len(order.Lines)))
	return order, nil
}

func (s *Service) ConfirmPayment(ctx context.Context, orderID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ConfirmPayment", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "confirming payment", slog.String("order.id", orderID))
	ok, err := s.inner.ConfirmPayment(ctx, orderID)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to confirm payment", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.Bool("payment.confirmed", ok))
	s.metrics.recordConfirmation(ctx, ok)
	if !ok {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "payment confirmation for unknown order", slog.String("order.id", orderID))
		return false, nil
	}
	s.logInfo(ctx, "order marked paid", slog.String("order.id", orderID))
	return true, nil
}

func (s *Service) GetOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrders")
	defer span.End()

	orders, err := s.inner.GetOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrderByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.inner.GetOrderByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	span.SetAttributes(attribute.Bool("order.found", order != nil))
	return order, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated     metric.Int64Counter
	ordersRejected    metric.Int64Counter
	paymentsConfirmed metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of orders created"))
	rejected, _ := m.Int64Counter("orders.service.orders_rejected", metric.WithDescription("Number of create requests that failed"))
	confirmed, _ := m.Int64Counter("orders.service.payment_confirmations", metric.WithDescription("Payment confirmations by outcome"))
	return serviceMetrics{ordersCreated: created, ordersRejected: rejected, paymentsConfirmed: confirmed}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCreateFailed(ctx context.Context) {
	if m.ordersRejected != nil {
		m.ordersRejected.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordConfirmation(ctx context.Context, ok bool) {
	if m.paymentsConfirmed != nil {
		m.paymentsConfirmed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order.found", ok)))
	}
}

var _ ports.Service = (*Service)(nil)
