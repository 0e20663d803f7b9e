package observability

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/order-saga/internal/domains/payments/adapters/observability/orchestrator"

// Orchestrator decorates payment execution with tracing, logging, and metrics.
type Orchestrator struct {
	inner   ports.PaymentOrchestrator
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics orchestratorMetrics
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(o *Orchestrator) {
		o.metrics = newOrchestratorMetrics(m)
	}
}

// New wraps a payment orchestrator.
func New(inner ports.PaymentOrchestrator, opts ...Option) ports.PaymentOrchestrator {
	o := &Orchestrator{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		metrics: newOrchestratorMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.tracer == nil {
		o.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return o
}

func (o *Orchestrator) ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "PaymentOrchestrator.ProcessPayment", trace.WithAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.Int("attempt", req.Attempt),
	))
	defer span.End()

	started := time.Now()
	outcome, err := o.inner.ProcessPayment(ctx, req)
	stage := outcome.Stage
	if stage == "" && err != nil {
		stage = domain.StageFailedRetrying
	}
	span.SetAttributes(attribute.String("payment.stage", string(stage)))
	o.metrics.record(ctx, stage, time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if o.logger != nil {
			o.logger.LogAttrs(ctx, slog.LevelWarn, "payment not confirmed",
				slog.String("order.id", req.OrderID),
				slog.Int("attempt", req.Attempt),
				slog.String("stage", string(stage)),
				slog.String("error", err.Error()))
		}
		return outcome, err
	}
	if o.logger != nil {
		o.logger.LogAttrs(ctx, slog.LevelInfo, "payment confirmed",
			slog.String("order.id", req.OrderID),
			slog.Int("attempt", req.Attempt),
			slog.Duration("elapsed", time.Since(started)))
	}
	return outcome, nil
}

type orchestratorMetrics struct {
	payments metric.Int64Counter
	duration metric.Float64Histogram
}

func newOrchestratorMetrics(m metric.Meter) orchestratorMetrics {
	if m == nil {
		return orchestratorMetrics{}
	}
	payments, _ := m.Int64Counter("payments.service.payments", metric.WithDescription("Payment runs by final stage"))
	duration, _ := m.Float64Histogram("payments.service.duration", metric.WithDescription("Payment run duration"), metric.WithUnit("s"))
	return orchestratorMetrics{payments: payments, duration: duration}
}

func (m orchestratorMetrics) record(ctx context.Context, stage domain.Stage, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("payment.stage", string(stage)))
	if m.payments != nil {
		m.payments.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

var _ ports.PaymentOrchestrator = (*Orchestrator)(nil)
