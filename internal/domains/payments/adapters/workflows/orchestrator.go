// Package workflows chooses where a payment runs: inline in the consumer or
// as a durable Temporal workflow.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/order-saga/internal/domains/payments/application"
	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	"github.com/Apurer/order-saga/internal/domains/payments/ports"
	paymentactivities "github.com/Apurer/order-saga/internal/durable/temporal/activities/payments"
	paymentworkflows "github.com/Apurer/order-saga/internal/durable/temporal/workflows/payments"
)

var (
	_ ports.PaymentOrchestrator = (*TemporalPayments)(nil)
	_ ports.PaymentOrchestrator = (*InlinePayments)(nil)
)

// workflowSlack covers scheduling and worker pickup on top of the payment's own time.
const workflowSlack = 15 * time.Second

// TemporalPayments starts one payment workflow per order.
type TemporalPayments struct {
	client         client.Client
	taskQueue      string
	delay          time.Duration
	confirmTimeout time.Duration
	waitLimit      time.Duration
}

// TemporalOption customises TemporalPayments.
type TemporalOption func(*TemporalPayments)

// WithConfirmTimeout sets the confirmation budget counted into the workflow timeout.
func WithConfirmTimeout(d time.Duration) TemporalOption {
	return func(o *TemporalPayments) {
		if d > 0 {
			o.confirmTimeout = d
		}
	}
}

// WithWaitLimit overrides how long a payment may take end to end.
func WithWaitLimit(d time.Duration) TemporalOption {
	return func(o *TemporalPayments) {
		if d > 0 {
			o.waitLimit = d
		}
	}
}

// NewTemporalPayments wires a Temporal client into the orchestrator. delay is
// handed to the workflow's durable timer.
func NewTemporalPayments(c client.Client, delay time.Duration, opts ...TemporalOption) *TemporalPayments {
	o := &TemporalPayments{
		client:         c,
		taskQueue:      paymentworkflows.PaymentTaskQueue,
		delay:          delay,
		confirmTimeout: application.DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WaitLimit bounds both the workflow execution and the consumer's wait for it.
func (o *TemporalPayments) WaitLimit() time.Duration {
	if o.waitLimit > 0 {
		return o.waitLimit
	}
	return o.delay + o.confirmTimeout + workflowSlack
}

// ProcessPayment runs the workflow and waits for its outcome. A workflow
// already running for the same order is joined instead of started twice. A
// workflow that does not finish within WaitLimit, for example because no
// worker polls the task queue, is reported as a retryable failure.
func (o *TemporalPayments) ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if o == nil || o.client == nil {
		return domain.Outcome{}, errors.New("temporal payments not configured")
	}
	workflowID := PaymentWorkflowID(req.OrderID)
	limit := o.WaitLimit()
	options := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionTimeout:                 limit,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	input := paymentworkflows.PaymentWorkflowInput{
		OrderID: req.OrderID,
		Amount:  req.Amount.String(),
		Delay:   o.delay,
		Attempt: req.Attempt,
		TraceID: workflowTraceID(ctx),
	}
	run, err := o.client.ExecuteWorkflow(ctx, options, paymentworkflows.PaymentWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return failedRetrying(req.OrderID, err)
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	waitCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	var outcome domain.Outcome
	if err := run.Get(waitCtx, &outcome); err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == paymentactivities.OrderNotConfirmedErrorType {
			return domain.Outcome{OrderID: req.OrderID, Stage: domain.StageFailedTerminal, Detail: appErr.Error()},
				fmt.Errorf("%w: order %s", domain.ErrOrderNotConfirmed, req.OrderID)
		}
		return failedRetrying(req.OrderID, err)
	}
	return outcome, nil
}

// PaymentWorkflowID is deterministic per order.
func PaymentWorkflowID(orderID string) string {
	return "payment-" + orderID
}

func failedRetrying(orderID string, err error) (domain.Outcome, error) {
	return domain.Outcome{OrderID: orderID, Stage: domain.StageFailedRetrying, Detail: err.Error()},
		fmt.Errorf("%w: %w", domain.ErrConfirmationUnavailable, err)
}

// InlinePayments runs the payment service directly, without durable orchestration.
type InlinePayments struct {
	service ports.Service
}

func NewInlinePayments(service ports.Service) *InlinePayments {
	return &InlinePayments{service: service}
}

func (o *InlinePayments) ProcessPayment(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if o == nil || o.service == nil {
		return domain.Outcome{}, errors.New("inline payments not configured")
	}
	return o.service.ProcessPayment(ctx, req)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
