package payments

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	paymentactivities "github.com/Apurer/order-saga/internal/durable/temporal/activities/payments"
)

const (
	// PaymentWorkflowName is the public identifier for registering the workflow.
	PaymentWorkflowName = "payments.workflows.Payment"
	// PaymentTaskQueue is the queue consumed by the payment worker.
	PaymentTaskQueue = "PAYMENTS"
)

// PaymentWorkflowInput carries one payment request into the workflow.
type PaymentWorkflowInput struct {
	OrderID string
	Amount  string
	Delay   time.Duration
	Attempt int
	TraceID string
}

// PaymentWorkflow waits out the simulated gateway on a durable timer and then
// confirms the order. The activity runs a single attempt; redelivery is owned
// by the event channel.
func PaymentWorkflow(ctx workflow.Context, input PaymentWorkflowInput) (domain.Outcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PaymentWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID, "attempt", input.Attempt)...)

	if input.Delay > 0 {
		if err := workflow.Sleep(ctx, input.Delay); err != nil {
			return domain.Outcome{OrderID: input.OrderID, Stage: domain.StageFailedRetrying, Detail: err.Error()}, err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	var outcome domain.Outcome
	err := workflow.ExecuteActivity(ctx, paymentactivities.ConfirmPaymentActivityName, input.OrderID).Get(ctx, &outcome)
	if err != nil {
		logger.Error("PaymentWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return domain.Outcome{OrderID: input.OrderID, Stage: domain.StageFailedRetrying, Detail: err.Error()}, err
	}
	logger.Info("PaymentWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID, "stage", string(outcome.Stage))...)
	return outcome, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
