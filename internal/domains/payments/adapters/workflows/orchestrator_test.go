package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/order-saga/internal/domains/payments/application"
	"github.com/Apurer/order-saga/internal/domains/payments/domain"
	paymentactivities "github.com/Apurer/order-saga/internal/durable/temporal/activities/payments"
	paymentworkflows "github.com/Apurer/order-saga/internal/durable/temporal/workflows/payments"
)

type fakeRun struct {
	client.WorkflowRun
	outcome domain.Outcome
	err     error
}

func (r *fakeRun) Get(_ context.Context, valuePtr interface{}) error {
	if r.err != nil {
		return r.err
	}
	*(valuePtr.(*domain.Outcome)) = r.outcome
	return nil
}

// blockingRun never completes on its own, like a workflow no worker picks up.
type blockingRun struct {
	client.WorkflowRun
}

func (blockingRun) Get(ctx context.Context, _ interface{}) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeTemporal struct {
	client.Client
	startErr  error
	run       client.WorkflowRun
	started   []client.StartWorkflowOptions
	inputs    []paymentworkflows.PaymentWorkflowInput
	joinedID  string
	joinedRun string
}

func (f *fakeTemporal) ExecuteWorkflow(_ context.Context, options client.StartWorkflowOptions, _ interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.started = append(f.started, options)
	f.inputs = append(f.inputs, args[0].(paymentworkflows.PaymentWorkflowInput))
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.run, nil
}

func (f *fakeTemporal) GetWorkflow(_ context.Context, workflowID, runID string) client.WorkflowRun {
	f.joinedID, f.joinedRun = workflowID, runID
	return f.run
}

func request(t *testing.T, orderID string) domain.Request {
	t.Helper()
	req, err := domain.NewRequest(orderID, decimal.NewFromInt(42), 2)
	require.NoError(t, err)
	return req
}

func TestTemporalPayments_StartsWorkflowPerOrder(t *testing.T) {
	fake := &fakeTemporal{run: &fakeRun{outcome: domain.Outcome{OrderID: "o-1", Stage: domain.StageConfirmed}}}
	orchestrator := NewTemporalPayments(fake, 5*time.Second)

	outcome, err := orchestrator.ProcessPayment(context.Background(), request(t, "o-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageConfirmed, outcome.Stage)

	require.Len(t, fake.started, 1)
	assert.Equal(t, "payment-o-1", fake.started[0].ID)
	assert.Equal(t, paymentworkflows.PaymentTaskQueue, fake.started[0].TaskQueue)
	assert.True(t, fake.started[0].WorkflowExecutionErrorWhenAlreadyStarted)
	assert.Equal(t, 5*time.Second, fake.inputs[0].Delay)
	assert.Equal(t, 2, fake.inputs[0].Attempt)
	assert.Equal(t, "42", fake.inputs[0].Amount)
	assert.Equal(t, 5*time.Second+application.DefaultConfirmTimeout+workflowSlack, fake.started[0].WorkflowExecutionTimeout)
}

func TestTemporalPayments_BoundsWaitForStalledWorkflow(t *testing.T) {
	fake := &fakeTemporal{run: blockingRun{}}
	orchestrator := NewTemporalPayments(fake, 0, WithWaitLimit(20*time.Millisecond))

	start := time.Now()
	outcome, err := orchestrator.ProcessPayment(context.Background(), request(t, "o-2"))
	require.ErrorIs(t, err, domain.ErrConfirmationUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.StageFailedRetrying, outcome.Stage)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, fake.started, 1)
	assert.Equal(t, 20*time.Millisecond, fake.started[0].WorkflowExecutionTimeout)
}

func TestTemporalPayments_WaitLimitCoversDelayAndConfirmation(t *testing.T) {
	orchestrator := NewTemporalPayments(nil, 5*time.Second, WithConfirmTimeout(3*time.Second))
	assert.Equal(t, 8*time.Second+workflowSlack, orchestrator.WaitLimit())
}

func TestTemporalPayments_JoinsRunningWorkflow(t *testing.T) {
	fake := &fakeTemporal{
		startErr: serviceerror.NewWorkflowExecutionAlreadyStarted("running", "req-1", "run-7"),
		run:      &fakeRun{outcome: domain.Outcome{OrderID: "o-1", Stage: domain.StageConfirmed}},
	}
	orchestrator := NewTemporalPayments(fake, 0)

	outcome, err := orchestrator.ProcessPayment(context.Background(), request(t, "o-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageConfirmed, outcome.Stage)
	assert.Equal(t, "payment-o-1", fake.joinedID)
	assert.Equal(t, "run-7", fake.joinedRun)
}

func TestTemporalPayments_ClassifiesFailures(t *testing.T) {
	refused := temporal.NewNonRetryableApplicationError("not confirmed", paymentactivities.OrderNotConfirmedErrorType, nil)
	fake := &fakeTemporal{run: &fakeRun{err: refused}}
	orchestrator := NewTemporalPayments(fake, 0)

	outcome, err := orchestrator.ProcessPayment(context.Background(), request(t, "o-1"))
	require.ErrorIs(t, err, domain.ErrOrderNotConfirmed)
	assert.Equal(t, domain.StageFailedTerminal, outcome.Stage)

	fake.run = &fakeRun{err: errors.New("activity timeout")}
	outcome, err = orchestrator.ProcessPayment(context.Background(), request(t, "o-1"))
	require.ErrorIs(t, err, domain.ErrConfirmationUnavailable)
	assert.Equal(t, domain.StageFailedRetrying, outcome.Stage)

	fake.startErr = errors.New("frontend unavailable")
	_, err = orchestrator.ProcessPayment(context.Background(), request(t, "o-1"))
	require.ErrorIs(t, err, domain.ErrConfirmationUnavailable)
}

type okConfirmer struct{}

func (okConfirmer) ConfirmPayment(context.Context, string) (bool, error) { return true, nil }

func TestInlinePayments_DelegatesToService(t *testing.T) {
	orchestrator := NewInlinePayments(application.NewService(okConfirmer{}, application.WithDelay(0)))

	outcome, err := orchestrator.ProcessPayment(context.Background(), request(t, "o-9"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageConfirmed, outcome.Stage)

	var unset *InlinePayments
	_, err = unset.ProcessPayment(context.Background(), request(t, "o-9"))
	require.Error(t, err)
}
