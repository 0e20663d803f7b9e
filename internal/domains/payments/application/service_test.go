package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-saga/internal/domains/payments/domain"
)

type fakeConfirmer struct {
	mu        sync.Mutex
	calls     []string
	confirmed bool
	err       error
	deadline  bool
}

func (f *fakeConfirmer) ConfirmPayment(ctx context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, orderID)
	_, f.deadline = ctx.Deadline()
	return f.confirmed, f.err
}

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

func newRequest(t *testing.T) domain.Request {
	t.Helper()
	req, err := domain.NewRequest("o-1", decimal.NewFromInt(300), 1)
	require.NoError(t, err)
	return req
}

func TestProcessPayment_WaitsThenConfirms(t *testing.T) {
	confirmer := &fakeConfirmer{confirmed: true}
	sleeper := &recordingSleeper{}
	svc := NewService(confirmer, WithSleeper(sleeper.sleep))

	outcome, err := svc.ProcessPayment(context.Background(), newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, domain.StageConfirmed, outcome.Stage)
	assert.Equal(t, []time.Duration{DefaultDelay}, sleeper.waits)
	assert.Equal(t, []string{"o-1"}, confirmer.calls)
	assert.True(t, confirmer.deadline)
}

func TestProcessPayment_NotFoundIsTerminal(t *testing.T) {
	svc := NewService(&fakeConfirmer{confirmed: false}, WithDelay(0))

	outcome, err := svc.ProcessPayment(context.Background(), newRequest(t))
	require.ErrorIs(t, err, domain.ErrOrderNotConfirmed)
	assert.NotErrorIs(t, err, domain.ErrConfirmationUnavailable)
	assert.Equal(t, domain.StageFailedTerminal, outcome.Stage)
}

func TestProcessPayment_TransportFailureIsRetryable(t *testing.T) {
	callErr := errors.New("connection refused")
	svc := NewService(&fakeConfirmer{err: callErr}, WithDelay(0))

	outcome, err := svc.ProcessPayment(context.Background(), newRequest(t))
	require.ErrorIs(t, err, domain.ErrConfirmationUnavailable)
	require.ErrorIs(t, err, callErr)
	assert.Equal(t, domain.StageFailedRetrying, outcome.Stage)
	assert.Equal(t, "connection refused", outcome.Detail)
}

func TestProcessPayment_InterruptedDelaySkipsConfirmation(t *testing.T) {
	confirmer := &fakeConfirmer{confirmed: true}
	sleeper := &recordingSleeper{err: context.Canceled}
	svc := NewService(confirmer, WithSleeper(sleeper.sleep))

	_, err := svc.ProcessPayment(context.Background(), newRequest(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, confirmer.calls)
}

func TestProcessPayment_RedeliveryConfirmsAgain(t *testing.T) {
	confirmer := &fakeConfirmer{confirmed: true}
	svc := NewService(confirmer, WithDelay(0))

	for i := 0; i < 2; i++ {
		outcome, err := svc.ProcessPayment(context.Background(), newRequest(t))
		require.NoError(t, err)
		assert.Equal(t, domain.StageConfirmed, outcome.Stage)
	}
	assert.Len(t, confirmer.calls, 2)
}

func TestConfirm_RejectsMissingOrderID(t *testing.T) {
	confirmer := &fakeConfirmer{confirmed: true}
	svc := NewService(confirmer)

	_, err := svc.Confirm(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrMissingOrderID)
	assert.Empty(t, confirmer.calls)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
