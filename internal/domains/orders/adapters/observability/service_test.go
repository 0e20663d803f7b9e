package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mustDecimal(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

type stubService struct {
	order     *domain.Order
	createErr error
	confirmed bool
}

func (s *stubService) CreateOrder(context.Context, ports.CreateOrderCommand) (*domain.Order, error) {
	return s.order, s.createErr
}

func (s *stubService) ConfirmPayment(context.Context, string) (bool, error) {
	return s.confirmed, nil
}

func (s *stubService) GetOrders(context.Context) ([]*domain.Order, error) { return nil, nil }

func (s *stubService) GetOrderByID(context.Context, string) (*domain.Order, error) {
	return s.order, nil
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_RecordsCreatedAndRejected(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	line, err := domain.NewLine("p-1", "Widget", 1, mustDecimal(t, "9.99"))
	require.NoError(t, err)
	order, err := domain.NewOrder("o-1", fixedTime, []domain.Line{line})
	require.NoError(t, err)
	inner := &stubService{order: order}
	svc := New(inner, WithMeter(meter))

	_, err = svc.CreateOrder(context.Background(), ports.CreateOrderCommand{})
	require.NoError(t, err)

	inner.createErr = errors.New("boom")
	_, err = svc.CreateOrder(context.Background(), ports.CreateOrderCommand{})
	require.Error(t, err)

	assert.Equal(t, int64(1), counterTotal(t, reader, "orders.service.orders_created"))
	assert.Equal(t, int64(1), counterTotal(t, reader, "orders.service.orders_rejected"))
}

func TestService_UnknownOrderConfirmationLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := New(&stubService{confirmed: false}, WithLogger(logger))

	ok, err := svc.ConfirmPayment(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "missing")
}

func TestService_PassesThroughMissingOrder(t *testing.T) {
	svc := New(&stubService{})

	order, err := svc.GetOrderByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}
