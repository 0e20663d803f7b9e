package app_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Apurer/order-saga/internal/domains/orders/adapters/events"
	"github.com/Apurer/order-saga/internal/domains/orders/adapters/grpcserver"
	ordersmemory "github.com/Apurer/order-saga/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/order-saga/internal/domains/orders/application"
	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/domains/payments/adapters/confirmation"
	paymentevents "github.com/Apurer/order-saga/internal/domains/payments/adapters/events"
	"github.com/Apurer/order-saga/internal/domains/payments/adapters/workflows"
	paymentsapp "github.com/Apurer/order-saga/internal/domains/payments/application"
	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/platform/messaging/memory"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

const queue = "order-created-queue"

type staticCatalog map[string]ports.Product

func (c staticCatalog) GetProduct(_ context.Context, id string) (ports.Product, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return ports.Product{}, ports.ErrProductNotFound
}

type saga struct {
	orders  *ordersapp.Service
	bus     *memory.Bus
	bridge  *grpc.Server
	cancel  context.CancelFunc
	stopped chan struct{}
}

func startSaga(t *testing.T) *saga {
	t.Helper()
	bus := memory.NewBus(messaging.NewDispatcher(messaging.RetryPolicy{Limit: 3, Interval: 5 * time.Millisecond}))
	repo := ordersmemory.NewRepository()
	orders := ordersapp.NewService(repo, staticCatalog{
		"product-a": {ID: "product-a", Name: "Product A", Price: decimal.NewFromInt(100)},
		"product-b": {ID: "product-b", Name: "Product B", Price: decimal.NewFromInt(200)},
	}, events.NewPublisher(bus))

	lis := bufconn.Listen(1 << 20)
	bridge := grpc.NewServer()
	rpc.RegisterConfirmationServer(bridge, grpcserver.NewConfirmationServer(orders, nil))
	go func() { _ = bridge.Serve(lis) }()
	t.Cleanup(bridge.Stop)

	conn, err := confirmation.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	payments := paymentsapp.NewService(confirmation.NewGRPCConfirmer(conn),
		paymentsapp.WithDelay(10*time.Millisecond),
		paymentsapp.WithConfirmTimeout(time.Second))
	consumer := paymentevents.NewConsumer(workflows.NewInlinePayments(payments), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for ctx.Err() == nil {
			_ = bus.Subscribe(ctx, queue, consumer)
		}
	}()
	s := &saga{orders: orders, bus: bus, bridge: bridge, cancel: cancel, stopped: stopped}
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return s
}

// status is polled from assertion goroutines, so it reports lookup failures
// as an empty status instead of failing the test.
func (s *saga) status(id string) domain.Status {
	order, err := s.orders.GetOrderByID(context.Background(), id)
	if err != nil || order == nil {
		return ""
	}
	return order.Status
}

func TestSaga_OrderBecomesPaid(t *testing.T) {
	s := startSaga(t)

	order, err := s.orders.CreateOrder(context.Background(), ports.CreateOrderCommand{Items: []ports.OrderItemInput{
		{ProductID: "product-a", Quantity: 2},
		{ProductID: "product-b", Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Total().Equal(decimal.NewFromInt(400)))

	require.Eventually(t, func() bool { return s.status(order.ID) == domain.StatusPaid }, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.bus.DeadLetters())
}

func TestSaga_RedeliveredEventKeepsOrderPaid(t *testing.T) {
	s := startSaga(t)

	order, err := s.orders.CreateOrder(context.Background(), ports.CreateOrderCommand{Items: []ports.OrderItemInput{{ProductID: "product-a", Quantity: 1}}})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.status(order.ID) == domain.StatusPaid }, 3*time.Second, 10*time.Millisecond)

	duplicate, err := events.OrderCreatedMessage(order)
	require.NoError(t, err)
	require.NoError(t, s.bus.Publish(context.Background(), duplicate))

	require.Eventually(t, func() bool { return s.bus.Pending(queue) == 0 }, 3*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return s.status(order.ID) != domain.StatusPaid || len(s.bus.DeadLetters()) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestSaga_UnknownOrderIsNotRetried(t *testing.T) {
	s := startSaga(t)

	line, err := domain.NewLine("product-a", "Product A", 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	ghost, err := domain.NewOrder("ghost-order", time.Now().UTC(), []domain.Line{line})
	require.NoError(t, err)
	msg, err := events.OrderCreatedMessage(ghost)
	require.NoError(t, err)
	require.NoError(t, s.bus.Publish(context.Background(), msg))

	require.Eventually(t, func() bool { return s.bus.Pending(queue) == 0 }, 3*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return len(s.bus.DeadLetters()) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
	found, err := s.orders.GetOrderByID(context.Background(), "ghost-order")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSaga_UnreachableBridgeDeadLetters(t *testing.T) {
	s := startSaga(t)
	s.bridge.Stop()

	order, err := s.orders.CreateOrder(context.Background(), ports.CreateOrderCommand{Items: []ports.OrderItemInput{{ProductID: "product-b", Quantity: 3}}})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.bus.DeadLetters()) == 1 }, 5*time.Second, 10*time.Millisecond)
	dl := s.bus.DeadLetters()[0]
	assert.Equal(t, order.ID, dl.Message.Key)
	assert.Equal(t, "3", dl.Message.Headers[messaging.HeaderRetryCount])
	assert.Equal(t, domain.StatusPending, s.status(order.ID))
}
