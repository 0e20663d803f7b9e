package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"github.com/Apurer/order-saga/internal/domains/orders/adapters/catalog"
	"github.com/Apurer/order-saga/internal/domains/orders/adapters/events"
	"github.com/Apurer/order-saga/internal/domains/orders/adapters/grpcserver"
	"github.com/Apurer/order-saga/internal/domains/orders/adapters/http/handlers"
	ordersmemory "github.com/Apurer/order-saga/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/order-saga/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/order-saga/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/order-saga/internal/domains/orders/application"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/platform/discovery"
	"github.com/Apurer/order-saga/internal/platform/messaging/transport"
	"github.com/Apurer/order-saga/internal/platform/metrics"
	"github.com/Apurer/order-saga/internal/platform/migrations"
	platformobservability "github.com/Apurer/order-saga/internal/platform/observability"
	platformpostgres "github.com/Apurer/order-saga/internal/platform/postgres"
	"github.com/Apurer/order-saga/internal/platform/server"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

// Run boots the order service: HTTP API, confirmation bridge, and OrderCreated publisher.
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

	db, closeDB := platformpostgres.ConnectOrFallback(ctx, cfg.PostgresDSN, logger)
	defer closeDB()
	if err := migrations.Run(db, migrations.Orders); err != nil {
		return fmt.Errorf("migrate orders schema: %w", err)
	}
	repo := buildRepository(db)

	productConn, err := catalog.Dial(cfg.ProductServiceAddr)
	if err != nil {
		return fmt.Errorf("product service client: %w", err)
	}
	defer productConn.Close()
	productCatalog, closeCatalog := buildCatalog(cfg, catalog.NewGRPCCatalog(productConn, cfg.ProductLookupTimeout), logger)
	defer closeCatalog()

	channel, closeChannel, err := transport.OpenPublisher(ctx, cfg.Transport, logger)
	if err != nil {
		return fmt.Errorf("open event channel: %w", err)
	}
	defer closeChannel()
	logger.Info("event channel ready", slog.String("transport", string(cfg.Transport.Kind)))

	service := ordersobs.New(
		ordersapp.NewService(repo, productCatalog, events.NewPublisher(channel)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	grpcServer := grpc.NewServer()
	rpc.RegisterConfirmationServer(grpcServer, grpcserver.NewConfirmationServer(service, logger))

	router := server.NewRouter(ServiceName, metrics.NewRegistry())
	handlers.NewOrderAPI(service).Register(router)

	release := register(ctx, cfg, logger)
	defer release()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ServeHTTP(gctx, net.JoinHostPort("", cfg.HTTPPort), router, logger)
	})
	g.Go(func() error {
		return server.ServeGRPC(gctx, net.JoinHostPort("", cfg.GRPCPort), grpcServer, logger)
	})
	return g.Wait()
}

func buildRepository(db *gorm.DB) ports.Repository {
	if db == nil {
		return ordersmemory.NewRepository()
	}
	return orderspostgres.NewRepository(db)
}

func buildCatalog(cfg Config, remote ports.ProductCatalog, logger *slog.Logger) (ports.ProductCatalog, func()) {
	if !cfg.CacheEnabled() {
		return remote, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("product cache enabled", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.ProductCacheTTL))
	cached := catalog.NewCachedCatalog(remote, catalog.NewRedisStore(client), cfg.ProductCacheTTL, logger,
		catalog.WithFlightTimeout(cfg.ProductLookupTimeout))
	return cached, func() { _ = client.Close() }
}

func register(ctx context.Context, cfg Config, logger *slog.Logger) func() {
	registrar, err := discovery.NewRegistrar(cfg.ConsulAddr, discovery.Registration{
		Name:       ServiceName,
		Address:    cfg.ServiceAddress,
		Port:       cfg.HTTPPortNumber,
		HealthPath: server.HealthPath,
		Tags:       []string{"http", "grpc-port=" + cfg.GRPCPort},
	})
	if err != nil {
		logger.Warn("service registry unavailable", slog.String("error", err.Error()))
		return func() {}
	}
	release, err := discovery.Acquire(ctx, registrar, logger)
	if err != nil {
		logger.Warn("service registration failed", slog.String("error", err.Error()))
	}
	return release
}
