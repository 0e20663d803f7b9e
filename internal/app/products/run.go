package products

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/Apurer/order-saga/internal/domains/products/adapters/grpcserver"
	"github.com/Apurer/order-saga/internal/domains/products/adapters/http/handlers"
	productsmemory "github.com/Apurer/order-saga/internal/domains/products/adapters/memory"
	productspostgres "github.com/Apurer/order-saga/internal/domains/products/adapters/persistence/postgres"
	productsapp "github.com/Apurer/order-saga/internal/domains/products/application"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
	"github.com/Apurer/order-saga/internal/platform/discovery"
	"github.com/Apurer/order-saga/internal/platform/metrics"
	"github.com/Apurer/order-saga/internal/platform/migrations"
	platformobservability "github.com/Apurer/order-saga/internal/platform/observability"
	platformpostgres "github.com/Apurer/order-saga/internal/platform/postgres"
	"github.com/Apurer/order-saga/internal/platform/server"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

// Run boots the product catalog: HTTP API and the GetProduct lookup RPC.
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
	if err := migrations.Run(db, migrations.Products); err != nil {
		return fmt.Errorf("migrate products schema: %w", err)
	}
	var repo ports.Repository = productsmemory.NewRepository()
	if db != nil {
		repo = productspostgres.NewRepository(db)
	}
	service := productsapp.NewService(repo)

	grpcServer := grpc.NewServer()
	rpc.RegisterProductServer(grpcServer, grpcserver.NewProductServer(service, logger))

	router := server.NewRouter(ServiceName, metrics.NewRegistry())
	handlers.NewProductAPI(service).Register(router)

	registrar, err := discovery.NewRegistrar(cfg.ConsulAddr, discovery.Registration{
		Name:       ServiceName,
		Address:    cfg.ServiceAddress,
		Port:       cfg.HTTPPortNumber,
		HealthPath: server.HealthPath,
		Tags:       []string{"http", "grpc-port=" + cfg.GRPCPort},
	})
	if err != nil {
		return fmt.Errorf("service registry: %w", err)
	}
	release, err := discovery.Acquire(ctx, registrar, logger)
	if err != nil {
		logger.Warn("service registration failed", slog.String("error", err.Error()))
	}
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
