// Package server runs the HTTP and gRPC listeners of a service until its
// context ends.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"google.golang.org/grpc"

	"github.com/Apurer/order-saga/internal/platform/metrics"
)

// HealthPath is probed by Consul and container orchestrators.
const HealthPath = "/health"

// ShutdownTimeout bounds graceful shutdown of each listener.
const ShutdownTimeout = 10 * time.Second

// NewRouter returns a gin engine with tracing, request metrics, /health and /metrics.
func NewRouter(serviceName string, reg *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	if reg != nil {
		router.Use(metrics.NewServerMetrics(reg, serviceName).Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	}
	router.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	return router
}

// ServeHTTP listens on addr until ctx is cancelled, then shuts down gracefully.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("http stopped", slog.String("addr", addr))
	return nil
}

// ServeGRPC serves srv on addr until ctx is cancelled.
func ServeGRPC(ctx context.Context, addr string, srv *grpc.Server, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeGRPCListener(ctx, lis, srv, logger)
}

// ServeGRPCListener serves srv on an existing listener.
func ServeGRPCListener(ctx context.Context, lis net.Listener, srv *grpc.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("grpc listening", slog.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(ShutdownTimeout):
		srv.Stop()
	}
	logger.Info("grpc stopped", slog.String("addr", lis.Addr().String()))
	return nil
}
