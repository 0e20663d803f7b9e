package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/order-saga/internal/domains/payments/adapters/confirmation"
	paymentsapp "github.com/Apurer/order-saga/internal/domains/payments/application"
	paymentactivities "github.com/Apurer/order-saga/internal/durable/temporal/activities/payments"
	paymentworkflows "github.com/Apurer/order-saga/internal/durable/temporal/workflows/payments"
	"github.com/Apurer/order-saga/internal/platform/config"
	platformobservability "github.com/Apurer/order-saga/internal/platform/observability"
	platformtemporal "github.com/Apurer/order-saga/internal/platform/temporal"
)

func main() {
	ctx := context.Background()
	const serviceName = "payment-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	confirmTimeout, err := config.EnvDuration("CONFIRM_TIMEOUT", paymentsapp.DefaultConfirmTimeout)
	if err != nil {
		logger.Error("invalid CONFIRM_TIMEOUT", slog.String("error", err.Error()))
		os.Exit(1)
	}
	orderConn, err := confirmation.Dial(config.EnvDefault("ORDER_SERVICE_ADDR", "localhost:9090"))
	if err != nil {
		logger.Error("failed to create order service client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer orderConn.Close()
	service := paymentsapp.NewService(
		confirmation.NewGRPCConfirmer(orderConn),
		paymentsapp.WithConfirmTimeout(confirmTimeout),
	)
	activities := paymentactivities.NewActivities(service)

	settings := platformtemporal.LoadSettings()
	temporalClient, err := platformtemporal.Dial(settings, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, paymentworkflows.PaymentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(paymentworkflows.PaymentWorkflow, workflow.RegisterOptions{Name: paymentworkflows.PaymentWorkflowName})
	w.RegisterActivityWithOptions(activities.ConfirmPayment, activity.RegisterOptions{Name: paymentactivities.ConfirmPaymentActivityName})

	logger.Info("worker listening", slog.String("taskQueue", paymentworkflows.PaymentTaskQueue), slog.String("namespace", settings.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
