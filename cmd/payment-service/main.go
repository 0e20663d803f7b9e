package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/order-saga/internal/app/payments"
)

func main() {
	cfg, err := payments.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = payments.Run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatalf("%s exited with error: %v", payments.ServiceName, err)
	}
}
