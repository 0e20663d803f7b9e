package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/order-saga/internal/app/orders"
)

func main() {
	cfg, err := orders.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = orders.Run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatalf("%s exited with error: %v", orders.ServiceName, err)
	}
}
