package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/order-saga/internal/app/products"
)

func main() {
	cfg, err := products.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = products.Run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatalf("%s exited with error: %v", products.ServiceName, err)
	}
}
