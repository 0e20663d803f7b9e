// Package grpcserver exposes the payment confirmation bridge of the order service.
package grpcserver

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

var _ rpc.ConfirmationServer = (*ConfirmationServer)(nil)

// ConfirmationServer answers ConfirmPayment calls from the payment service.
// An unknown order is a normal false answer; only internal failures become
// gRPC errors, which the caller treats as retryable.
type ConfirmationServer struct {
	service ports.Service
	logger  *slog.Logger
}

func NewConfirmationServer(service ports.Service, logger *slog.Logger) *ConfirmationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmationServer{service: service, logger: logger}
}

func (s *ConfirmationServer) ConfirmPayment(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	orderID := req.GetValue()
	ok, err := s.service.ConfirmPayment(ctx, orderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "confirm payment failed", slog.String("order.id", orderID), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "confirm payment failed")
	}
	return wrapperspb.Bool(ok), nil
}
