// Package grpcserver exposes product lookup to the order service.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Apurer/order-saga/internal/domains/products/ports"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

var _ rpc.ProductServer = (*ProductServer)(nil)

type ProductServer struct {
	service ports.Service
	logger  *slog.Logger
}

func NewProductServer(service ports.Service, logger *slog.Logger) *ProductServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductServer{service: service, logger: logger}
}

func (s *ProductServer) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	product, err := s.service.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "product %q not found", id)
		}
		s.logger.ErrorContext(ctx, "product lookup failed", slog.String("product.id", id), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "product lookup failed")
	}
	return rpc.EncodeProduct(rpc.ProductInfo{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		CreatedAt: product.CreatedAt,
	})
}
