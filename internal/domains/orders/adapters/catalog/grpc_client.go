// Package catalog resolves products for the order service over gRPC, with an
// optional cache-aside layer in front.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

var _ ports.ProductCatalog = (*GRPCCatalog)(nil)

// GRPCCatalog calls the product service's GetProduct RPC.
type GRPCCatalog struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

// Dial opens a client connection to the product service at target.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if target == "" {
		return nil, errors.New("product service address is empty")
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(target, opts...)
}

// NewGRPCCatalog wraps conn. A zero timeout leaves deadlines to the caller.
func NewGRPCCatalog(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCCatalog {
	return &GRPCCatalog{conn: conn, timeout: timeout}
}

// GetProduct maps codes.NotFound to ports.ErrProductNotFound; every other
// failure stays a transport error.
func (c *GRPCCatalog) GetProduct(ctx context.Context, id string) (ports.Product, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	info, err := rpc.InvokeGetProduct(ctx, c.conn, id)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ports.Product{}, ports.ErrProductNotFound
		}
		return ports.Product{}, fmt.Errorf("product service: %w", err)
	}
	return ports.Product{ID: info.ID, Name: info.Name, Price: info.Price}, nil
}
