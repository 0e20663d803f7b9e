// Package confirmation calls the order authority's confirmation bridge.
package confirmation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Apurer/order-saga/internal/domains/payments/ports"
	"github.com/Apurer/order-saga/internal/shared/rpc"
)

var _ ports.PaymentConfirmer = (*GRPCConfirmer)(nil)

// GRPCConfirmer invokes orders.v1.OrderService/ConfirmPayment.
type GRPCConfirmer struct {
	conn grpc.ClientConnInterface
}

// Dial opens a client connection to the order service at target.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if target == "" {
		return nil, errors.New("order service address is empty")
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(target, opts...)
}

func NewGRPCConfirmer(conn grpc.ClientConnInterface) *GRPCConfirmer {
	return &GRPCConfirmer{conn: conn}
}

// ConfirmPayment returns the bridge's boolean. Any RPC status, including
// deadline expiry, is a transport error.
func (c *GRPCConfirmer) ConfirmPayment(ctx context.Context, orderID string) (bool, error) {
	ok, err := rpc.InvokeConfirmPayment(ctx, c.conn, orderID)
	if err != nil {
		return false, fmt.Errorf("confirm payment rpc: %w", err)
	}
	return ok, nil
}
