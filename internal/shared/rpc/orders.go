package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// OrderServiceName is the fully-qualified gRPC service exposed by the order authority.
	OrderServiceName = "orders.v1.OrderService"
	// ConfirmPaymentMethod is the full method name of the confirmation bridge.
	ConfirmPaymentMethod = "/" + OrderServiceName + "/ConfirmPayment"
)

// ConfirmationServer is implemented by the order authority.
type ConfirmationServer interface {
	ConfirmPayment(ctx context.Context, orderID *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// RegisterConfirmationServer attaches srv to a gRPC server.
func RegisterConfirmationServer(s grpc.ServiceRegistrar, srv ConfirmationServer) {
	s.RegisterService(&confirmationServiceDesc, srv)
}

// InvokeConfirmPayment issues the ConfirmPayment call over conn.
func InvokeConfirmPayment(ctx context.Context, conn grpc.ClientConnInterface, orderID string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := conn.Invoke(ctx, ConfirmPaymentMethod, wrapperspb.String(orderID), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func confirmPaymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfirmationServer).ConfirmPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ConfirmPaymentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfirmationServer).ConfirmPayment(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var confirmationServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*ConfirmationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ConfirmPayment", Handler: confirmPaymentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orders/v1/orders.proto",
}
