package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ProductServiceName is the fully-qualified gRPC service exposed by the catalog.
	ProductServiceName = "products.v1.ProductService"
	// GetProductMethod is the full method name of the product lookup.
	GetProductMethod = "/" + ProductServiceName + "/GetProduct"
)

// ProductInfo is the wire snapshot of a product.
type ProductInfo struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
}

// ProductServer is implemented by the product catalog. Implementations return a
// codes.NotFound status when the product does not exist.
type ProductServer interface {
	GetProduct(ctx context.Context, productID *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterProductServer attaches srv to a gRPC server.
func RegisterProductServer(s grpc.ServiceRegistrar, srv ProductServer) {
	s.RegisterService(&productServiceDesc, srv)
}

// InvokeGetProduct issues the GetProduct call over conn and decodes the snapshot.
func InvokeGetProduct(ctx context.Context, conn grpc.ClientConnInterface, productID string, opts ...grpc.CallOption) (ProductInfo, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, GetProductMethod, wrapperspb.String(productID), out, opts...); err != nil {
		return ProductInfo{}, err
	}
	return DecodeProduct(out)
}

// EncodeProduct converts a product snapshot to its wire form.
func EncodeProduct(info ProductInfo) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":        info.ID,
		"name":      info.Name,
		"price":     info.Price.String(),
		"createdAt": info.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// DecodeProduct parses the wire form produced by EncodeProduct.
func DecodeProduct(s *structpb.Struct) (ProductInfo, error) {
	fields := s.GetFields()
	price, err := decimal.NewFromString(fields["price"].GetStringValue())
	if err != nil {
		return ProductInfo{}, fmt.Errorf("decode product price: %w", err)
	}
	info := ProductInfo{
		ID:    fields["id"].GetStringValue(),
		Name:  fields["name"].GetStringValue(),
		Price: price,
	}
	if raw := fields["createdAt"].GetStringValue(); raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ProductInfo{}, fmt.Errorf("decode product timestamp: %w", err)
		}
		info.CreatedAt = createdAt
	}
	return info, nil
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProductServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProductServer).GetProduct(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var productServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductServiceName,
	HandlerType: (*ProductServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "products/v1/products.proto",
}
