// Package rpc declares the gRPC service descriptors shared by the services.
//
// The contracts are deliberately narrow and use protobuf well-known types as
// messages, so no generated stubs are needed: ConfirmPayment takes a
// StringValue order id and answers a BoolValue; GetProduct takes a StringValue
// product id and answers a Struct snapshot of the product.
package rpc
