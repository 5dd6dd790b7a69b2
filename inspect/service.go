// Package inspect publishes the state of a running search over gRPC.
//
// The service is declared by hand and only uses well known message types, so
// no generated code is needed:
//
//	service Inspector {
//	    rpc Snapshot(google.protobuf.Empty) returns (google.protobuf.Struct);
//	    rpc Signature(google.protobuf.Empty) returns (google.protobuf.UInt64Value);
//	}
package inspect

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "bytemc.inspect.Inspector"

const (
	snapshotMethod  = "/" + ServiceName + "/Snapshot"
	signatureMethod = "/" + ServiceName + "/Signature"
)

type InspectorServer interface {
	// Returns the last published state
	Snapshot(context.Context, *empty.Empty) (*structpb.Struct, error)
	// Returns the signature of the last published state
	Signature(context.Context, *empty.Empty) (*wrapperspb.UInt64Value, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
		{MethodName: "Signature", Handler: signatureHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bytemc/inspect",
}

func RegisterInspectorServer(s grpc.ServiceRegistrar, srv InspectorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).Snapshot(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func signatureHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).Signature(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: signatureMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).Signature(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
