package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "accountd.v1.AccountService"

// accountServer is the handler set behind serviceDesc. Requests and replies
// are google.protobuf.Struct values using the same field names as the JSON API.
type accountServer interface {
	NewAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Authentication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ActiveByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SendActiveEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(s accountServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func methodHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(accountServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(accountServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod returns the invocation path of one of the service's methods.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*accountServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NewAccount", Handler: methodHandler("NewAccount", accountServer.NewAccount)},
		{MethodName: "Login", Handler: methodHandler("Login", accountServer.Login)},
		{MethodName: "Authentication", Handler: methodHandler("Authentication", accountServer.Authentication)},
		{MethodName: "ActiveByEmail", Handler: methodHandler("ActiveByEmail", accountServer.ActiveByEmail)},
		{MethodName: "SendActiveEmail", Handler: methodHandler("SendActiveEmail", accountServer.SendActiveEmail)},
		{MethodName: "Logout", Handler: methodHandler("Logout", accountServer.Logout)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "accountd/v1/account.proto",
}
