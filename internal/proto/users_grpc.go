// Package proto declares the UsersService gRPC contract. Messages are
// protobuf well-known types, so no generated message code is needed:
//
//	service UsersService {
//	  rpc CreateUser(google.protobuf.Struct) returns (google.protobuf.StringValue);
//	  rpc Auth(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
//
// Both methods expect "authorization: Bearer <token>" in call metadata.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	UsersService_ServiceName               = "sessionkeeper.users.v1.UsersService"
	UsersService_CreateUser_FullMethodName = "/" + UsersService_ServiceName + "/CreateUser"
	UsersService_Auth_FullMethodName       = "/" + UsersService_ServiceName + "/Auth"
)

// UsersServiceClient is the client API for UsersService.
type UsersServiceClient interface {
	CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Auth(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type usersServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUsersServiceClient(cc grpc.ClientConnInterface) UsersServiceClient {
	return &usersServiceClient{cc}
}

func (c *usersServiceClient) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, UsersService_CreateUser_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *usersServiceClient) Auth(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, UsersService_Auth_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// UsersServiceServer is the server API for UsersService. Implementations
// must embed UnimplementedUsersServiceServer.
type UsersServiceServer interface {
	CreateUser(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Auth(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	mustEmbedUnimplementedUsersServiceServer()
}

// UnimplementedUsersServiceServer must be embedded by value.
type UnimplementedUsersServiceServer struct{}

func (UnimplementedUsersServiceServer) CreateUser(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateUser not implemented")
}

func (UnimplementedUsersServiceServer) Auth(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Auth not implemented")
}

func (UnimplementedUsersServiceServer) mustEmbedUnimplementedUsersServiceServer() {}

func RegisterUsersServiceServer(s grpc.ServiceRegistrar, srv UsersServiceServer) {
	s.RegisterService(&UsersService_ServiceDesc, srv)
}

func _UsersService_CreateUser_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServiceServer).CreateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UsersService_CreateUser_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServiceServer).CreateUser(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _UsersService_Auth_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServiceServer).Auth(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UsersService_Auth_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServiceServer).Auth(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// UsersService_ServiceDesc is the grpc.ServiceDesc for UsersService.
var UsersService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: UsersService_ServiceName,
	HandlerType: (*UsersServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateUser",
			Handler:    _UsersService_CreateUser_Handler,
		},
		{
			MethodName: "Auth",
			Handler:    _UsersService_Auth_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessionkeeper/users/v1/users.proto",
}
