package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "catpoint.v1.SecurityService"

// Full method names of the SecurityService.
const (
	GetStateFullMethod               = "/" + ServiceName + "/GetState"
	SetArmingStatusFullMethod        = "/" + ServiceName + "/SetArmingStatus"
	AddSensorFullMethod              = "/" + ServiceName + "/AddSensor"
	RemoveSensorFullMethod           = "/" + ServiceName + "/RemoveSensor"
	ChangeSensorActivationFullMethod = "/" + ServiceName + "/ChangeSensorActivation"
	ProcessImageFullMethod           = "/" + ServiceName + "/ProcessImage"
)

// SecurityServiceServer is the server API of the SecurityService.
// Every method answers with the resulting state document.
type SecurityServiceServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// UnimplementedSecurityServiceServer answers Unimplemented for every method.
// Embed it to stay forward compatible.
type UnimplementedSecurityServiceServer struct{}

// GetState is not implemented.
func (UnimplementedSecurityServiceServer) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}

// SetArmingStatus is not implemented.
func (UnimplementedSecurityServiceServer) SetArmingStatus(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetArmingStatus not implemented")
}

// AddSensor is not implemented.
func (UnimplementedSecurityServiceServer) AddSensor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AddSensor not implemented")
}

// RemoveSensor is not implemented.
func (UnimplementedSecurityServiceServer) RemoveSensor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveSensor not implemented")
}

// ChangeSensorActivation is not implemented.
func (UnimplementedSecurityServiceServer) ChangeSensorActivation(
	context.Context,
	*structpb.Struct,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ChangeSensorActivation not implemented")
}

// ProcessImage is not implemented.
func (UnimplementedSecurityServiceServer) ProcessImage(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ProcessImage not implemented")
}

// SecurityServiceDesc is the grpc.ServiceDesc for the SecurityService.
//
//nolint:gochecknoglobals // Service descriptors are registered by reference.
var SecurityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SecurityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler:    unaryHandler[emptypb.Empty](GetStateFullMethod, SecurityServiceServer.GetState),
		},
		{
			MethodName: "SetArmingStatus",
			Handler:    unaryHandler[structpb.Struct](SetArmingStatusFullMethod, SecurityServiceServer.SetArmingStatus),
		},
		{
			MethodName: "AddSensor",
			Handler:    unaryHandler[structpb.Struct](AddSensorFullMethod, SecurityServiceServer.AddSensor),
		},
		{
			MethodName: "RemoveSensor",
			Handler:    unaryHandler[structpb.Struct](RemoveSensorFullMethod, SecurityServiceServer.RemoveSensor),
		},
		{
			MethodName: "ChangeSensorActivation",
			Handler: unaryHandler[structpb.Struct](
				ChangeSensorActivationFullMethod,
				SecurityServiceServer.ChangeSensorActivation,
			),
		},
		{
			MethodName: "ProcessImage",
			Handler:    unaryHandler[wrapperspb.BytesValue](ProcessImageFullMethod, SecurityServiceServer.ProcessImage),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catpoint/v1/security.proto",
}

// RegisterSecurityServiceServer registers srv on the gRPC server.
func RegisterSecurityServiceServer(registrar grpc.ServiceRegistrar, srv SecurityServiceServer) {
	registrar.RegisterService(&SecurityServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}](
	fullMethod string,
	call func(SecurityServiceServer, context.Context, PReq) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(SecurityServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(PReq)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}

// SecurityServiceClient is the client API of the SecurityService.
type SecurityServiceClient interface {
	GetState(ctx context.Context, req *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AddSensor(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ChangeSensorActivation(
		ctx context.Context,
		req *structpb.Struct,
		opts ...grpc.CallOption,
	) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type securityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSecurityServiceClient creates a client on top of a connection.
//
//nolint:ireturn // Mirrors generated gRPC clients.
func NewSecurityServiceClient(cc grpc.ClientConnInterface) SecurityServiceClient {
	return &securityServiceClient{cc: cc}
}

func (c *securityServiceClient) GetState(
	ctx context.Context,
	req *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, GetStateFullMethod, req, opts)
}

func (c *securityServiceClient) SetArmingStatus(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, SetArmingStatusFullMethod, req, opts)
}

func (c *securityServiceClient) AddSensor(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, AddSensorFullMethod, req, opts)
}

func (c *securityServiceClient) RemoveSensor(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, RemoveSensorFullMethod, req, opts)
}

func (c *securityServiceClient) ChangeSensorActivation(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ChangeSensorActivationFullMethod, req, opts)
}

func (c *securityServiceClient) ProcessImage(
	ctx context.Context,
	req *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ProcessImageFullMethod, req, opts)
}

func (c *securityServiceClient) invoke(
	ctx context.Context,
	method string,
	req proto.Message,
	opts []grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
