// Package bridgepb is the hand-written gRPC binding of farmbridge.v1.BridgeService.
// Messages are protobuf well-known types (structpb), so no protoc step is needed.
//
// Invoke request fields:  operationId (string), params (object)
// Invoke response fields: operationId, callId (string), empty (bool), value (any)
// ListOperations response: operations (list of objects)
package bridgepb

import (
	context "context"
	"errors"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "farmbridge.v1.BridgeService"

	InvokeFullMethod         = "/farmbridge.v1.BridgeService/Invoke"
	ListOperationsFullMethod = "/farmbridge.v1.BridgeService/ListOperations"
)

// NewInvokeRequest builds an Invoke request message.
func NewInvokeRequest(operationID string, params map[string]any) (*structpb.Struct, error) {
	if params == nil {
		params = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		"operationId": operationID,
		"params":      params,
	})
}

// InvokeRequestFields reads an Invoke request message.
func InvokeRequestFields(req *structpb.Struct) (operationID string, params map[string]any, err error) {
	fields := req.GetFields()
	operationID = fields["operationId"].GetStringValue()
	if operationID == "" {
		return "", nil, errors.New("operationId is required")
	}
	params = map[string]any{}
	if p, ok := fields["params"]; ok {
		s := p.GetStructValue()
		if s == nil {
			return "", nil, errors.New("params must be an object")
		}
		params = s.AsMap()
	}
	return operationID, params, nil
}

// Client API
type BridgeServiceClient interface {
	Invoke(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListOperations(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type bridgeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBridgeServiceClient(cc grpc.ClientConnInterface) BridgeServiceClient {
	return &bridgeServiceClient{cc}
}

func (c *bridgeServiceClient) Invoke(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InvokeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeServiceClient) ListOperations(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListOperationsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Server API
type BridgeServiceServer interface {
	Invoke(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOperations(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type UnimplementedBridgeServiceServer struct{}

func (UnimplementedBridgeServiceServer) Invoke(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Invoke not implemented")
}
func (UnimplementedBridgeServiceServer) ListOperations(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListOperations not implemented")
}

func RegisterBridgeServiceServer(s grpc.ServiceRegistrar, srv BridgeServiceServer) {
	s.RegisterService(&_BridgeService_serviceDesc, srv)
}

func _BridgeService_Invoke_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServiceServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InvokeFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BridgeServiceServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _BridgeService_ListOperations_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServiceServer).ListOperations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListOperationsFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BridgeServiceServer).ListOperations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var _BridgeService_serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: _BridgeService_Invoke_Handler},
		{MethodName: "ListOperations", Handler: _BridgeService_ListOperations_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "farmbridge/v1/bridge.proto",
}
