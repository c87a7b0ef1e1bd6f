package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NodeServer is the server API for the Node gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain. Structured payloads ride inside
// BytesValue as the same canonical JSON the rest of the repo signs.
//
// Proto definition: node.proto.
type NodeServer interface {
	PutChunk(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	GetChunk(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	HasChunk(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	SubmitOp(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Ops(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	SubmitTransfer(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	History(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedNodeServer can be embedded to have forward compatible implementations.
type UnimplementedNodeServer struct{}

func (UnimplementedNodeServer) PutChunk(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method PutChunk not implemented")
}
func (UnimplementedNodeServer) GetChunk(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetChunk not implemented")
}
func (UnimplementedNodeServer) HasChunk(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method HasChunk not implemented")
}
func (UnimplementedNodeServer) SubmitOp(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitOp not implemented")
}
func (UnimplementedNodeServer) Ops(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Ops not implemented")
}
func (UnimplementedNodeServer) SubmitTransfer(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitTransfer not implemented")
}
func (UnimplementedNodeServer) History(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method History not implemented")
}

// RegisterNodeServer registers the Node service on a gRPC server.
func RegisterNodeServer(s grpc.ServiceRegistrar, srv NodeServer) {
	s.RegisterService(&Node_ServiceDesc, srv)
}

// NodeClient is the client API for the Node gRPC service.
type NodeClient interface {
	PutChunk(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetChunk(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	HasChunk(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	SubmitOp(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Ops(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	SubmitTransfer(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	History(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type nodeClient struct{ cc grpc.ClientConnInterface }

func NewNodeClient(cc grpc.ClientConnInterface) NodeClient { return &nodeClient{cc: cc} }

func (c *nodeClient) PutChunk(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/PutChunk", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) GetChunk(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/GetChunk", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) HasChunk(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/HasChunk", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) SubmitOp(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/SubmitOp", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) Ops(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/Ops", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) SubmitTransfer(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/SubmitTransfer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) History(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/weft.fleet.v1.Node/History", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Node_PutChunk_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).PutChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/PutChunk"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).PutChunk(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_GetChunk_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).GetChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/GetChunk"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).GetChunk(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_HasChunk_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).HasChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/HasChunk"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).HasChunk(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_SubmitOp_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).SubmitOp(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/SubmitOp"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).SubmitOp(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_Ops_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).Ops(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/Ops"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).Ops(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_SubmitTransfer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).SubmitTransfer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/SubmitTransfer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).SubmitTransfer(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_History_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/weft.fleet.v1.Node/History"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).History(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Node_ServiceDesc is the grpc.ServiceDesc for the Node service.
var Node_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "weft.fleet.v1.Node",
	HandlerType: (*NodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PutChunk", Handler: _Node_PutChunk_Handler},
		{MethodName: "GetChunk", Handler: _Node_GetChunk_Handler},
		{MethodName: "HasChunk", Handler: _Node_HasChunk_Handler},
		{MethodName: "SubmitOp", Handler: _Node_SubmitOp_Handler},
		{MethodName: "Ops", Handler: _Node_Ops_Handler},
		{MethodName: "SubmitTransfer", Handler: _Node_SubmitTransfer_Handler},
		{MethodName: "History", Handler: _Node_History_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "node.proto",
}
