/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is declared directly on well-known protobuf types, so no
// generated code is needed on either side.
const (
	BridgeService_SendCommand_FullMethodName  = "/battlelink.v1.BridgeService/SendCommand"
	BridgeService_GetState_FullMethodName     = "/battlelink.v1.BridgeService/GetState"
	BridgeService_StreamEvents_FullMethodName = "/battlelink.v1.BridgeService/StreamEvents"
	BridgeService_Ping_FullMethodName         = "/battlelink.v1.BridgeService/Ping"
)

// BridgeServiceServer is the server API for battlelink.v1.BridgeService
type BridgeServiceServer interface {
	SendCommand(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	Ping(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var _ BridgeServiceServer = (*Server)(nil)

func _BridgeService_SendCommand_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServiceServer).SendCommand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BridgeService_SendCommand_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServiceServer).SendCommand(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _BridgeService_GetState_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BridgeService_GetState_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _BridgeService_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BridgeService_Ping_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServiceServer).Ping(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _BridgeService_StreamEvents_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BridgeServiceServer).StreamEvents(m, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// BridgeService_ServiceDesc is the grpc.ServiceDesc for battlelink.v1.BridgeService
var BridgeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "battlelink.v1.BridgeService",
	HandlerType: (*BridgeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendCommand", Handler: _BridgeService_SendCommand_Handler},
		{MethodName: "GetState", Handler: _BridgeService_GetState_Handler},
		{MethodName: "Ping", Handler: _BridgeService_Ping_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			Handler:       _BridgeService_StreamEvents_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "battlelink/v1/bridge.proto",
}
