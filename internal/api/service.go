// Package api describes the GophTasks gRPC service: its messages, the JSON
// codec they travel in, and the service descriptor with client and server
// bindings.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "gophtasks.v1.TaskService"

const (
	MethodSignUp       = "/" + ServiceName + "/SignUp"
	MethodSignIn       = "/" + ServiceName + "/SignIn"
	MethodRefreshToken = "/" + ServiceName + "/RefreshToken"
	MethodSignOut      = "/" + ServiceName + "/SignOut"
	MethodListTasks    = "/" + ServiceName + "/ListTasks"
	MethodInsertTask   = "/" + ServiceName + "/InsertTask"
	MethodUpdateTask   = "/" + ServiceName + "/UpdateTask"
	MethodDeleteTask   = "/" + ServiceName + "/DeleteTask"
	MethodSubscribe    = "/" + ServiceName + "/Subscribe"
)

// TaskServiceServer is implemented by the server.
type TaskServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
	InsertTask(context.Context, *InsertTaskRequest) (*InsertTaskResponse, error)
	UpdateTask(context.Context, *UpdateTaskRequest) (*Empty, error)
	DeleteTask(context.Context, *DeleteTaskRequest) (*Empty, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[FeedMessage]) error
}

// UnimplementedTaskServiceServer answers every method with Unimplemented.
// Embed it to implement only part of the service.
type UnimplementedTaskServiceServer struct{}

func (UnimplementedTaskServiceServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedTaskServiceServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedTaskServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedTaskServiceServer) SignOut(context.Context, *SignOutRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedTaskServiceServer) ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTasks not implemented")
}
func (UnimplementedTaskServiceServer) InsertTask(context.Context, *InsertTaskRequest) (*InsertTaskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InsertTask not implemented")
}
func (UnimplementedTaskServiceServer) UpdateTask(context.Context, *UpdateTaskRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateTask not implemented")
}
func (UnimplementedTaskServiceServer) DeleteTask(context.Context, *DeleteTaskRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteTask not implemented")
}
func (UnimplementedTaskServiceServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[FeedMessage]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&TaskService_ServiceDesc, srv)
}

// unary builds a method handler that decodes Req, runs the interceptor chain
// and dispatches to call.
func unary[Req any, Resp any](fullMethod string, call func(TaskServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TaskServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TaskServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TaskServiceServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, FeedMessage]{ServerStream: stream})
}

var TaskService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(MethodSignUp, TaskServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(MethodSignIn, TaskServiceServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, TaskServiceServer.RefreshToken)},
		{MethodName: "SignOut", Handler: unary(MethodSignOut, TaskServiceServer.SignOut)},
		{MethodName: "ListTasks", Handler: unary(MethodListTasks, TaskServiceServer.ListTasks)},
		{MethodName: "InsertTask", Handler: unary(MethodInsertTask, TaskServiceServer.InsertTask)},
		{MethodName: "UpdateTask", Handler: unary(MethodUpdateTask, TaskServiceServer.UpdateTask)},
		{MethodName: "DeleteTask", Handler: unary(MethodDeleteTask, TaskServiceServer.DeleteTask)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "gophtasks/v1/tasks",
}
