package agent

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName = "distcheck.agent.v1.AgentService"

	methodExecute   = "Execute"
	methodTransfer  = "Transfer"
	methodClean     = "Clean"
	methodTerminate = "Terminate"
)

// agentServer is the handler type registered with gRPC.
type agentServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Clean(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Terminate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// serviceDesc mirrors what protoc-gen-go-grpc emits for the agent service.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*agentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodExecute, Handler: unaryHandler(methodExecute, agentServer.Execute)},
		{MethodName: methodTransfer, Handler: unaryHandler(methodTransfer, agentServer.Transfer)},
		{MethodName: methodClean, Handler: unaryHandler(methodClean, agentServer.Clean)},
		{MethodName: methodTerminate, Handler: unaryHandler(methodTerminate, agentServer.Terminate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "distcheck/agent/v1/agent.proto",
}

// Register attaches srv to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv *Server) {
	registrar.RegisterService(&serviceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

type unaryMethod func(agentServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(agentServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(agentServer), ctx, req.(*structpb.Struct))
		}

		return interceptor(ctx, in, info, handler)
	}
}
