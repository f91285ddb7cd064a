package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "spiral.v1.SpiralService"

type method func(Commands, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Commands), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(Commands), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the spiral service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Commands)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartRun", Commands.StartRun),
		unary("GetRun", Commands.GetRun),
		unary("AttemptDoor", Commands.AttemptDoor),
		unary("HandleFortune", Commands.HandleFortune),
		unary("BankAndExit", Commands.BankAndExit),
		unary("SetAutoBankFloor", Commands.SetAutoBankFloor),
		unary("GetProgress", Commands.GetProgress),
		unary("PurchaseUpgrade", Commands.PurchaseUpgrade),
		unary("ClaimDailyReward", Commands.ClaimDailyReward),
		unary("Simulate", Commands.Simulate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spiral/v1/spiral.proto",
}

// Server hosts the spiral gRPC API with the standard health service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     zerolog.Logger
}

// NewServer registers svc and the health service.
func NewServer(svc Commands, logger zerolog.Logger) *Server {
	s := &Server{health: health.NewServer(), logger: logger}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	s.grpcServer.RegisterService(&ServiceDesc, svc)
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("elapsed", time.Since(start)).
		Msg("call")
	return resp, err
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC listening")
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Client calls the spiral service over conn.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and returns the response message.
func (c *Client) Call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
