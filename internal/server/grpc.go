package server

import (
	"fmt"
	"log/slog"
	"net"

	recommendationv1 "github.com/ayia-hosni/study-sync-backend/api/recommendation/v1"
	"github.com/ayia-hosni/study-sync-backend/internal/query"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCOptions configures the gRPC server.
type GRPCOptions struct {
	// MaxMessageSize bounds both received and sent messages. Zero keeps the
	// grpc-go default.
	MaxMessageSize int
	// TLSCertFile and TLSKeyFile enable TLS when both are set.
	TLSCertFile string
	TLSKeyFile  string
	// AuthToken, when non-empty, is required as a Bearer token on every RPC
	// except health checks.
	AuthToken string
	Logger    *slog.Logger
}

// GRPCServer is the gRPC server hosting PostDetailService and the standard
// health service.
type GRPCServer struct {
	srv    *grpc.Server
	health *health.Server
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the PostDetailService backed by svc, health, and reflection.
func NewGRPCServer(svc *query.Service, opts GRPCOptions) (*GRPCServer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serverOpts := []grpc.ServerOption{
		grpc.ForceServerCodec(recommendationv1.Codec{}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger, emptyResponses),
			LoggingInterceptor(logger),
			AuthInterceptor(opts.AuthToken),
		),
	}
	if opts.MaxMessageSize > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(opts.MaxMessageSize),
			grpc.MaxSendMsgSize(opts.MaxMessageSize),
		)
	}
	if opts.TLSCertFile != "" || opts.TLSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(opts.TLSCertFile, opts.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}

	srv := grpc.NewServer(serverOpts...)
	recommendationv1.RegisterPostDetailServiceServer(srv, NewPostDetailServer(svc))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(recommendationv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	return &GRPCServer{srv: srv, health: healthServer}, nil
}

// Serve accepts connections on lis until Stop is called.
func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and waits for in-flight RPCs.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
