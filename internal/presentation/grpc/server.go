package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/vulntriage/pkg/auth"
)

// healthService is the name reported to grpc.health.v1 alongside the empty (overall) name.
const healthService = "vulntriage"

// ServerConfig holds the optional transport features of the gRPC server.
type ServerConfig struct {
	Address string
	// JWT enables bearer-token auth on TriageService methods when non-nil.
	JWT *auth.JWTService
	// Creds enables TLS when non-nil.
	Creds      credentials.TransportCredentials
	Reflection bool
}

// batchRoles guards the feed-backed method. Other methods accept any authenticated caller.
var batchRoles = map[string][]string{
	MethodScoreLatest: {auth.RoleAdmin, auth.RoleService},
}

// Server wraps the gRPC server with triage service handlers.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	address    string
}

// NewServer creates a new gRPC server for the triage service.
func NewServer(handler *TriageServiceHandler, cfg ServerConfig, logger *slog.Logger) *Server {
	serverOpts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}

	if cfg.JWT != nil {
		// Skip health check and reflection methods.
		authInterceptor := auth.UnaryAuthInterceptor(cfg.JWT, []string{
			"/grpc.health.v1.Health/Check",
			"/grpc.health.v1.Health/Watch",
		})
		serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(authInterceptor, auth.MethodRoles(batchRoles)))
		logger.Info("gRPC auth enabled")
	} else {
		logger.Warn("gRPC auth not configured, accepting unauthenticated calls")
	}

	if cfg.Creds != nil {
		serverOpts = append(serverOpts, grpc.Creds(cfg.Creds))
		logger.Info("gRPC TLS enabled")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	RegisterTriageServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
		address:    cfg.Address,
	}
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting",
		slog.String("address", listener.Addr().String()),
	)
	return s.grpcServer.Serve(listener)
}

// Stop marks the service as not serving and gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
