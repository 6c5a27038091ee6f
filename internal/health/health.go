// Package health exposes process and database health over the standard gRPC
// health protocol.
package health

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/dailytasks/internal/middleware"
)

// TaskAPIService is the service name reported alongside the overall "" entry.
const TaskAPIService = "tasks.v1.TaskAPI"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the health server.
type Options struct {
	// Interval between database pings. Zero disables the watcher.
	Interval time.Duration
	// PingTimeout bounds each ping. Defaults to 2s.
	PingTimeout time.Duration
	// EnableReflection registers the gRPC reflection service.
	EnableReflection bool
}

// Server wraps a gRPC server carrying the health service.
type Server struct {
	GRPC   *grpc.Server
	health *health.Server
	db     Pinger
	opts   Options
}

// NewServer creates the gRPC server and marks every service SERVING.
func NewServer(db Pinger, opts Options) *Server {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	if opts.EnableReflection {
		reflection.Register(grpcServer)
		log.Println("gRPC reflection enabled (disable in production)")
	}

	s := &Server{
		GRPC:   grpcServer,
		health: healthServer,
		db:     db,
		opts:   opts,
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(TaskAPIService, status)
}

// Check pings the database once and publishes the result.
func (s *Server) Check(ctx context.Context) {
	if s.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.PingTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		log.Printf("[health] database ping failed: %v", err)
		s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
}

// Watch re-checks the database every Interval until ctx is cancelled.
func (s *Server) Watch(ctx context.Context) {
	if s.db == nil || s.opts.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	log.Printf("[health] watching database every %s", s.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Stop marks all services NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}

// loggingInterceptor logs incoming requests
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	clientInfo := middleware.GetClientInfoFromContext(ctx)
	resp, err := handler(ctx, req)
	duration := time.Since(start)
	logLevel := "INFO"
	if err != nil {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s completed in %v (ip: %s)", logLevel, info.FullMethod, duration, clientInfo.IPAddress)
	if err != nil {
		log.Printf("[ERROR] %s error: %v", info.FullMethod, err)
	}
	return resp, err
}
