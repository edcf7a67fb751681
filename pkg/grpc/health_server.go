// Package grpc exposes the storefront's gRPC health service and a client to
// probe it on other instances.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/cloudkitchen/pkg/config"
)

const (
	defaultCheckInterval = 10 * time.Second
	pingTimeout          = 2 * time.Second
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer reports SERVING while every dependency answers a ping. Each
// dependency also has its own service name.
type HealthServer struct {
	config   *config.ServerConfig
	logger   *zap.Logger
	checks   map[string]Pinger
	interval time.Duration

	health *health.Server
	srv    *grpc.Server
}

func NewHealthServer(cfg *config.ServerConfig, logger *zap.Logger, checks map[string]Pinger) *HealthServer {
	s := &HealthServer{
		config:   cfg,
		logger:   logger.Named("health"),
		checks:   checks,
		interval: defaultCheckInterval,
		health:   health.NewServer(),
		srv:      grpc.NewServer(),
	}

	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetInterval changes how often Run re-checks the dependencies.
func (s *HealthServer) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start listens on the configured address and serves until Stop.
func (s *HealthServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("Health service started", zap.String("address", addr))
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Check pings every dependency once and publishes the result. It reports
// whether all of them answered.
func (s *HealthServer) Check(ctx context.Context) bool {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := s.checks[name].Ping(pctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("Dependency check failed", zap.String("dependency", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}

	if healthy {
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	} else {
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

// Run checks immediately and then on every interval until ctx is done.
func (s *HealthServer) Run(ctx context.Context) {
	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
