package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the monitor through the standard gRPC health protocol.
type GRPCServer struct {
	monitor  *Monitor
	health   *grpchealth.Server
	server   *grpc.Server
	port     int
	interval time.Duration
}

// NewGRPCServer creates a gRPC health server that re-probes every interval.
func NewGRPCServer(monitor *Monitor, port int, interval time.Duration) *GRPCServer {
	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		monitor:  monitor,
		health:   hs,
		server:   srv,
		port:     port,
		interval: interval,
	}
}

// Start listens and serves until Stop is called or ctx ends the status loop.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen for grpc health: %w", err)
	}

	s.refresh(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	return s.server.Serve(lis)
}

// Stop marks the service as not serving and stops the server gracefully.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) refresh(ctx context.Context) {
	report := s.monitor.CheckHealth(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if report.SystemStatus == StatusCritical {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	slog.Debug("gRPC health status updated", "status", status.String())
}
