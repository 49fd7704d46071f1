package observability

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthServer exposes the dependency checks over the standard gRPC health protocol.
// Each check is registered as its own service name; the empty name carries the overall status.
type GRPCHealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checks   map[string]HealthCheckFunc
	interval time.Duration
	logger   zerolog.Logger
}

// NewGRPCHealthServer creates a gRPC server with the health service registered
func NewGRPCHealthServer(checks map[string]HealthCheckFunc, interval time.Duration) *GRPCHealthServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCHealthServer{
		server:   srv,
		health:   hs,
		checks:   checks,
		interval: interval,
		logger:   ComponentLogger("grpc_health"),
	}
}

// Refresh runs the checks once and publishes their serving status
func (g *GRPCHealthServer) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dependencies, allHealthy := CheckDependencies(ctx, g.checks)
	for name, dep := range dependencies {
		g.health.SetServingStatus(name, servingStatus(dep.Status == "healthy"))
	}
	g.health.SetServingStatus("", servingStatus(allHealthy))
}

// Serve refreshes the statuses periodically and serves until ctx is done or the listener fails
func (g *GRPCHealthServer) Serve(ctx context.Context, lis net.Listener) error {
	g.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				g.health.Shutdown()
				g.server.GracefulStop()
				return
			case <-ticker.C:
				g.Refresh(ctx)
			}
		}
	}()

	g.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
	return g.server.Serve(lis)
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
