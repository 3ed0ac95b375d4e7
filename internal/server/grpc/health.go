// Package grpcserver runs the gRPC health endpoint probed by orchestrators.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "sampledispatch.v1.API"

// Pinger checks a dependency, usually the database pool.
type Pinger func(ctx context.Context) error

// NewHealth builds a gRPC server exposing grpc.health.v1 and returns the
// health registry so callers can flip serving status. Extra options (e.g.
// TLS credentials) are applied after the interceptor chain.
func NewHealth(log *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log))}, opts...)
	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	setAll(hs, healthpb.HealthCheckResponse_NOT_SERVING)
	return gs, hs
}

func setAll(hs *health.Server, st healthpb.HealthCheckResponse_ServingStatus) {
	hs.SetServingStatus("", st)
	hs.SetServingStatus(ServiceName, st)
}

// Watch pings every interval and reports SERVING while ping succeeds.
// It returns when ctx is done, leaving the status NOT_SERVING.
func Watch(ctx context.Context, hs *health.Server, ping Pinger, every time.Duration, log *zap.Logger) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, every)
		defer cancel()
		if err := ping(pctx); err != nil {
			log.Warn("health ping failed", zap.Error(err))
			setAll(hs, healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		setAll(hs, healthpb.HealthCheckResponse_SERVING)
	}

	check()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			setAll(hs, healthpb.HealthCheckResponse_NOT_SERVING)
			return
		case <-t.C:
			check()
		}
	}
}
