// Package handler serves liveness and readiness over HTTP and keeps the gRPC health service in sync.
package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

// Pinger checks a dependency (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusSetter is implemented by *health.Server from google.golang.org/grpc/health.
type StatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// Checker reports readiness from the database ping.
type Checker struct {
	pinger Pinger
	log    *zap.Logger
}

// NewChecker returns a Checker. pinger may be nil, in which case the service is always ready.
func NewChecker(pinger Pinger, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{pinger: pinger, log: log}
}

// Check pings the dependency with a short timeout.
func (c *Checker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.pinger.PingContext(ctx)
}

// Status maps Check to a gRPC serving status.
func (c *Checker) Status(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if err := c.Check(ctx); err != nil {
		c.log.Warn("health: readiness check failed", zap.Error(err))
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// Watch updates the overall ("") serving status of setter every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, setter StatusSetter, interval time.Duration) {
	setter.SetServingStatus("", c.Status(ctx))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			setter.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			return
		case <-ticker.C:
			setter.SetServingStatus("", c.Status(ctx))
		}
	}
}
