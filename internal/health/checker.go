// Package health keeps the gRPC health service in sync with backend readiness.
package health

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a backend dependency is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker periodically pings the database and flips the health service
// between SERVING and NOT_SERVING. A nil pinger means always serving.
type Checker struct {
	hs       *health.Server
	pinger   Pinger
	service  string
	interval time.Duration
}

// NewChecker returns a Checker updating hs for the given service name
// (empty string covers the server-wide default). interval <= 0 defaults
// to 10 seconds.
func NewChecker(hs *health.Server, pinger Pinger, service string, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Checker{hs: hs, pinger: pinger, service: service, interval: interval}
}

// Run checks immediately, then on every tick until ctx is cancelled.
// On cancellation the status is left NOT_SERVING so load balancers drain.
func (c *Checker) Run(ctx context.Context) {
	c.check(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.hs.SetServingStatus(c.service, healthpb.HealthCheckResponse_NOT_SERVING)
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Checker) check(ctx context.Context) {
	if c.pinger == nil {
		c.hs.SetServingStatus(c.service, healthpb.HealthCheckResponse_SERVING)
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.pinger.PingContext(pingCtx); err != nil {
		log.Printf("health: db ping failed: %v", err)
		c.hs.SetServingStatus(c.service, healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	c.hs.SetServingStatus(c.service, healthpb.HealthCheckResponse_SERVING)
}
