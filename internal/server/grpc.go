// Package server assembles the gRPC server process: interceptor chain,
// health service, and OTel instrumentation.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/authkeep/authkeep/internal/audit"
	"github.com/authkeep/authkeep/internal/security"
	"github.com/authkeep/authkeep/internal/server/interceptors"
	"github.com/authkeep/authkeep/internal/telemetry"
)

// healthCheckMethod is the standard gRPC health check full method name.
const healthCheckMethod = "/grpc.health.v1.Health/Check"

// DefaultPublicMethods lists full method names reachable without a Bearer
// token: registration, login, token refresh, and health checks.
//
// The auth service methods name the RPC surface embedding applications
// register on the server New returns; this process itself only serves the
// health service, so for it the set reduces to the health methods.
func DefaultPublicMethods() map[string]bool {
	return map[string]bool{
		"/authkeep.auth.v1.AuthService/Register": true,
		"/authkeep.auth.v1.AuthService/Login":    true,
		"/authkeep.auth.v1.AuthService/Refresh":  true,
		healthCheckMethod:                        true,
		"/grpc.health.v1.Health/Watch":           true,
	}
}

// Deps holds the dependencies wired into the server's interceptor chain.
// Nil fields degrade gracefully: a nil AuditRecorder disables RPC auditing,
// a nil Emitter disables request telemetry.
type Deps struct {
	// Tokens validates Bearer access tokens. Required.
	Tokens *security.TokenProvider
	// AuditRecorder receives post-RPC audit entries (the bounded async writer).
	AuditRecorder audit.Recorder
	// Emitter receives grpc_request telemetry events (Kafka or OTel logs).
	Emitter telemetry.EventEmitter
	// PublicMethods overrides DefaultPublicMethods when non-nil.
	PublicMethods map[string]bool
}

// New builds the gRPC server with the auth -> audit -> telemetry interceptor
// chain and the OTel stats handler, registers the standard health service,
// and returns both. The health service starts NOT_SERVING; the caller flips
// it (health.Checker) once the database is reachable.
func New(deps Deps) (*grpc.Server, *grpchealth.Server) {
	public := deps.PublicMethods
	if public == nil {
		public = DefaultPublicMethods()
	}
	skip := map[string]bool{
		healthCheckMethod:              true,
		"/grpc.health.v1.Health/Watch": true,
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(deps.Tokens, public),
			interceptors.AuditUnary(deps.AuditRecorder, skip),
			interceptors.TelemetryUnary(deps.Emitter, skip),
		),
	)

	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}
