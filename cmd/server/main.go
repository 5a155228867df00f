// server runs the authkeep gRPC process: health service, auth/audit/telemetry
// interceptors, bounded async audit writer, and OTel export.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authkeep/authkeep/internal/audit"
	auditrepo "github.com/authkeep/authkeep/internal/audit/repository"
	"github.com/authkeep/authkeep/internal/config"
	"github.com/authkeep/authkeep/internal/db"
	"github.com/authkeep/authkeep/internal/health"
	"github.com/authkeep/authkeep/internal/security"
	"github.com/authkeep/authkeep/internal/server"
	"github.com/authkeep/authkeep/internal/telemetry"
	otelsetup "github.com/authkeep/authkeep/internal/telemetry/otel"
	"github.com/authkeep/authkeep/internal/telemetry/producer"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "authkeep", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	// Audit events go to Postgres via the bounded async writer and are
	// mirrored to Kafka when brokers are configured, otherwise to OTel logs.
	var emitter telemetry.EventEmitter
	kafkaProducer, err := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitter = kafkaProducer
	} else {
		emitter = otelsetup.NewEventEmitter(providers.LoggerProvider)
	}

	writer := audit.NewAsyncWriter(auditrepo.NewPostgresRepository(database), emitter, cfg.AuditQueueSize)
	writer.Start()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s, hs := server.New(server.Deps{
		Tokens:        tokens,
		AuditRecorder: writer,
		Emitter:       emitter,
	})

	checker := health.NewChecker(hs, database, "", 10*time.Second)
	go checker.Run(ctx)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	log.Println("shutting down gRPC server...")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.GracefulStop()

	drainCtx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer cancel()
	writer.Close(drainCtx)
	if err := providers.Shutdown(drainCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
