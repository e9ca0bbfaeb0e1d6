package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"slack-identity-linker/internal/audit"
	auditrepo "slack-identity-linker/internal/audit/repository"
	"slack-identity-linker/internal/config"
	"slack-identity-linker/internal/db"
	healthhandler "slack-identity-linker/internal/health/handler"
	identityhandler "slack-identity-linker/internal/identity/handler"
	identityrepo "slack-identity-linker/internal/identity/repository"
	identityservice "slack-identity-linker/internal/identity/service"
	integrationrepo "slack-identity-linker/internal/integration/repository"
	"slack-identity-linker/internal/logger"
	membershiprepo "slack-identity-linker/internal/membership/repository"
	organizationrepo "slack-identity-linker/internal/organization/repository"
	"slack-identity-linker/internal/security"
	"slack-identity-linker/internal/server"
	"slack-identity-linker/internal/server/middleware"
	"slack-identity-linker/internal/slack"
	"slack-identity-linker/internal/telemetry"
	telemetryotel "slack-identity-linker/internal/telemetry/otel"
	"slack-identity-linker/internal/telemetry/producer"
)

const (
	healthWatchInterval = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()

	var emitter telemetry.EventEmitter = telemetryotel.NewEventEmitter(providers.LoggerProvider)
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			return err
		}
		defer kp.Close()
		emitter = kp
		zl.Info("telemetry: emitting link events to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.TelemetryKafkaTopic))
	}

	signer, err := security.NewSigner(cfg.LinkSigningSecret, cfg.LinkTTL())
	if err != nil {
		return err
	}
	var tokens middleware.AccessValidator
	if cfg.JWTPublicKey != "" {
		pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			return err
		}
		tokens = security.NewTokenProvider(nil, pub, cfg.JWTIssuer, cfg.JWTAudience, 0)
	} else {
		zl.Warn("JWT_PUBLIC_KEY is not set; every link request will be unauthenticated")
	}

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIPFromContext, zl)
	linker := identityservice.NewLinkService(
		membershiprepo.NewPostgresRepository(conn),
		organizationrepo.NewPostgresRepository(conn),
		integrationrepo.NewPostgresRepository(conn),
		identityrepo.NewPostgresRepository(conn),
		slack.NewClient(cfg.NotifyTimeout()),
		identityservice.WithAuditLogger(auditLogger),
		identityservice.WithEventEmitter(emitter),
		identityservice.WithTracer(providers.Tracer()),
		identityservice.WithLogger(zl),
	)

	linkHandler := identityhandler.NewLinkHandler(signer, linker, zl)
	// Behind a proxy the Host header may not match the public URL.
	if err := linkHandler.TrustOrigin(cfg.BaseURL); err != nil {
		zl.Warn("BASE_URL is not a bare origin; relying on same-origin checks only", zap.String("base_url", cfg.BaseURL), zap.Error(err))
	}

	checker := healthhandler.NewChecker(conn, zl)
	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Tokens: tokens,
			Health: checker,
			Link:   linkHandler,
			Log:    zl,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var stopGRPC func()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcSrv, hs := server.NewGRPCServer()
		go checker.Watch(ctx, hs, healthWatchInterval)
		go func() {
			zl.Info("grpc health server listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		stopGRPC = grpcSrv.GracefulStop
	}

	var serveErr error
	select {
	case <-ctx.Done():
		zl.Info("shutting down")
	case serveErr = <-errCh:
		zl.Error("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	if stopGRPC != nil {
		stopGRPC()
	}
	// Let in-flight async telemetry emits finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		zl.Warn("otel shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
	return serveErr
}
