package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc/credentials"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/application/pipeline"
	"github.com/bibbank/vulntriage/internal/application/usecase"
	"github.com/bibbank/vulntriage/internal/domain/port"
	"github.com/bibbank/vulntriage/internal/domain/service"
	"github.com/bibbank/vulntriage/internal/infrastructure/cache"
	"github.com/bibbank/vulntriage/internal/infrastructure/config"
	kafkapublisher "github.com/bibbank/vulntriage/internal/infrastructure/kafka"
	"github.com/bibbank/vulntriage/internal/infrastructure/ml"
	"github.com/bibbank/vulntriage/internal/infrastructure/nvd"
	pgrepo "github.com/bibbank/vulntriage/internal/infrastructure/postgres"
	grpcpresentation "github.com/bibbank/vulntriage/internal/presentation/grpc"
	"github.com/bibbank/vulntriage/internal/presentation/rest"
	"github.com/bibbank/vulntriage/pkg/auth"
	"github.com/bibbank/vulntriage/pkg/kafka"
	"github.com/bibbank/vulntriage/pkg/observability"
	"github.com/bibbank/vulntriage/pkg/postgres"
	"github.com/bibbank/vulntriage/pkg/tlsutil"
)

const serviceName = "vulntriage"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting triaged",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"workers", cfg.Workers,
	)

	// Initialize tracing.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer meterProvider.Shutdown(context.Background())

	// Load model artifacts. Scoring is impossible without them.
	artifacts, err := ml.LoadArtifacts(cfg.ArtifactDir)
	if err != nil {
		logger.Error("failed to load model artifacts", "dir", cfg.ArtifactDir, "error", err)
		os.Exit(1)
	}
	artifactVersions := make([]dto.ArtifactVersion, 0, 3)
	for _, info := range artifacts.Info() {
		logger.Info("loaded artifact", "name", info.Name, "version", info.Version, "path", info.Path)
		artifactVersions = append(artifactVersions, dto.ArtifactVersion{Name: info.Name, Version: info.Version})
	}

	// Wire domain services.
	scorer, err := service.NewScorer(artifacts.Vectorizer, artifacts.Classifier, artifacts.Novelty)
	if err != nil {
		logger.Error("failed to build scorer", "error", err)
		os.Exit(1)
	}

	// Optional sinks. Interfaces stay nil when disabled.
	var (
		repo      port.ScoredRecordRepository
		publisher port.EventPublisher
		checks    = map[string]rest.Pinger{}
	)

	if cfg.PersistenceEnabled() {
		pool, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to set up database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = pgrepo.NewScoredRecordRepository(pool)
		checks["database"] = func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) }
	} else {
		logger.Warn("DATABASE_URL not set, scored records are not persisted")
	}

	if cfg.PublishingEnabled() {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: []string{cfg.KafkaBroker}})
		if err != nil {
			logger.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = kafkapublisher.NewPublisher(producer, cfg.KafkaTopic, logger)
		logger.Info("publishing events", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	} else {
		logger.Warn("KAFKA_BROKER not set, domain events are not published")
	}

	// Wire the batch pipeline.
	pipelineMetrics, err := pipeline.NewMetrics(meterProvider.Meter("vulntriage/pipeline"))
	if err != nil {
		logger.Error("failed to register pipeline metrics", "error", err)
		os.Exit(1)
	}
	feed := nvd.NewClient(cfg.NVDBaseURL, cfg.NVDTimeout, logger)
	orchestrator := pipeline.NewOrchestrator(feed, scorer, cfg.Workers, pipelineMetrics, logger)

	// Single-description scores are memoized; batch scoring always runs the models.
	var textScorer usecase.TextScorer = scorer
	if cfg.ScoreCacheSize > 0 {
		textScorer, err = cache.NewScoreCache(scorer, cfg.ScoreCacheSize, meterProvider.Meter("vulntriage/cache"))
		if err != nil {
			logger.Error("failed to create score cache", "error", err)
			os.Exit(1)
		}
	}

	// Wire use cases.
	scoreDescriptionUC := usecase.NewScoreDescription(textScorer, logger)
	scoreLatestUC := usecase.NewScoreLatest(orchestrator, repo, publisher, cfg.NVDAPIKey, logger)
	getRecordUC := usecase.NewGetRecord(repo)
	getMetaUC := usecase.NewGetMeta(artifactVersions)

	// gRPC server.
	grpcCfg := grpcpresentation.ServerConfig{
		Address:    cfg.GRPCAddress(),
		Reflection: cfg.Environment != "production",
	}
	if cfg.AuthEnabled() {
		grpcCfg.JWT, err = newJWTService(cfg)
		if err != nil {
			logger.Error("failed to configure gRPC auth", "error", err)
			os.Exit(1)
		}
	}
	if cfg.TLSEnabled() {
		var creds credentials.TransportCredentials
		creds, err = tlsutil.ServerCredentials(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			logger.Error("failed to load TLS credentials", "error", err)
			os.Exit(1)
		}
		grpcCfg.Creds = creds
	}
	grpcHandler := grpcpresentation.NewTriageServiceHandler(scoreDescriptionUC, scoreLatestUC, getRecordUC, getMetaUC, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, grpcCfg, logger)

	// HTTP server.
	router := rest.NewRouter(
		rest.NewTriageHandler(scoreDescriptionUC, scoreLatestUC, getRecordUC, getMetaUC, logger),
		rest.NewHealthHandler(true, checks, logger),
		rest.RouterConfig{
			Metrics:     metricsHandler,
			CORSOrigins: cfg.CORSOrigins,
			RateLimit:   cfg.RateLimit,
		},
		logger,
	)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.NVDTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.TLSEnabled() {
		httpServer.TLSConfig, err = tlsutil.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			logger.Error("failed to load TLS config", "error", err)
			os.Exit(1)
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress(), "tls", cfg.TLSEnabled())
		var err error
		if httpServer.TLSConfig != nil {
			// Certificates are already loaded into TLSConfig.
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("triaged started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"persistence", cfg.PersistenceEnabled(),
		"publishing", cfg.PublishingEnabled(),
		"auth", cfg.AuthEnabled(),
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down triaged")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("triaged stopped")
}

// connectDatabase opens the pool, applies pending migrations and verifies connectivity.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	version, err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir)
	if err != nil {
		return nil, err
	}
	logger.Info("database migrated", "version", version)

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := postgres.NewPool(dbCtx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	if err := postgres.HealthCheck(dbCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to database")
	return pool, nil
}

// newJWTService verifies tokens with the shared secret, or with the RSA
// public key when no secret is configured.
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Secret: cfg.JWTSecret}
	if jwtCfg.Secret == "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = pem
	}
	return auth.NewJWTService(jwtCfg)
}
