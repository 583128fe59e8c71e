package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lifelink/blood-donor-matching-backend/internal/api/rest"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/cache"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/config"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/notification"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/repository"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/telemetry"
	"github.com/lifelink/blood-donor-matching-backend/internal/metrics"
	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

func main() {
	var otlpEndpoint = flag.String("otlp-endpoint", "localhost:4317", "OTLP collector endpoint")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceVersion = cfg.Version
	telCfg.Environment = cfg.Environment
	telCfg.OTLPEndpoint = *otlpEndpoint

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telCfg)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	registry, err := metrics.NewRegistry("donor-matching")
	if err != nil {
		log.Fatalf("failed to create metrics registry: %v", err)
	}

	var sweepLock matching.SweepLock = matching.NoopSweepLock{}
	if cfg.Redis.SweepLockEnabled {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("failed to create zap logger: %v", err)
		}
		defer zapLogger.Sync()

		redisClient, err := cache.NewRedisClient(&cfg.Redis, zapLogger)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		sweepLock = cache.NewRedisSweepLock(redisClient, zapLogger, cfg.Redis.SweepLockTTL)
	}

	donorRepo := repository.NewDonorRepository(pool)
	requestStore := repository.NewRequestStore(pool)
	notifier := notification.NewHTTPNotifier(cfg.Notification, logger)

	processRegistry := matching.NewRegistry()
	filter := matching.NewEligibilityFilter(donorRepo, requestStore, cfg.Matching.CandidateCap)
	scorer := matching.NewScoringEngine(cfg.Matching.Scoring)
	dispatcher := matching.NewDispatcher(notifier, logger, cfg.Matching.Dispatcher)

	scheduler := matching.NewScheduler(processRegistry, filter, scorer, dispatcher,
		requestStore, sweepLock, registry, logger, cfg.Matching.Scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	svc := matching.NewService(processRegistry, scheduler, requestStore, logger)

	go publishProcessStats(ctx, svc, logger)

	handler := rest.NewHandler(svc, logger)
	server := rest.NewServer(cfg.Server, handler, registry, logger)

	logger.Info("donor matching service starting",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	if err := server.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("donor matching service stopped")
}
