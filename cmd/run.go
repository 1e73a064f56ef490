package cmd

import (
	"context"
	"fmt"
	"time"

	"bookmaker/application"
	"bookmaker/config"
	"bookmaker/database"
	"bookmaker/domain/services"
	"bookmaker/infrastructure"
	"bookmaker/infrastructure/observability"
	"bookmaker/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement core
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithField("environment", cfg.Environment).Info("Starting bookmaker")

	// Database
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// NATS carries the outbound domain events and both inbound feeds
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subjectMapper := infrastructure.NewEventSubjectMapper(cfg.EventSubjectPrefix)
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)

	// Redis quote cache
	rdb, err := infrastructure.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	quoteCache := infrastructure.NewRedisQuoteCache(rdb)

	// Unit of work factory: each transaction buffers its events and flushes
	// them only after commit
	uowFactory := repository.NewUnitOfWorkFactory(db, func() application.TransactionalEventPublisher {
		return infrastructure.NewTransactionalPublisher(eventPublisher)
	})

	// Odds intake: probability estimates in, priced quotes out
	oddsEngine := services.NewOddsEngine()
	quoteService := services.NewQuoteService(repository.NewQuoteRepository(db), quoteCache, eventPublisher)
	oddsConsumer := infrastructure.NewOddsFeedConsumer(
		natsClient,
		cfg.OddsFeedSubject,
		infrastructure.NewTokenBucketLimiter(cfg.FeedRatePerSecond),
		oddsEngine,
		quoteService,
	)
	if err := oddsConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start odds feed consumer: %w", err)
	}

	// Settlement pipeline: final results in, payouts out
	resolver := services.NewOutcomeResolver()
	resultHandler := application.NewMatchResultHandler(uowFactory, resolver, cfg.SettlementWorkers)
	resultConsumer := infrastructure.NewMatchResultConsumer(
		natsClient,
		cfg.ResultFeedSubject,
		infrastructure.NewTokenBucketLimiter(cfg.FeedRatePerSecond),
		resultHandler,
	)
	if err := resultConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start match result consumer: %w", err)
	}

	// Metrics and health
	metricsServer := observability.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	log.Info("Bookmaker is running")
	<-ctx.Done()

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}
	natsClient.Close()
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("Redis close failed")
	}
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
