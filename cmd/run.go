package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roundsettle/adminapi"
	"roundsettle/application"
	"roundsettle/config"
	"roundsettle/database"
	"roundsettle/domain/interfaces"
	"roundsettle/infrastructure"
	"roundsettle/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement service
func Run(ctx context.Context) error {
	log.Info("Starting round settlement service...")

	// Load configuration
	cfg := config.Get()

	// Apply pending migrations
	log.Info("Running database migrations...")
	if err := database.MigrateUp(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing database connection...")
		db.Close()
	}()

	// Initialize metrics
	log.Info("Initializing OpenTelemetry metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	// Initialize event publisher
	publisher, closePublisher, err := newEventPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	log.Info("Initializing settlement engine...")
	eng, err := newEngine(cfg, db, publisher)
	if err != nil {
		return err
	}
	worker := application.NewSettlementWorker(eng.settler, eng.opener, cfg.SettlementInterval)
	log.Info("Settlement engine initialized successfully")

	// Start the periodic trigger
	stopScheduler, err := startScheduler(ctx, cfg, db, worker)
	if err != nil {
		return err
	}
	defer stopScheduler()

	// Start the on-demand trigger
	if cfg.AdminAPIEnabled() {
		server := adminapi.NewServer(eng.settler, eng.distributor, eng.ledgerOps, cfg.AdminJWTSecret)
		go func() {
			if err := server.Listen(cfg.AdminAPIAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Admin API stopped")
			}
		}()
		defer func() {
			log.Info("Shutting down admin API...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("Error shutting down admin API")
			}
		}()
	} else {
		log.Info("ADMIN_JWT_SECRET not set, admin API disabled")
	}

	// Wait for context cancellation
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"scheduler":   cfg.Scheduler,
		"interval":    cfg.SettlementInterval,
	}).Info("Settlement service is running")
	<-ctx.Done()

	log.Info("Shutting down settlement service...")
	return nil
}

// newEventPublisher connects to NATS when configured and falls back to a no-op publisher
func newEventPublisher(ctx context.Context, cfg *config.Config) (interfaces.EventPublisher, func(), error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, events will not be published")
		return infrastructure.NewNoopEventPublisher(), func() {}, nil
	}

	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := publisher.EnsureSettlementStream(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure settlement stream: %w", err)
	}
	log.Info("NATS event publisher initialized successfully")

	return publisher, func() {
		log.Info("Closing NATS connection...")
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}, nil
}

// startScheduler starts the configured periodic trigger and returns its stop function
func startScheduler(ctx context.Context, cfg *config.Config, db *database.DB, worker *application.SettlementWorker) (func(), error) {
	if cfg.Scheduler != config.SchedulerRiver {
		log.WithField("interval", cfg.SettlementInterval).Info("Starting settlement ticker...")
		return worker.Start(ctx), nil
	}

	log.Info("Starting River settlement scheduler...")
	if err := infrastructure.MigrateRiver(ctx, db); err != nil {
		return nil, err
	}
	scheduler, err := infrastructure.NewRiverScheduler(db, cfg.SettlementInterval, worker.Tick)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("Error stopping River scheduler")
		}
	}, nil
}
