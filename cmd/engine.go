package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"roundsettle/application"
	"roundsettle/config"
	"roundsettle/database"
	"roundsettle/domain/interfaces"
	"roundsettle/domain/services"
	"roundsettle/infrastructure"
	"roundsettle/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// engine bundles the settlement components shared by serve and the one-shot commands
type engine struct {
	db          *database.DB
	uowFactory  *infrastructure.UnitOfWorkFactory
	settler     *application.RoundSettler
	distributor *application.CommissionDistributor
	opener      *application.RoundOpener
	ledgerOps   *application.LedgerOperations
}

func connect(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")
	return db, nil
}

func newEngine(cfg *config.Config, db *database.DB, publisher interfaces.EventPublisher) (*engine, error) {
	games, err := config.LoadGameTable(cfg.GameConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load game table: %w", err)
	}
	log.WithField("games", len(games)).Info("Game table loaded")

	var metrics application.MetricsRecorder
	if mp := observability.GetMetrics(); mp != nil {
		metrics = mp
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	resolver := services.NewOutcomeResolver(games, rand.New(rand.NewSource(time.Now().UnixNano())))
	distributor := application.NewCommissionDistributor(uowFactory, cfg.CommissionRates, cfg.HierarchyMaxDepth, metrics)

	return &engine{
		db:          db,
		uowFactory:  uowFactory,
		settler:     application.NewRoundSettler(uowFactory, resolver, distributor, publisher, metrics),
		distributor: distributor,
		opener:      application.NewRoundOpener(uowFactory, games),
		ledgerOps:   application.NewLedgerOperations(uowFactory),
	}, nil
}
