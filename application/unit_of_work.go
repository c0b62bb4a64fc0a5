package application

import (
	"context"

	"roundsettle/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and publishes the events raised inside it
	Commit() error

	// Rollback rolls back the transaction and drops its pending events
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	GameRoundRepository() interfaces.GameRoundRepository
	BetRepository() interfaces.BetRepository
	LedgerEntryRepository() interfaces.LedgerEntryRepository
	CommissionRecordRepository() interfaces.CommissionRecordRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
