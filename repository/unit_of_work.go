package repository

import (
	"context"
	"errors"
	"fmt"

	"roundsettle/application"
	"roundsettle/database"
	"roundsettle/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	accountRepo            interfaces.AccountRepository
	roundRepo              interfaces.GameRoundRepository
	betRepo                interfaces.BetRepository
	ledgerRepo             interfaces.LedgerEntryRepository
	commissionRepo         interfaces.CommissionRecordRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// UnitOfWorkFactory creates transaction-scoped units of work
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork whose events are held by the given publisher until commit
func (f *UnitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepository(tx)
	u.roundRepo = newGameRoundRepository(tx)
	u.betRepo = newBetRepository(tx)
	u.ledgerRepo = newLedgerEntryRepository(tx)
	u.commissionRepo = newCommissionRecordRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// GameRoundRepository returns the round repository for this unit of work
func (u *unitOfWork) GameRoundRepository() interfaces.GameRoundRepository {
	if u.roundRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roundRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// LedgerEntryRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// CommissionRecordRepository returns the commission repository for this unit of work
func (u *unitOfWork) CommissionRecordRepository() interfaces.CommissionRecordRepository {
	if u.commissionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.commissionRepo
}

// EventBus returns the transactional publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work created without a publisher")
	}
	return u.transactionalPublisher
}
