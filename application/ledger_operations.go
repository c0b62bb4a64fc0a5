package application

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/services"
)

// LedgerOperations exposes the manual balance tools used by operators
type LedgerOperations struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerOperations creates a new ledger operations handler
func NewLedgerOperations(uowFactory UnitOfWorkFactory) *LedgerOperations {
	return &LedgerOperations{uowFactory: uowFactory}
}

// Adjust applies a signed adjustment entry to an account
func (o *LedgerOperations) Adjust(ctx context.Context, accountID int64, amount int64, reason string) (*entities.LedgerEntry, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledgerService := services.NewLedgerService(
		uow.AccountRepository(),
		uow.BetRepository(),
		uow.LedgerEntryRepository(),
		uow.EventBus(),
	)

	entry, err := ledgerService.Adjust(ctx, accountID, amount, reason)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

// Audit replays an account's ledger against its stored balance
func (o *LedgerOperations) Audit(ctx context.Context, accountID int64) (*entities.LedgerAudit, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auditor := services.NewLedgerAuditor(uow.AccountRepository(), uow.LedgerEntryRepository())
	return auditor.VerifyAccount(ctx, accountID)
}
