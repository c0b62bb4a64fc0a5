package services

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type ledgerAuditor struct {
	accountRepo interfaces.AccountReader
	ledgerRepo  interfaces.LedgerEntryRepository
}

// NewLedgerAuditor creates a new ledger auditor
func NewLedgerAuditor(accountRepo interfaces.AccountReader, ledgerRepo interfaces.LedgerEntryRepository) interfaces.LedgerAuditor {
	return &ledgerAuditor{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// VerifyAccount replays the account's ledger from zero and compares every
// balance snapshot and the stored balance against the running sum.
func (a *ledgerAuditor) VerifyAccount(ctx context.Context, accountID int64) (*entities.LedgerAudit, error) {
	account, err := a.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrAccountNotFound, accountID)
	}

	entries, err := a.ledgerRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for account %d: %w", accountID, err)
	}

	audit := &entities.LedgerAudit{
		AccountID:     accountID,
		EntryCount:    len(entries),
		StoredBalance: account.Balance,
	}

	var running int64
	for _, entry := range entries {
		running += entry.Amount
		if entry.BalanceAfter != running {
			audit.Mismatches = append(audit.Mismatches, entities.LedgerMismatch{
				EntryID:  entry.ID,
				Expected: running,
				Recorded: entry.BalanceAfter,
			})
		}
	}
	audit.ReplayedBalance = running

	if !audit.IsConsistent() {
		log.WithFields(log.Fields{
			"account_id":       accountID,
			"replayed_balance": audit.ReplayedBalance,
			"stored_balance":   audit.StoredBalance,
			"mismatches":       len(audit.Mismatches),
		}).Warn("Ledger audit found inconsistencies")
	}

	return audit, nil
}
