package utils

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"
	"roundsettle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ApplyLedgerEntry atomically mutates an account balance, appends the matching
// ledger entry and emits a balance change event.
// This is the single entry point for all balance changes in the system.
func ApplyLedgerEntry(ctx context.Context, accountRepo interfaces.AccountRepository, ledgerRepo interfaces.LedgerEntryRepository, eventPublisher interfaces.EventPublisher, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	// The increment must precede the append so entry IDs follow the row lock order
	newBalance, err := accountRepo.IncrementBalance(ctx, entry.AccountID, entry.Amount)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", entry.AccountID, err)
	}
	entry.BalanceAfter = newBalance

	if err := ledgerRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		AccountID:     entry.AccountID,
		LedgerEntryID: entry.ID,
		OldBalance:    entry.BalanceBefore(),
		NewBalance:    entry.BalanceAfter,
		ChangeAmount:  entry.Amount,
		Kind:          entry.Kind,
		RoundID:       entry.RoundID,
	}
	log.WithFields(log.Fields{
		"accountID":    event.AccountID,
		"oldBalance":   event.OldBalance,
		"newBalance":   event.NewBalance,
		"kind":         event.Kind,
		"changeAmount": event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
