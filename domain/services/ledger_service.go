package services

import (
	"context"
	"errors"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"
	"roundsettle/domain/utils"

	log "github.com/sirupsen/logrus"
)

// AnomalyAccountNotFound marks a winning bet whose account no longer exists
const AnomalyAccountNotFound = "account_not_found"

type ledgerService struct {
	accountRepo    interfaces.AccountRepository
	betRepo        interfaces.BetRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	betRepo interfaces.BetRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:    accountRepo,
		betRepo:        betRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// ApplyBetResult marks a placed bet won or lost and credits the payout of winners.
// A winner whose account is missing is marked lost and reported as an anomaly.
func (s *ledgerService) ApplyBetResult(ctx context.Context, bet *entities.Bet, isWinner bool, payout int64) (*entities.BetSettlement, error) {
	if !bet.IsPlaced() {
		return nil, fmt.Errorf("%w: bet %d is %s", entities.ErrBetNotPlaced, bet.ID, bet.Status)
	}

	settlement := &entities.BetSettlement{
		BetID:     bet.ID,
		AccountID: bet.AccountID,
		Status:    entities.BetStatusLost,
	}
	if isWinner {
		settlement.Status = entities.BetStatusWon
	}

	if isWinner && payout > 0 {
		roundID := bet.RoundID
		betID := bet.ID
		entry := &entities.LedgerEntry{
			AccountID: bet.AccountID,
			Kind:      entities.EntryKindPayoutCredit,
			Amount:    payout,
			RoundID:   &roundID,
			BetID:     &betID,
			Metadata: map[string]any{
				"outcome": bet.Outcome,
				"stake":   bet.Amount,
			},
		}

		err := utils.ApplyLedgerEntry(ctx, s.accountRepo, s.ledgerRepo, s.eventPublisher, entry)
		switch {
		case errors.Is(err, entities.ErrAccountNotFound):
			log.WithFields(log.Fields{
				"round_id":   bet.RoundID,
				"bet_id":     bet.ID,
				"account_id": bet.AccountID,
				"payout":     payout,
			}).Warn("Winning bet references missing account, marking lost")
			settlement.Status = entities.BetStatusLost
			settlement.Anomaly = AnomalyAccountNotFound
		case err != nil:
			return nil, fmt.Errorf("failed to credit payout for bet %d: %w", bet.ID, err)
		default:
			settlement.Payout = payout
			balanceAfter := entry.BalanceAfter
			settlement.BalanceAfter = &balanceAfter
		}
	}

	updated, err := s.betRepo.MarkResult(ctx, bet.ID, settlement.Status, settlement.Payout)
	if err != nil {
		return nil, fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: bet %d changed during settlement", entities.ErrBetNotPlaced, bet.ID)
	}

	bet.Status = settlement.Status
	bet.Payout = settlement.Payout

	return settlement, nil
}

// Adjust applies a manual adjustment to an account balance
func (s *ledgerService) Adjust(ctx context.Context, accountID int64, amount int64, reason string) (*entities.LedgerEntry, error) {
	entry := &entities.LedgerEntry{
		AccountID: accountID,
		Kind:      entities.EntryKindAdjustment,
		Amount:    amount,
		Metadata: map[string]any{
			"reason": reason,
		},
	}

	if err := utils.ApplyLedgerEntry(ctx, s.accountRepo, s.ledgerRepo, s.eventPublisher, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id":    accountID,
		"amount":        amount,
		"balance_after": entry.BalanceAfter,
		"reason":        reason,
	}).Info("Applied balance adjustment")

	return entry, nil
}
