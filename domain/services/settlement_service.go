package services

import (
	"context"
	"fmt"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	roundRepo interfaces.GameRoundRepository
	betRepo   interfaces.BetRepository
	resolver  interfaces.OutcomeResolver
	ledger    interfaces.LedgerService
}

// NewSettlementService creates a new settlement service.
// All repositories must share the caller's transaction.
func NewSettlementService(
	roundRepo interfaces.GameRoundRepository,
	betRepo interfaces.BetRepository,
	resolver interfaces.OutcomeResolver,
	ledger interfaces.LedgerService,
) interfaces.SettlementService {
	return &settlementService{
		roundRepo: roundRepo,
		betRepo:   betRepo,
		resolver:  resolver,
		ledger:    ledger,
	}
}

// SettleRound claims the round by moving it from betting to settled, then
// resolves the outcome and applies it to every placed bet.
// Claimed is false when another caller got there first.
func (s *settlementService) SettleRound(ctx context.Context, roundID int64) (*entities.RoundSettlement, error) {
	claimed, err := s.roundRepo.CompareAndSetStatus(ctx, roundID, entities.RoundStatusBetting, entities.RoundStatusSettled)
	if err != nil {
		return nil, fmt.Errorf("failed to claim round %d: %w", roundID, err)
	}

	result := &entities.RoundSettlement{RoundID: roundID, Claimed: claimed}
	if !claimed {
		log.WithField("round_id", roundID).Debug("Round already claimed by another caller")
		return result, nil
	}

	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", roundID, err)
	}
	if round == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRoundNotFound, roundID)
	}
	result.Round = round

	bets, err := s.betRepo.GetByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}

	placed := make([]*entities.Bet, 0, len(bets))
	for _, bet := range bets {
		if bet.IsPlaced() {
			placed = append(placed, bet)
		}
	}

	now := time.Now().UTC()

	if len(placed) == 0 {
		outcome := entities.NoBetsOutcome
		round.WinningOutcome = &outcome
		round.TotalStake = 0
		round.TotalPayout = 0
		round.Status = entities.RoundStatusSettled
		round.SettledAt = &now
		if err := s.roundRepo.Finalize(ctx, round); err != nil {
			return nil, fmt.Errorf("failed to finalize round %d: %w", roundID, err)
		}
		result.NoBets = true
		return result, nil
	}

	resolution, err := s.resolver.Resolve(round.GameType, placed)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve round %d: %w", roundID, err)
	}
	result.Resolution = resolution

	for _, bet := range placed {
		settlement, err := s.ledger.ApplyBetResult(ctx, bet, resolution.IsWinner(bet.Outcome), resolution.PayoutFor(bet))
		if err != nil {
			return nil, fmt.Errorf("failed to settle bet %d of round %d: %w", bet.ID, roundID, err)
		}
		result.Bets = append(result.Bets, settlement)
		if settlement.Status == entities.BetStatusWon {
			result.Winners++
		}
		if settlement.HasAnomaly() {
			result.Anomalies++
		}
	}

	outcome := resolution.WinningOutcome()
	round.WinningOutcome = &outcome
	round.TotalStake = resolution.TotalStake
	round.TotalPayout = result.TotalPayout()
	round.Status = entities.RoundStatusSettled
	round.SettledAt = &now
	if err := s.roundRepo.Finalize(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to finalize round %d: %w", roundID, err)
	}

	log.WithFields(log.Fields{
		"round_id":     roundID,
		"game_type":    round.GameType,
		"outcome":      outcome,
		"bets":         len(placed),
		"winners":      result.Winners,
		"anomalies":    result.Anomalies,
		"total_stake":  round.TotalStake,
		"total_payout": round.TotalPayout,
	}).Info("Round settled")

	return result, nil
}
