package application

import (
	"context"
	"fmt"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"
	"roundsettle/domain/interfaces"
	"roundsettle/domain/services"

	log "github.com/sirupsen/logrus"
)

// RoundSettler drives due rounds from betting to settled. It is the single
// entry point shared by the periodic worker, the river job, the admin API
// and the CLI.
type RoundSettler struct {
	uowFactory  UnitOfWorkFactory
	resolver    interfaces.OutcomeResolver
	distributor Distributor
	notifier    interfaces.EventPublisher
	metrics     MetricsRecorder
	now         func() time.Time
}

// NewRoundSettler creates a new round settler.
// The notifier publishes outside any transaction, after commissions ran.
func NewRoundSettler(
	uowFactory UnitOfWorkFactory,
	resolver interfaces.OutcomeResolver,
	distributor Distributor,
	notifier interfaces.EventPublisher,
	metrics MetricsRecorder,
) *RoundSettler {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &RoundSettler{
		uowFactory:  uowFactory,
		resolver:    resolver,
		distributor: distributor,
		notifier:    notifier,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SettleDueRounds settles every betting round whose end time has passed.
// A failing round is reported in the summary and never aborts the sweep.
func (s *RoundSettler) SettleDueRounds(ctx context.Context) (*entities.SweepSummary, error) {
	rounds, err := s.findDueRounds(ctx)
	if err != nil {
		return nil, err
	}

	summary := &entities.SweepSummary{Results: make([]entities.RoundResult, 0, len(rounds))}
	if len(rounds) == 0 {
		log.Debug("No due rounds to settle")
		return summary, nil
	}

	for _, round := range rounds {
		start := time.Now()
		result := s.settleRound(ctx, round)
		s.metrics.RecordRoundResult(ctx, result, time.Since(start))
		summary.Add(result)
	}

	log.WithFields(log.Fields{
		"total_rounds": len(rounds),
		"settled":      summary.SettledCount,
		"skipped":      summary.SkippedCount,
		"failed":       summary.ErrorCount,
	}).Info("Completed settlement sweep")

	return summary, nil
}

// findDueRounds reads due rounds in a short read transaction
func (s *RoundSettler) findDueRounds(ctx context.Context) ([]*entities.GameRound, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds, err := uow.GameRoundRepository().FindDue(ctx, entities.RoundStatusBetting, "", s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to find due rounds: %w", err)
	}
	return rounds, nil
}

// settleRound settles one round, then pays its commissions and announces the result
func (s *RoundSettler) settleRound(ctx context.Context, round *entities.GameRound) (result entities.RoundResult) {
	result = entities.RoundResult{RoundID: round.ID, GameType: round.GameType}
	fields := log.Fields{"round_id": round.ID, "game_type": round.GameType}

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(fields).Errorf("Recovered from panic while settling round: %v", r)
			result.Status = entities.RoundResultError
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	settlement, err := s.claimAndSettle(ctx, round.ID)
	if err != nil {
		log.WithFields(fields).WithError(err).Error("Failed to settle round")
		result.Status = entities.RoundResultError
		result.Error = err.Error()
		return result
	}

	if !settlement.Claimed {
		result.Status = entities.RoundResultSkipped
		return result
	}

	if settlement.NoBets {
		log.WithFields(fields).Info("Round closed with no bets")
		result.Status = entities.RoundResultNoBets
		result.WinningOutcome = entities.NoBetsOutcome
		return result
	}

	result.Status = entities.RoundResultSettled
	result.WinningOutcome = settlement.Resolution.WinningOutcome()
	result.TotalStake = settlement.Round.TotalStake
	result.TotalPayout = settlement.Round.TotalPayout
	result.Winners = settlement.Winners
	result.Anomalies = settlement.Anomalies

	// Payouts are committed; commission failures are retryable on their own
	distribution, err := s.distributor.DistributeCommissions(ctx, round.ID)
	if err != nil {
		log.WithFields(fields).WithError(err).Error("Failed to distribute commissions")
		result.CommissionError = err.Error()
	} else {
		result.Commissions = len(distribution.Records)
	}

	s.notify(settlement)

	return result
}

// claimAndSettle runs the claim, the payouts and the aggregate write in one transaction
func (s *RoundSettler) claimAndSettle(ctx context.Context, roundID int64) (*entities.RoundSettlement, error) {
	uow := s.uowFactory.Create()
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
	settlementService := services.NewSettlementService(
		uow.GameRoundRepository(),
		uow.BetRepository(),
		s.resolver,
		ledgerService,
	)

	settlement, err := settlementService.SettleRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !settlement.Claimed {
		return settlement, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement of round %d: %w", roundID, err)
	}

	return settlement, nil
}

// notify publishes the round result. Failures are logged and not retried.
func (s *RoundSettler) notify(settlement *entities.RoundSettlement) {
	round := settlement.Round
	event := events.RoundSettledEvent{
		RoundID:        round.ID,
		GameType:       round.GameType,
		WinningOutcome: round.Outcome(),
		BetSummary:     settlement.Resolution.Summary,
		TotalBets:      len(settlement.Bets),
		TotalStake:     round.TotalStake,
		TotalPayout:    round.TotalPayout,
	}

	if err := s.notifier.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"round_id":  round.ID,
			"game_type": round.GameType,
		}).WithError(err).Warn("Failed to publish round result")
	}
}
