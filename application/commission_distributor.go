package application

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CommissionDistributor pays the tiered commissions of a settled round.
// Every (account, tier) share is its own transaction, so a failure for one
// share leaves the others paid and a re-run pays only what is missing.
type CommissionDistributor struct {
	uowFactory UnitOfWorkFactory
	rates      []decimal.Decimal
	maxDepth   int
	metrics    MetricsRecorder
}

// NewCommissionDistributor creates a new commission distributor
func NewCommissionDistributor(uowFactory UnitOfWorkFactory, rates []decimal.Decimal, maxDepth int, metrics MetricsRecorder) *CommissionDistributor {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &CommissionDistributor{
		uowFactory: uowFactory,
		rates:      rates,
		maxDepth:   maxDepth,
		metrics:    metrics,
	}
}

// DistributeCommissions plans the round's commissions and applies each share.
// Shares already paid by an earlier run are counted as skipped.
func (d *CommissionDistributor) DistributeCommissions(ctx context.Context, roundID int64) (*entities.DistributionResult, error) {
	plan, err := d.plan(ctx, roundID)
	if err != nil {
		return nil, err
	}

	result := &entities.DistributionResult{
		RoundID: roundID,
		Records: make([]*entities.CommissionRecord, 0, len(plan.Shares)),
		Failed:  len(plan.FailedBettors),
	}

	for _, share := range plan.Shares {
		record, err := d.applyShare(ctx, share)
		if err != nil {
			log.WithFields(log.Fields{
				"round_id":   roundID,
				"account_id": share.AccountID,
				"tier":       share.Tier,
				"amount":     share.Amount,
			}).WithError(err).Error("Failed to apply commission share")
			result.Failed++
			continue
		}
		if record == nil {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, record)
	}

	d.metrics.RecordDistribution(ctx, result)

	log.WithFields(log.Fields{
		"round_id": roundID,
		"bettors":  plan.BettorCount,
		"shares":   len(plan.Shares),
		"paid":     len(result.Records),
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Completed commission distribution")

	return result, nil
}

// plan reads the round and its bets and computes the shares in a read transaction
func (d *CommissionDistributor) plan(ctx context.Context, roundID int64) (*entities.CommissionPlan, error) {
	uow := d.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.GameRoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", roundID, err)
	}
	if round == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRoundNotFound, roundID)
	}
	if !round.IsSettled() {
		return nil, fmt.Errorf("%w: %d", entities.ErrRoundNotSettled, roundID)
	}

	bets, err := uow.BetRepository().GetByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}

	walker := services.NewHierarchyWalker(uow.AccountRepository())
	planner := services.NewCommissionPlanner(walker, d.rates, d.maxDepth)

	plan, err := planner.Plan(ctx, round, bets)
	if err != nil {
		return nil, fmt.Errorf("failed to plan commissions for round %d: %w", roundID, err)
	}
	return plan, nil
}

// applyShare records and credits one share in its own transaction
func (d *CommissionDistributor) applyShare(ctx context.Context, share *entities.CommissionShare) (*entities.CommissionRecord, error) {
	uow := d.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commissionService := services.NewCommissionService(
		uow.CommissionRecordRepository(),
		uow.AccountRepository(),
		uow.LedgerEntryRepository(),
		uow.EventBus(),
	)

	record, err := commissionService.ApplyShare(ctx, share)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit commission share: %w", err)
	}
	return record, nil
}
