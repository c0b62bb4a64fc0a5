package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type commissionPlanner struct {
	walker   interfaces.HierarchyWalker
	rates    []decimal.Decimal
	maxDepth int
}

// NewCommissionPlanner creates a planner paying rates[i] to the ancestor at tier i+1.
// The walk never goes past maxDepth ancestors.
func NewCommissionPlanner(walker interfaces.HierarchyWalker, rates []decimal.Decimal, maxDepth int) interfaces.CommissionPlanner {
	return &commissionPlanner{
		walker:   walker,
		rates:    rates,
		maxDepth: maxDepth,
	}
}

type shareKey struct {
	accountID int64
	tier      int
}

type bettorStake struct {
	accountID int64
	stake     int64
}

// Plan sums each bettor's stake in the round and computes the commission owed to
// every earning ancestor, aggregated per (account, tier).
func (p *commissionPlanner) Plan(ctx context.Context, round *entities.GameRound, bets []*entities.Bet) (*entities.CommissionPlan, error) {
	plan := &entities.CommissionPlan{RoundID: round.ID}

	bettors := totalStakeByBettor(bets)
	plan.BettorCount = len(bettors)

	depth := len(p.rates)
	if p.maxDepth < depth {
		depth = p.maxDepth
	}
	if depth <= 0 {
		return plan, nil
	}

	shares := make(map[shareKey]*entities.CommissionShare)

	for _, bettor := range bettors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		upline, err := p.walker.GetUpline(ctx, bettor.accountID, depth)
		if err != nil && !errors.Is(err, entities.ErrAccountNotFound) {
			// Aggregated shares must cover every existing bettor
			return nil, fmt.Errorf("failed to walk upline of account %d: %w", bettor.accountID, err)
		}
		if err != nil {
			log.WithFields(log.Fields{
				"round_id":   round.ID,
				"account_id": bettor.accountID,
				"error":      err,
			}).Warn("Failed to walk upline for bettor")
			plan.FailedBettors = append(plan.FailedBettors, bettor.accountID)
			continue
		}

		for i, ancestor := range upline {
			// A non-earning ancestor forfeits its tier
			if !ancestor.Role.EarnsCommission() {
				continue
			}

			tier := i + 1
			rate := p.rates[i]
			amount := entities.CommissionAmount(bettor.stake, rate)
			if amount == 0 {
				continue
			}

			key := shareKey{accountID: ancestor.ID, tier: tier}
			share, ok := shares[key]
			if !ok {
				share = &entities.CommissionShare{
					RoundID:   round.ID,
					AccountID: ancestor.ID,
					Tier:      tier,
					Rate:      rate,
				}
				shares[key] = share
				plan.Shares = append(plan.Shares, share)
			}
			share.Amount += amount
			share.Sources = append(share.Sources, entities.CommissionSource{
				BettorID: bettor.accountID,
				Stake:    bettor.stake,
				Amount:   amount,
			})
		}
	}

	return plan, nil
}

// totalStakeByBettor sums stakes per account, ignoring refunded bets. Accounts
// are returned in order of their first bet.
func totalStakeByBettor(bets []*entities.Bet) []bettorStake {
	sorted := make([]*entities.Bet, len(bets))
	copy(sorted, bets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[int64]int)
	var out []bettorStake
	for _, bet := range sorted {
		if bet.Status == entities.BetStatusRefunded {
			continue
		}
		i, ok := index[bet.AccountID]
		if !ok {
			i = len(out)
			index[bet.AccountID] = i
			out = append(out, bettorStake{accountID: bet.AccountID})
		}
		out[i].stake += bet.Amount
	}
	return out
}
