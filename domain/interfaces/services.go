package interfaces

import (
	"context"

	"roundsettle/domain/entities"
)

// OutcomeResolver selects winning outcomes under the house-edge rule
type OutcomeResolver interface {
	// Resolve picks the winning outcome(s) for a round's bets. It has no side effects.
	Resolve(gameType entities.GameType, bets []*entities.Bet) (*entities.Resolution, error)
}

// LedgerService applies settlement results to balances
type LedgerService interface {
	// ApplyBetResult marks a placed bet won or lost and credits winners
	ApplyBetResult(ctx context.Context, bet *entities.Bet, isWinner bool, payout int64) (*entities.BetSettlement, error)

	// Adjust applies a manual adjustment to an account balance
	Adjust(ctx context.Context, accountID int64, amount int64, reason string) (*entities.LedgerEntry, error)
}

// HierarchyWalker walks the referral hierarchy
type HierarchyWalker interface {
	// GetUpline returns the ancestors of an account, nearest first, at most maxDepth long
	GetUpline(ctx context.Context, accountID int64, maxDepth int) ([]*entities.Account, error)
}

// CommissionPlanner computes tiered commissions for a round
type CommissionPlanner interface {
	// Plan computes the commission shares owed for a round's bets
	Plan(ctx context.Context, round *entities.GameRound, bets []*entities.Bet) (*entities.CommissionPlan, error)
}

// CommissionService applies planned commission shares
type CommissionService interface {
	// ApplyShare records and credits one share. Returns nil if it was already paid.
	ApplyShare(ctx context.Context, share *entities.CommissionShare) (*entities.CommissionRecord, error)
}

// SettlementService settles a single round
type SettlementService interface {
	// SettleRound claims a due round and applies its result to every bet
	SettleRound(ctx context.Context, roundID int64) (*entities.RoundSettlement, error)
}

// LedgerAuditor verifies ledger consistency
type LedgerAuditor interface {
	// VerifyAccount replays an account's ledger and compares snapshots
	VerifyAccount(ctx context.Context, accountID int64) (*entities.LedgerAudit, error)
}
