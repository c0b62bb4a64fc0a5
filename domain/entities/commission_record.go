package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionRecord is one tier's commission payment for one round.
// (RoundID, AccountID, Tier) is unique.
type CommissionRecord struct {
	ID        int64           `db:"id"`
	RoundID   int64           `db:"round_id"`
	AccountID int64           `db:"account_id"`
	Tier      int             `db:"tier"`
	Amount    int64           `db:"amount"`
	Rate      decimal.Decimal `db:"rate"`
	CreatedAt time.Time       `db:"created_at"`
}

// CommissionSource is one bettor's contribution to a commission share
type CommissionSource struct {
	BettorID int64 `json:"bettor_id"`
	Stake    int64 `json:"stake"`
	Amount   int64 `json:"amount"`
}

// CommissionShare is the planned commission owed to one upline account at one tier
type CommissionShare struct {
	RoundID   int64
	AccountID int64
	Tier      int
	Rate      decimal.Decimal
	Amount    int64
	Sources   []CommissionSource
}

// Record converts the share into the record persisted for it
func (s *CommissionShare) Record() *CommissionRecord {
	return &CommissionRecord{
		RoundID:   s.RoundID,
		AccountID: s.AccountID,
		Tier:      s.Tier,
		Amount:    s.Amount,
		Rate:      s.Rate,
	}
}

// CommissionPlan is the full set of shares for one round
type CommissionPlan struct {
	RoundID       int64
	Shares        []*CommissionShare
	BettorCount   int
	FailedBettors []int64
}

// Total returns the sum of all planned share amounts
func (p *CommissionPlan) Total() int64 {
	var total int64
	for _, s := range p.Shares {
		total += s.Amount
	}
	return total
}

// CommissionAmount returns floor(stake × rate)
func CommissionAmount(stake int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(rate).Floor().IntPart()
}
