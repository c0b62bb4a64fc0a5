package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OutcomeSummary aggregates the bets placed on one outcome label
type OutcomeSummary struct {
	Label           string `json:"label"`
	BetCount        int    `json:"bet_count"`
	StakeSum        int64  `json:"stake_sum"`
	PotentialPayout int64  `json:"potential_payout"`
}

// Resolution is the outcome chosen for a round
type Resolution struct {
	GameType    GameType
	Outcomes    []string
	TotalStake  int64
	TotalPayout int64
	Target      int64
	Summary     map[string]*OutcomeSummary
	multipliers map[string]decimal.Decimal
}

// NewResolution builds a resolution for the chosen winning labels
func NewResolution(gameType GameType, outcomes []string, multipliers map[string]decimal.Decimal) *Resolution {
	return &Resolution{
		GameType:    gameType,
		Outcomes:    outcomes,
		Summary:     make(map[string]*OutcomeSummary),
		multipliers: multipliers,
	}
}

// WinningOutcome returns the winning labels joined by commas
func (r *Resolution) WinningOutcome() string {
	return strings.Join(r.Outcomes, ",")
}

// IsWinner returns true if the label is among the winning outcomes
func (r *Resolution) IsWinner(label string) bool {
	for _, o := range r.Outcomes {
		if o == label {
			return true
		}
	}
	return false
}

// PayoutFor returns floor(stake × multiplier) for winning bets and 0 otherwise
func (r *Resolution) PayoutFor(bet *Bet) int64 {
	if !r.IsWinner(bet.Outcome) {
		return 0
	}
	m, ok := r.multipliers[bet.Outcome]
	if !ok {
		return 0
	}
	return PayoutAmount(bet.Amount, m)
}

// PayoutAmount returns floor(stake × multiplier)
func PayoutAmount(stake int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(multiplier).Floor().IntPart()
}
