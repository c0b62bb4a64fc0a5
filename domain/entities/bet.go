package entities

import "time"

// BetStatus represents the state of a wager
type BetStatus string

const (
	BetStatusPlaced   BetStatus = "placed"
	BetStatusWon      BetStatus = "won"
	BetStatusLost     BetStatus = "lost"
	BetStatusRefunded BetStatus = "refunded"
)

// IsTerminal returns true for statuses that can no longer change
func (s BetStatus) IsTerminal() bool {
	return s == BetStatusWon || s == BetStatusLost || s == BetStatusRefunded
}

// Bet is one wager placed on an outcome of a round
type Bet struct {
	ID             int64      `db:"id"`
	RoundID        int64      `db:"round_id"`
	AccountID      int64      `db:"account_id"`
	GameType       GameType   `db:"game_type"`
	Outcome        string     `db:"outcome"`
	Amount         int64      `db:"amount"`
	Status         BetStatus  `db:"status"`
	Payout         int64      `db:"payout"`
	IdempotencyKey *string    `db:"idempotency_key"`
	CreatedAt      time.Time  `db:"created_at"`
	SettledAt      *time.Time `db:"settled_at"`
}

// IsPlaced returns true if the bet still awaits settlement
func (b *Bet) IsPlaced() bool {
	return b.Status == BetStatusPlaced
}

// BetSettlement is the outcome of applying a round result to one bet
type BetSettlement struct {
	BetID     int64
	AccountID int64
	Status    BetStatus
	Payout    int64
	// BalanceAfter is set only when a payout was credited
	BalanceAfter *int64
	// Anomaly describes a data-integrity problem that forced the bet to lose
	Anomaly string
}

// HasAnomaly returns true if the bet was skipped due to a data problem
func (s *BetSettlement) HasAnomaly() bool {
	return s.Anomaly != ""
}
