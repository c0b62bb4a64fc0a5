package entities

import "time"

// RoundStatus represents the lifecycle state of a game round
type RoundStatus string

const (
	RoundStatusBetting RoundStatus = "betting"
	RoundStatusLocked  RoundStatus = "locked"
	RoundStatusSettled RoundStatus = "settled"
)

// NoBetsOutcome is the synthetic outcome recorded for rounds without bets
const NoBetsOutcome = "no_bets"

// GameRound is one fixed-duration betting period for a single game type
type GameRound struct {
	ID             int64       `db:"id"`
	GameType       GameType    `db:"game_type"`
	StartsAt       time.Time   `db:"starts_at"`
	EndsAt         time.Time   `db:"ends_at"`
	Status         RoundStatus `db:"status"`
	WinningOutcome *string     `db:"winning_outcome"`
	TotalStake     int64       `db:"total_stake"`
	TotalPayout    int64       `db:"total_payout"`
	SettledAt      *time.Time  `db:"settled_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

// IsSettled returns true once the round reached its terminal state
func (r *GameRound) IsSettled() bool {
	return r.Status == RoundStatusSettled
}

// IsDue returns true if betting has closed and the round still awaits settlement
func (r *GameRound) IsDue(now time.Time) bool {
	return r.Status == RoundStatusBetting && !r.EndsAt.After(now)
}

// IsOpen returns true if the round still accepts bets at the given time
func (r *GameRound) IsOpen(now time.Time) bool {
	return r.Status == RoundStatusBetting && r.EndsAt.After(now)
}

// Outcome returns the winning outcome or an empty string when unset
func (r *GameRound) Outcome() string {
	if r.WinningOutcome == nil {
		return ""
	}
	return *r.WinningOutcome
}
