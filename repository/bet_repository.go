package repository

import (
	"context"
	"fmt"

	"roundsettle/database"
	"roundsettle/domain/entities"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepository creates a new bet repository with a transaction
func newBetRepository(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// GetByRoundID returns all bets of a round ordered by ID
func (r *BetRepository) GetByRoundID(ctx context.Context, roundID int64) ([]*entities.Bet, error) {
	query := `
		SELECT id, round_id, account_id, game_type, outcome, amount, status, payout, idempotency_key, created_at, settled_at
		FROM bets
		WHERE round_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		var bet entities.Bet
		if err := rows.Scan(
			&bet.ID,
			&bet.RoundID,
			&bet.AccountID,
			&bet.GameType,
			&bet.Outcome,
			&bet.Amount,
			&bet.Status,
			&bet.Payout,
			&bet.IdempotencyKey,
			&bet.CreatedAt,
			&bet.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	return bets, rows.Err()
}

// Create inserts a new bet
func (r *BetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	if bet.Status == "" {
		bet.Status = entities.BetStatusPlaced
	}

	query := `
		INSERT INTO bets (round_id, account_id, game_type, outcome, amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.RoundID,
		bet.AccountID,
		bet.GameType,
		bet.Outcome,
		bet.Amount,
		bet.Status,
		bet.IdempotencyKey,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet for round %d: %w", bet.RoundID, err)
	}

	return nil
}

// MarkResult sets the terminal status and payout of a bet that is still placed
func (r *BetRepository) MarkResult(ctx context.Context, betID int64, status entities.BetStatus, payout int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE bets
		SET status = $2, payout = $3, settled_at = NOW()
		WHERE id = $1 AND status = 'placed'
	`, betID, status, payout)
	if err != nil {
		return false, fmt.Errorf("failed to mark bet %d as %s: %w", betID, status, err)
	}
	return tag.RowsAffected() == 1, nil
}
