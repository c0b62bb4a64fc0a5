package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roundsettle/database"
	"roundsettle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GameRoundRepository implements the GameRoundRepository interface
type GameRoundRepository struct {
	q queryable
}

// NewGameRoundRepository creates a new game round repository
func NewGameRoundRepository(db *database.DB) *GameRoundRepository {
	return &GameRoundRepository{q: db.Pool}
}

// newGameRoundRepository creates a new game round repository with a transaction
func newGameRoundRepository(tx queryable) *GameRoundRepository {
	return &GameRoundRepository{q: tx}
}

const roundColumns = `id, game_type, starts_at, ends_at, status, winning_outcome, total_stake, total_payout, settled_at, created_at`

func scanRound(row pgx.Row) (*entities.GameRound, error) {
	var round entities.GameRound
	err := row.Scan(
		&round.ID,
		&round.GameType,
		&round.StartsAt,
		&round.EndsAt,
		&round.Status,
		&round.WinningOutcome,
		&round.TotalStake,
		&round.TotalPayout,
		&round.SettledAt,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// GetByID retrieves a round by ID
func (r *GameRoundRepository) GetByID(ctx context.Context, id int64) (*entities.GameRound, error) {
	round, err := scanRound(r.q.QueryRow(ctx, `SELECT `+roundColumns+` FROM game_rounds WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

// Create inserts a new round
func (r *GameRoundRepository) Create(ctx context.Context, round *entities.GameRound) error {
	if round.Status == "" {
		round.Status = entities.RoundStatusBetting
	}

	query := `
		INSERT INTO game_rounds (game_type, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		round.GameType,
		round.StartsAt,
		round.EndsAt,
		round.Status,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s round: %w", round.GameType, err)
	}

	return nil
}

// FindDue returns rounds in the given status that ended at or before the given time
func (r *GameRoundRepository) FindDue(ctx context.Context, status entities.RoundStatus, gameType entities.GameType, before time.Time) ([]*entities.GameRound, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM game_rounds
		WHERE status = $1
		  AND ends_at <= $2
		  AND ($3 = '' OR game_type = $3)
		ORDER BY ends_at, id
	`

	rows, err := r.q.Query(ctx, query, status, before, string(gameType))
	if err != nil {
		return nil, fmt.Errorf("failed to find due rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*entities.GameRound
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}

	return rounds, rows.Err()
}

// GetOpenRound returns the latest betting round of a game type that is still accepting bets
func (r *GameRoundRepository) GetOpenRound(ctx context.Context, gameType entities.GameType, at time.Time) (*entities.GameRound, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM game_rounds
		WHERE game_type = $1 AND status = 'betting' AND ends_at > $2
		ORDER BY ends_at DESC
		LIMIT 1
	`

	round, err := scanRound(r.q.QueryRow(ctx, query, gameType, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open %s round: %w", gameType, err)
	}
	return round, nil
}

// CompareAndSetStatus moves a round from expected to next only if it is still in expected.
// Exactly one of several concurrent callers sees true.
func (r *GameRoundRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next entities.RoundStatus) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE game_rounds SET status = $3 WHERE id = $1 AND status = $2`,
		id, expected, next,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update status of round %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Finalize writes the outcome and aggregates of a settled round
func (r *GameRoundRepository) Finalize(ctx context.Context, round *entities.GameRound) error {
	query := `
		UPDATE game_rounds
		SET status = $2,
		    winning_outcome = $3,
		    total_stake = $4,
		    total_payout = $5,
		    settled_at = $6
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		round.ID,
		round.Status,
		round.WinningOutcome,
		round.TotalStake,
		round.TotalPayout,
		round.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize round %d: %w", round.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", entities.ErrRoundNotFound, round.ID)
	}
	return nil
}
