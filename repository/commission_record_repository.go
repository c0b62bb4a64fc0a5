package repository

import (
	"context"
	"errors"
	"fmt"

	"roundsettle/database"
	"roundsettle/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CommissionRecordRepository implements the CommissionRecordRepository interface
type CommissionRecordRepository struct {
	q queryable
}

// NewCommissionRecordRepository creates a new commission record repository
func NewCommissionRecordRepository(db *database.DB) *CommissionRecordRepository {
	return &CommissionRecordRepository{q: db.Pool}
}

// newCommissionRecordRepository creates a new commission record repository with a transaction
func newCommissionRecordRepository(tx queryable) *CommissionRecordRepository {
	return &CommissionRecordRepository{q: tx}
}

// TryInsert inserts the record unless its (round, account, tier) key already exists.
// A concurrent insert of the same key blocks until the other transaction finishes.
func (r *CommissionRecordRepository) TryInsert(ctx context.Context, record *entities.CommissionRecord) (bool, error) {
	query := `
		INSERT INTO commission_records (round_id, account_id, tier, amount, rate)
		VALUES ($1, $2, $3, $4, $5::numeric)
		ON CONFLICT (round_id, account_id, tier) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.RoundID,
		record.AccountID,
		record.Tier,
		record.Amount,
		record.Rate.String(),
	).Scan(&record.ID, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert commission record for round %d account %d tier %d: %w",
			record.RoundID, record.AccountID, record.Tier, err)
	}

	return true, nil
}

// Exists checks whether a record for (round, account, tier) exists
func (r *CommissionRecordRepository) Exists(ctx context.Context, roundID, accountID int64, tier int) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM commission_records
			WHERE round_id = $1 AND account_id = $2 AND tier = $3
		)
	`, roundID, accountID, tier).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check commission record: %w", err)
	}
	return exists, nil
}

// GetByRound returns all commission records of a round ordered by tier and account
func (r *CommissionRecordRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.CommissionRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, round_id, account_id, tier, amount, rate::text, created_at
		FROM commission_records
		WHERE round_id = $1
		ORDER BY tier, account_id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission records for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var records []*entities.CommissionRecord
	for rows.Next() {
		var record entities.CommissionRecord
		var rate string
		if err := rows.Scan(
			&record.ID,
			&record.RoundID,
			&record.AccountID,
			&record.Tier,
			&record.Amount,
			&rate,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan commission record: %w", err)
		}
		record.Rate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse commission rate %q: %w", rate, err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
