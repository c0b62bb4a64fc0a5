package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"roundsettle/database"
	"roundsettle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepository creates a new ledger entry repository with a transaction
func newLedgerEntryRepository(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Append inserts a ledger entry
func (r *LedgerEntryRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries (account_id, kind, amount, balance_after, metadata, round_id, bet_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.Kind,
		entry.Amount,
		entry.BalanceAfter,
		metadataJSON,
		entry.RoundID,
		entry.BetID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append %s entry for account %d: %w", entry.Kind, entry.AccountID, err)
	}

	return nil
}

// GetByAccount returns all entries of an account in creation order
func (r *LedgerEntryRepository) GetByAccount(ctx context.Context, accountID int64) ([]*entities.LedgerEntry, error) {
	return r.list(ctx, `WHERE account_id = $1`, accountID)
}

// GetByRound returns all entries referencing a round in creation order
func (r *LedgerEntryRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.LedgerEntry, error) {
	return r.list(ctx, `WHERE round_id = $1`, roundID)
}

func (r *LedgerEntryRepository) list(ctx context.Context, where string, arg any) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, account_id, kind, amount, balance_after, metadata, round_id, bet_id, created_at
		FROM ledger_entries
		` + where + `
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var entry entities.LedgerEntry
	var metadataJSON []byte
	if err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.Kind,
		&entry.Amount,
		&entry.BalanceAfter,
		&metadataJSON,
		&entry.RoundID,
		&entry.BetID,
		&entry.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of ledger entry %d: %w", entry.ID, err)
		}
	}

	return &entry, nil
}
