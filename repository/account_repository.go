package repository

import (
	"context"
	"errors"
	"fmt"

	"roundsettle/database"
	"roundsettle/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepository creates a new account repository with a transaction
func newAccountRepository(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, username, role, balance, parent_id, created_at, updated_at`

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.Role,
		&account.Balance,
		&account.ParentID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}

	return &account, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	if !account.Role.IsValid() {
		return fmt.Errorf("invalid role %q", account.Role)
	}

	query := `
		INSERT INTO accounts (username, role, balance, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.Username,
		account.Role,
		account.Balance,
		account.ParentID,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Username, err)
	}

	return nil
}

// IncrementBalance adds delta to the balance in a single statement and returns the new balance.
// The row lock taken by the update serializes concurrent credits to the same account.
func (r *AccountRepository) IncrementBalance(ctx context.Context, id int64, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to increment balance for account %d: %w", id, err)
	}

	// No row updated: either the account is gone or the balance would go negative
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check account %d: %w", id, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: %d", entities.ErrAccountNotFound, id)
	}
	return 0, fmt.Errorf("%w: account %d cannot absorb %d", entities.ErrInsufficientBalance, id, delta)
}

// SetParent re-points an account's upline
func (r *AccountRepository) SetParent(ctx context.Context, id int64, parentID *int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET parent_id = $2, updated_at = NOW() WHERE id = $1`, id, parentID)
	if err != nil {
		return fmt.Errorf("failed to set parent of account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", entities.ErrAccountNotFound, id)
	}
	return nil
}

// List returns all accounts ordered by ID
func (r *AccountRepository) List(ctx context.Context) ([]*entities.Account, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		var account entities.Account
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Role,
			&account.Balance,
			&account.ParentID,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}
