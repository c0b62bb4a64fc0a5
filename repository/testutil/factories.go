package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"roundsettle/database"
	"roundsettle/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

var usernameSeq atomic.Int64

// CreateTestAccount returns an unsaved account with a unique username
func CreateTestAccount(role entities.Role, parentID *int64) *entities.Account {
	return &entities.Account{
		Username: fmt.Sprintf("%s_%d", role, usernameSeq.Add(1)),
		Role:     role,
		ParentID: parentID,
	}
}

// CreateTestRound returns an unsaved betting round that ended the given time ago
func CreateTestRound(gameType entities.GameType, endedAgo time.Duration) *entities.GameRound {
	endsAt := time.Now().UTC().Add(-endedAgo).Truncate(time.Microsecond)
	return &entities.GameRound{
		GameType: gameType,
		StartsAt: endsAt.Add(-time.Minute),
		EndsAt:   endsAt,
		Status:   entities.RoundStatusBetting,
	}
}

// CreateTestBet returns an unsaved placed bet
func CreateTestBet(roundID, accountID int64, gameType entities.GameType, outcome string, amount int64) *entities.Bet {
	return &entities.Bet{
		RoundID:   roundID,
		AccountID: accountID,
		GameType:  gameType,
		Outcome:   outcome,
		Amount:    amount,
		Status:    entities.BetStatusPlaced,
	}
}

// Seeder inserts fixtures directly so that every seeded balance has a matching ledger entry
type Seeder struct {
	t  *testing.T
	db *database.DB
}

// NewSeeder creates a seeder bound to a test database
func NewSeeder(t *testing.T, db *database.DB) *Seeder {
	return &Seeder{t: t, db: db}
}

// Account creates an account funded through an adjustment entry
func (s *Seeder) Account(role entities.Role, parentID *int64, balance int64) *entities.Account {
	s.t.Helper()
	account := CreateTestAccount(role, parentID)

	err := s.db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		err := tx.QueryRow(context.Background(), `
			INSERT INTO accounts (username, role, balance, parent_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, account.Username, account.Role, balance, account.ParentID).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			return err
		}
		account.Balance = balance
		if balance == 0 {
			return nil
		}
		_, err = tx.Exec(context.Background(), `
			INSERT INTO ledger_entries (account_id, kind, amount, balance_after, metadata)
			VALUES ($1, 'adjustment', $2, $2, '{"reason":"seed"}')
		`, account.ID, balance)
		return err
	})
	require.NoError(s.t, err)

	return account
}

// Chain creates player <- agent <- master_agent <- super_master <- admin and returns
// them nearest-bettor first
func (s *Seeder) Chain(playerBalance int64) []*entities.Account {
	s.t.Helper()
	admin := s.Account(entities.RoleAdmin, nil, 0)
	superMaster := s.Account(entities.RoleSuperMaster, &admin.ID, 0)
	master := s.Account(entities.RoleMasterAgent, &superMaster.ID, 0)
	agent := s.Account(entities.RoleAgent, &master.ID, 0)
	player := s.Account(entities.RolePlayer, &agent.ID, playerBalance)
	return []*entities.Account{player, agent, master, superMaster, admin}
}

// Round creates a betting round that ended the given time ago
func (s *Seeder) Round(gameType entities.GameType, endedAgo time.Duration) *entities.GameRound {
	s.t.Helper()
	round := CreateTestRound(gameType, endedAgo)
	err := s.db.QueryRow(context.Background(), `
		INSERT INTO game_rounds (game_type, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, round.GameType, round.StartsAt, round.EndsAt, round.Status).Scan(&round.ID, &round.CreatedAt)
	require.NoError(s.t, err)
	return round
}

// Bet places a bet, debiting the stake with a bet_debit entry when the account exists
func (s *Seeder) Bet(round *entities.GameRound, accountID int64, outcome string, amount int64) *entities.Bet {
	s.t.Helper()
	bet := CreateTestBet(round.ID, accountID, round.GameType, outcome, amount)

	err := s.db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		err := tx.QueryRow(context.Background(), `
			INSERT INTO bets (round_id, account_id, game_type, outcome, amount, status)
			VALUES ($1, $2, $3, $4, $5, 'placed')
			RETURNING id, created_at
		`, bet.RoundID, bet.AccountID, bet.GameType, bet.Outcome, bet.Amount).Scan(&bet.ID, &bet.CreatedAt)
		if err != nil {
			return err
		}

		var balanceAfter int64
		err = tx.QueryRow(context.Background(), `
			UPDATE accounts SET balance = balance - $2 WHERE id = $1 AND balance >= $2
			RETURNING balance
		`, accountID, amount).Scan(&balanceAfter)
		if err == pgx.ErrNoRows {
			// Orphaned bets are allowed for anomaly tests
			return nil
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(context.Background(), `
			INSERT INTO ledger_entries (account_id, kind, amount, balance_after, round_id, bet_id)
			VALUES ($1, 'bet_debit', $2, $3, $4, $5)
		`, accountID, -amount, balanceAfter, round.ID, bet.ID)
		return err
	})
	require.NoError(s.t, err)

	return bet
}

// Balance reads an account's stored balance
func (s *Seeder) Balance(accountID int64) int64 {
	s.t.Helper()
	var balance int64
	err := s.db.QueryRow(context.Background(), `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	require.NoError(s.t, err)
	return balance
}

// LedgerSum returns the signed sum of an account's ledger entries
func (s *Seeder) LedgerSum(accountID int64) int64 {
	s.t.Helper()
	var sum int64
	err := s.db.QueryRow(context.Background(), `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&sum)
	require.NoError(s.t, err)
	return sum
}

// CountEntries returns the number of ledger entries of a kind referencing a round
func (s *Seeder) CountEntries(roundID int64, kind entities.EntryKind) int {
	s.t.Helper()
	var count int
	err := s.db.QueryRow(context.Background(), `SELECT COUNT(*) FROM ledger_entries WHERE round_id = $1 AND kind = $2`, roundID, kind).Scan(&count)
	require.NoError(s.t, err)
	return count
}
