package interfaces

import (
	"context"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"
)

// AccountReader is the read side of account storage
type AccountReader interface {
	// GetByID retrieves an account, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Account, error)
}

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	AccountReader

	// Create inserts a new account and fills in its ID and timestamps
	Create(ctx context.Context, account *entities.Account) error

	// IncrementBalance atomically adds delta to the balance and returns the new balance.
	// Returns ErrAccountNotFound or ErrInsufficientBalance when the update cannot apply.
	IncrementBalance(ctx context.Context, id int64, delta int64) (int64, error)
}

// GameRoundRepository defines the interface for round data access
type GameRoundRepository interface {
	// GetByID retrieves a round, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.GameRound, error)

	// Create inserts a new round
	Create(ctx context.Context, round *entities.GameRound) error

	// FindDue returns rounds in the given status whose end time is at or before the given time.
	// An empty game type matches all game types.
	FindDue(ctx context.Context, status entities.RoundStatus, gameType entities.GameType, before time.Time) ([]*entities.GameRound, error)

	// GetOpenRound returns the betting round for a game type that ends after the given time
	GetOpenRound(ctx context.Context, gameType entities.GameType, at time.Time) (*entities.GameRound, error)

	// CompareAndSetStatus moves a round from expected to next in a single conditional write.
	// Returns false if the round was not in the expected status.
	CompareAndSetStatus(ctx context.Context, id int64, expected, next entities.RoundStatus) (bool, error)

	// Finalize writes the winning outcome and aggregates of a settled round
	Finalize(ctx context.Context, round *entities.GameRound) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// GetByRoundID returns all bets of a round ordered by ID
	GetByRoundID(ctx context.Context, roundID int64) ([]*entities.Bet, error)

	// Create inserts a new bet
	Create(ctx context.Context, bet *entities.Bet) error

	// MarkResult sets the terminal status and payout of a placed bet.
	// Returns false if the bet was no longer placed.
	MarkResult(ctx context.Context, betID int64, status entities.BetStatus, payout int64) (bool, error)
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Append inserts an entry and fills in its ID and creation time
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByAccount returns all entries of an account in creation order
	GetByAccount(ctx context.Context, accountID int64) ([]*entities.LedgerEntry, error)

	// GetByRound returns all entries referencing a round in creation order
	GetByRound(ctx context.Context, roundID int64) ([]*entities.LedgerEntry, error)
}

// CommissionRecordRepository defines the interface for commission records
type CommissionRecordRepository interface {
	// TryInsert inserts the record unless (round, account, tier) already exists.
	// Returns false when the record already existed.
	TryInsert(ctx context.Context, record *entities.CommissionRecord) (bool, error)

	// Exists checks whether a record for (round, account, tier) exists
	Exists(ctx context.Context, roundID, accountID int64, tier int) (bool, error)

	// GetByRound returns all commission records of a round
	GetByRound(ctx context.Context, roundID int64) ([]*entities.CommissionRecord, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events
	Flush(ctx context.Context) error

	// Discard drops all pending events
	Discard()
}
