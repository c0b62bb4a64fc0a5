package testhelpers

import (
	"context"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) IncrementBalance(ctx context.Context, id int64, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

// MockGameRoundRepository is a mock implementation of GameRoundRepository
type MockGameRoundRepository struct {
	mock.Mock
}

func (m *MockGameRoundRepository) GetByID(ctx context.Context, id int64) (*entities.GameRound, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameRound), args.Error(1)
}

func (m *MockGameRoundRepository) Create(ctx context.Context, round *entities.GameRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockGameRoundRepository) FindDue(ctx context.Context, status entities.RoundStatus, gameType entities.GameType, before time.Time) ([]*entities.GameRound, error) {
	args := m.Called(ctx, status, gameType, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameRound), args.Error(1)
}

func (m *MockGameRoundRepository) GetOpenRound(ctx context.Context, gameType entities.GameType, at time.Time) (*entities.GameRound, error) {
	args := m.Called(ctx, gameType, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameRound), args.Error(1)
}

func (m *MockGameRoundRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next entities.RoundStatus) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockGameRoundRepository) Finalize(ctx context.Context, round *entities.GameRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) GetByRoundID(ctx context.Context, roundID int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) MarkResult(ctx context.Context, betID int64, status entities.BetStatus, payout int64) (bool, error) {
	args := m.Called(ctx, betID, status, payout)
	return args.Bool(0), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByAccount(ctx context.Context, accountID int64) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockCommissionRecordRepository is a mock implementation of CommissionRecordRepository
type MockCommissionRecordRepository struct {
	mock.Mock
}

func (m *MockCommissionRecordRepository) TryInsert(ctx context.Context, record *entities.CommissionRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRecordRepository) Exists(ctx context.Context, roundID, accountID int64, tier int) (bool, error) {
	args := m.Called(ctx, roundID, accountID, tier)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRecordRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.CommissionRecord, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CommissionRecord), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTransactionalEventPublisher is a mock implementation of TransactionalEventPublisher
type MockTransactionalEventPublisher struct {
	mock.Mock
}

func (m *MockTransactionalEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Discard() {
	m.Called()
}
