package testhelpers

import (
	"context"

	"roundsettle/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockOutcomeResolver is a mock implementation of OutcomeResolver
type MockOutcomeResolver struct {
	mock.Mock
}

func (m *MockOutcomeResolver) Resolve(gameType entities.GameType, bets []*entities.Bet) (*entities.Resolution, error) {
	args := m.Called(gameType, bets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resolution), args.Error(1)
}

// MockHierarchyWalker is a mock implementation of HierarchyWalker
type MockHierarchyWalker struct {
	mock.Mock
}

func (m *MockHierarchyWalker) GetUpline(ctx context.Context, accountID int64, maxDepth int) ([]*entities.Account, error) {
	args := m.Called(ctx, accountID, maxDepth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ApplyBetResult(ctx context.Context, bet *entities.Bet, isWinner bool, payout int64) (*entities.BetSettlement, error) {
	args := m.Called(ctx, bet, isWinner, payout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetSettlement), args.Error(1)
}

func (m *MockLedgerService) Adjust(ctx context.Context, accountID int64, amount int64, reason string) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

// MockCommissionPlanner is a mock implementation of CommissionPlanner
type MockCommissionPlanner struct {
	mock.Mock
}

func (m *MockCommissionPlanner) Plan(ctx context.Context, round *entities.GameRound, bets []*entities.Bet) (*entities.CommissionPlan, error) {
	args := m.Called(ctx, round, bets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CommissionPlan), args.Error(1)
}
