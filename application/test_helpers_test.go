package application

import (
	"context"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"
	"roundsettle/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// fakeUnitOfWork hands out the same mocks to every transaction and counts commits
type fakeUnitOfWork struct {
	accounts    *testhelpers.MockAccountRepository
	rounds      *testhelpers.MockGameRoundRepository
	bets        *testhelpers.MockBetRepository
	ledger      *testhelpers.MockLedgerEntryRepository
	commissions *testhelpers.MockCommissionRecordRepository
	publisher   *testhelpers.MockEventPublisher

	begins    int
	commits   int
	rollbacks int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		accounts:    new(testhelpers.MockAccountRepository),
		rounds:      new(testhelpers.MockGameRoundRepository),
		bets:        new(testhelpers.MockBetRepository),
		ledger:      new(testhelpers.MockLedgerEntryRepository),
		commissions: new(testhelpers.MockCommissionRecordRepository),
		publisher:   new(testhelpers.MockEventPublisher),
	}
}

func (f *fakeUnitOfWork) Create() UnitOfWork { return f }

func (f *fakeUnitOfWork) Begin(ctx context.Context) error {
	f.begins++
	return nil
}

func (f *fakeUnitOfWork) Commit() error {
	f.commits++
	return nil
}

func (f *fakeUnitOfWork) Rollback() error {
	f.rollbacks++
	return nil
}

func (f *fakeUnitOfWork) AccountRepository() interfaces.AccountRepository { return f.accounts }

func (f *fakeUnitOfWork) GameRoundRepository() interfaces.GameRoundRepository { return f.rounds }

func (f *fakeUnitOfWork) BetRepository() interfaces.BetRepository { return f.bets }

func (f *fakeUnitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository { return f.ledger }

func (f *fakeUnitOfWork) CommissionRecordRepository() interfaces.CommissionRecordRepository {
	return f.commissions
}

func (f *fakeUnitOfWork) EventBus() interfaces.EventPublisher { return f.publisher }

type mockDistributor struct {
	mock.Mock
}

func (m *mockDistributor) DistributeCommissions(ctx context.Context, roundID int64) (*entities.DistributionResult, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DistributionResult), args.Error(1)
}

type recordingMetrics struct {
	rounds        []entities.RoundResult
	distributions []*entities.DistributionResult
}

func (r *recordingMetrics) RecordRoundResult(_ context.Context, result entities.RoundResult, _ time.Duration) {
	r.rounds = append(r.rounds, result)
}

func (r *recordingMetrics) RecordDistribution(_ context.Context, result *entities.DistributionResult) {
	r.distributions = append(r.distributions, result)
}

func dueRound(id int64, gameType entities.GameType) *entities.GameRound {
	return &entities.GameRound{
		ID:       id,
		GameType: gameType,
		StartsAt: time.Now().Add(-2 * time.Minute),
		EndsAt:   time.Now().Add(-time.Minute),
		Status:   entities.RoundStatusBetting,
	}
}

func placedBet(id, roundID, accountID int64, gameType entities.GameType, outcome string, amount int64) *entities.Bet {
	return &entities.Bet{
		ID:        id,
		RoundID:   roundID,
		AccountID: accountID,
		GameType:  gameType,
		Outcome:   outcome,
		Amount:    amount,
		Status:    entities.BetStatusPlaced,
	}
}
