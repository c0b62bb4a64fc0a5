package application

import (
	"context"
	"errors"
	"testing"

	"roundsettle/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRates() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.RequireFromString("0.03"),
		decimal.RequireFromString("0.015"),
		decimal.RequireFromString("0.008"),
	}
}

func forAccount(id int64) interface{} {
	return mock.MatchedBy(func(r *entities.CommissionRecord) bool { return r.AccountID == id })
}

func TestCommissionDistributor_DistributeCommissions(t *testing.T) {
	ctx := context.Background()

	t.Run("round not settled", func(t *testing.T) {
		uow := newFakeUnitOfWork()
		uow.rounds.On("GetByID", ctx, int64(1)).Return(dueRound(1, "coin_toss"), nil)

		distributor := NewCommissionDistributor(uow, testRates(), 10, nil)
		_, err := distributor.DistributeCommissions(ctx, 1)
		assert.ErrorIs(t, err, entities.ErrRoundNotSettled)
	})

	t.Run("round not found", func(t *testing.T) {
		uow := newFakeUnitOfWork()
		uow.rounds.On("GetByID", ctx, int64(1)).Return(nil, nil)

		distributor := NewCommissionDistributor(uow, testRates(), 10, nil)
		_, err := distributor.DistributeCommissions(ctx, 1)
		assert.ErrorIs(t, err, entities.ErrRoundNotFound)
	})

	t.Run("upline lookup error pays nothing", func(t *testing.T) {
		round := dueRound(5, "coin_toss")
		round.Status = entities.RoundStatusSettled
		agent := int64(2)

		uow := newFakeUnitOfWork()
		uow.rounds.On("GetByID", ctx, int64(5)).Return(round, nil)
		uow.bets.On("GetByRoundID", ctx, int64(5)).Return([]*entities.Bet{
			placedBet(20, 5, 1, "coin_toss", "heads", 1000),
			placedBet(21, 5, 6, "coin_toss", "tails", 1000),
		}, nil)
		uow.accounts.On("GetByID", ctx, int64(1)).Return(&entities.Account{ID: 1, Role: entities.RolePlayer, ParentID: &agent}, nil)
		uow.accounts.On("GetByID", ctx, agent).Return(&entities.Account{ID: agent, Role: entities.RoleAgent}, nil)
		uow.accounts.On("GetByID", ctx, int64(6)).Return(nil, errors.New("conn reset"))

		distributor := NewCommissionDistributor(uow, testRates(), 10, nil)
		result, err := distributor.DistributeCommissions(ctx, 5)
		require.Error(t, err)
		assert.Nil(t, result)

		uow.commissions.AssertNotCalled(t, "TryInsert", mock.Anything, mock.Anything)
		assert.Zero(t, uow.commits)
	})

	t.Run("shares are independent", func(t *testing.T) {
		round := dueRound(5, "coin_toss")
		round.Status = entities.RoundStatusSettled

		agent, master, superMaster := int64(2), int64(3), int64(4)

		uow := newFakeUnitOfWork()
		uow.rounds.On("GetByID", ctx, int64(5)).Return(round, nil)
		uow.bets.On("GetByRoundID", ctx, int64(5)).Return([]*entities.Bet{
			placedBet(20, 5, 1, "coin_toss", "heads", 600),
			placedBet(21, 5, 1, "coin_toss", "tails", 400),
		}, nil)
		uow.accounts.On("GetByID", ctx, int64(1)).Return(&entities.Account{ID: 1, Role: entities.RolePlayer, ParentID: &agent}, nil)
		uow.accounts.On("GetByID", ctx, agent).Return(&entities.Account{ID: agent, Role: entities.RoleAgent, ParentID: &master}, nil)
		uow.accounts.On("GetByID", ctx, master).Return(&entities.Account{ID: master, Role: entities.RoleMasterAgent, ParentID: &superMaster}, nil)
		uow.accounts.On("GetByID", ctx, superMaster).Return(&entities.Account{ID: superMaster, Role: entities.RoleSuperMaster}, nil)

		// Tier 1 was paid by an earlier run
		uow.commissions.On("TryInsert", ctx, forAccount(agent)).Return(false, nil)
		// Tier 2 fails while crediting
		uow.commissions.On("TryInsert", ctx, forAccount(master)).Return(true, nil)
		uow.accounts.On("IncrementBalance", ctx, master, int64(15)).Return(int64(0), errors.New("deadlock detected"))
		// Tier 3 is paid
		uow.commissions.On("TryInsert", ctx, forAccount(superMaster)).Return(true, nil)
		uow.accounts.On("IncrementBalance", ctx, superMaster, int64(8)).Return(int64(8), nil)
		uow.ledger.On("Append", ctx, mock.AnythingOfType("*entities.LedgerEntry")).Return(nil)
		uow.publisher.On("Publish", mock.Anything).Return(nil)

		metrics := &recordingMetrics{}
		distributor := NewCommissionDistributor(uow, testRates(), 10, metrics)

		result, err := distributor.DistributeCommissions(ctx, 5)
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, superMaster, result.Records[0].AccountID)
		assert.Equal(t, 3, result.Records[0].Tier)
		assert.Equal(t, int64(8), result.Records[0].Amount)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Failed)

		assert.Equal(t, 1, uow.commits)
		require.Len(t, metrics.distributions, 1)
		assert.Same(t, result, metrics.distributions[0])
	})
}
