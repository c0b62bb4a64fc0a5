package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"roundsettle/domain/entities"
	"roundsettle/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSettlementServiceMocks() (
	*testhelpers.MockGameRoundRepository,
	*testhelpers.MockBetRepository,
	*testhelpers.MockOutcomeResolver,
	*testhelpers.MockLedgerService,
) {
	return new(testhelpers.MockGameRoundRepository),
		new(testhelpers.MockBetRepository),
		new(testhelpers.MockOutcomeResolver),
		new(testhelpers.MockLedgerService)
}

func TestSettlementService_SettleRound(t *testing.T) {
	t.Parallel()

	// heads pays 195 against a target of 285, tails would pay 390
	mixedBets := []*entities.Bet{
		createTestBet(1, 10, 100, "coin_toss", "heads", 100),
		createTestBet(2, 10, 101, "coin_toss", "tails", 200),
	}
	mixedResolution, err := NewOutcomeResolver(testGameTable(), rand.New(rand.NewSource(1))).Resolve("coin_toss", mixedBets)
	require.NoError(t, err)
	require.Equal(t, []string{"heads"}, mixedResolution.Outcomes)

	anomalyBets := []*entities.Bet{createTestBet(1, 10, 404, "coin_toss", "tails", 10)}
	anomalyResolution, err := NewOutcomeResolver(testGameTable(), rand.New(rand.NewSource(1))).Resolve("coin_toss", anomalyBets)
	require.NoError(t, err)

	tests := []struct {
		name        string
		setupMocks  func(*testhelpers.MockGameRoundRepository, *testhelpers.MockBetRepository, *testhelpers.MockOutcomeResolver, *testhelpers.MockLedgerService)
		verify      func(*testing.T, *entities.RoundSettlement)
		wantErr     error
		errContains string
	}{
		{
			name: "lost claim is skipped",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(false, nil)
			},
			verify: func(t *testing.T, result *entities.RoundSettlement) {
				assert.False(t, result.Claimed)
				assert.Nil(t, result.Round)
			},
		},
		{
			name: "round without bets settles as no_bets",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "coin_toss", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return([]*entities.Bet{}, nil)
				roundRepo.On("Finalize", mock.Anything, mock.MatchedBy(func(r *entities.GameRound) bool {
					return r.Outcome() == entities.NoBetsOutcome && r.TotalPayout == 0 && r.SettledAt != nil
				})).Return(nil)
			},
			verify: func(t *testing.T, result *entities.RoundSettlement) {
				assert.True(t, result.Claimed)
				assert.True(t, result.NoBets)
				assert.Empty(t, result.Bets)
				assert.Equal(t, int64(0), result.TotalPayout())
			},
		},
		{
			name: "winners and losers are applied and aggregates written",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				bets := mixedBets
				resolution := mixedResolution

				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "coin_toss", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return(bets, nil)
				resolver.On("Resolve", entities.GameType("coin_toss"), bets).Return(resolution, nil)
				ledger.On("ApplyBetResult", mock.Anything, bets[0], true, int64(195)).
					Return(&entities.BetSettlement{BetID: 1, AccountID: 100, Status: entities.BetStatusWon, Payout: 195}, nil)
				ledger.On("ApplyBetResult", mock.Anything, bets[1], false, int64(0)).
					Return(&entities.BetSettlement{BetID: 2, AccountID: 101, Status: entities.BetStatusLost}, nil)
				roundRepo.On("Finalize", mock.Anything, mock.MatchedBy(func(r *entities.GameRound) bool {
					return r.Outcome() == "heads" && r.TotalStake == 300 && r.TotalPayout == 195
				})).Return(nil)
			},
			verify: func(t *testing.T, result *entities.RoundSettlement) {
				assert.True(t, result.Claimed)
				assert.False(t, result.NoBets)
				assert.Len(t, result.Bets, 2)
				assert.Equal(t, 1, result.Winners)
				assert.Equal(t, 0, result.Anomalies)
				assert.Equal(t, int64(195), result.TotalPayout())
			},
		},
		{
			name: "anomalies are counted and excluded from payout",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				bets := anomalyBets
				resolution := anomalyResolution

				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "coin_toss", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return(bets, nil)
				resolver.On("Resolve", entities.GameType("coin_toss"), bets).Return(resolution, nil)
				ledger.On("ApplyBetResult", mock.Anything, bets[0], mock.Anything, mock.Anything).
					Return(&entities.BetSettlement{BetID: 1, AccountID: 404, Status: entities.BetStatusLost, Anomaly: AnomalyAccountNotFound}, nil)
				roundRepo.On("Finalize", mock.Anything, mock.MatchedBy(func(r *entities.GameRound) bool {
					return r.TotalPayout == 0 && r.TotalStake == 10
				})).Return(nil)
			},
			verify: func(t *testing.T, result *entities.RoundSettlement) {
				assert.Equal(t, 1, result.Anomalies)
				assert.Equal(t, 0, result.Winners)
			},
		},
		{
			name: "settled bets are not applied again",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				settled := createTestBet(1, 10, 100, "coin_toss", "heads", 100)
				settled.Status = entities.BetStatusWon
				refunded := createTestBet(2, 10, 100, "coin_toss", "heads", 100)
				refunded.Status = entities.BetStatusRefunded

				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "coin_toss", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return([]*entities.Bet{settled, refunded}, nil)
				roundRepo.On("Finalize", mock.Anything, mock.Anything).Return(nil)
			},
			verify: func(t *testing.T, result *entities.RoundSettlement) {
				assert.True(t, result.NoBets)
			},
		},
		{
			name: "configuration error aborts the round",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				bets := []*entities.Bet{createTestBet(1, 10, 100, "roulette", "red", 100)}
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "roulette", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return(bets, nil)
				resolver.On("Resolve", entities.GameType("roulette"), bets).Return(nil, entities.ErrUnknownGameType)
			},
			wantErr: entities.ErrUnknownGameType,
		},
		{
			name: "claimed round that vanished",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(nil, nil)
			},
			wantErr: entities.ErrRoundNotFound,
		},
		{
			name: "bet failure aborts the round",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				bets := []*entities.Bet{createTestBet(1, 10, 100, "coin_toss", "heads", 100)}
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(true, nil)
				roundRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestRound(10, "coin_toss", entities.RoundStatusSettled), nil)
				betRepo.On("GetByRoundID", mock.Anything, int64(10)).Return(bets, nil)
				resolver.On("Resolve", entities.GameType("coin_toss"), bets).Return(entities.NewResolution("coin_toss", []string{"tails"}, nil), nil)
				ledger.On("ApplyBetResult", mock.Anything, bets[0], false, int64(0)).Return(nil, errors.New("serialization failure"))
			},
			errContains: "serialization failure",
		},
		{
			name: "claim failure",
			setupMocks: func(roundRepo *testhelpers.MockGameRoundRepository, betRepo *testhelpers.MockBetRepository, resolver *testhelpers.MockOutcomeResolver, ledger *testhelpers.MockLedgerService) {
				roundRepo.On("CompareAndSetStatus", mock.Anything, int64(10), entities.RoundStatusBetting, entities.RoundStatusSettled).Return(false, errors.New("connection refused"))
			},
			errContains: "failed to claim round 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			roundRepo, betRepo, resolver, ledger := setupSettlementServiceMocks()
			tt.setupMocks(roundRepo, betRepo, resolver, ledger)

			service := NewSettlementService(roundRepo, betRepo, resolver, ledger)
			result, err := service.SettleRound(context.Background(), 10)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				roundRepo.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, result)
				roundRepo.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err)
				tt.verify(t, result)
			}

			roundRepo.AssertExpectations(t)
			betRepo.AssertExpectations(t)
			resolver.AssertExpectations(t)
			ledger.AssertExpectations(t)
		})
	}
}
