package services

import (
	"context"
	"errors"
	"testing"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"
	"roundsettle/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupLedgerServiceMocks() (
	*testhelpers.MockAccountRepository,
	*testhelpers.MockBetRepository,
	*testhelpers.MockLedgerEntryRepository,
	*testhelpers.MockEventPublisher,
) {
	return new(testhelpers.MockAccountRepository),
		new(testhelpers.MockBetRepository),
		new(testhelpers.MockLedgerEntryRepository),
		new(testhelpers.MockEventPublisher)
}

func TestLedgerService_ApplyBetResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		bet         *entities.Bet
		isWinner    bool
		payout      int64
		setupMocks  func(*testhelpers.MockAccountRepository, *testhelpers.MockBetRepository, *testhelpers.MockLedgerEntryRepository, *testhelpers.MockEventPublisher)
		wantStatus  entities.BetStatus
		wantPayout  int64
		wantBalance *int64
		wantAnomaly string
		wantErr     error
		errContains string
	}{
		{
			name:     "winner is credited",
			bet:      createTestBet(1, 10, 100, "coin_toss", "heads", 100),
			isWinner: true,
			payout:   195,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				accountRepo.On("IncrementBalance", mock.Anything, int64(100), int64(195)).Return(int64(1195), nil)
				ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
					return e.Kind == entities.EntryKindPayoutCredit &&
						e.Amount == 195 &&
						e.BalanceAfter == 1195 &&
						e.RoundID != nil && *e.RoundID == 10 &&
						e.BetID != nil && *e.BetID == 1
				})).Return(nil)
				publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
				betRepo.On("MarkResult", mock.Anything, int64(1), entities.BetStatusWon, int64(195)).Return(true, nil)
			},
			wantStatus:  entities.BetStatusWon,
			wantPayout:  195,
			wantBalance: int64Ptr(1195),
		},
		{
			name:     "loser gets no ledger entry",
			bet:      createTestBet(2, 10, 100, "coin_toss", "tails", 100),
			isWinner: false,
			payout:   0,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				betRepo.On("MarkResult", mock.Anything, int64(2), entities.BetStatusLost, int64(0)).Return(true, nil)
			},
			wantStatus: entities.BetStatusLost,
		},
		{
			name:     "winner with zero payout is won without credit",
			bet:      createTestBet(3, 10, 100, "coin_toss", "heads", 1),
			isWinner: true,
			payout:   0,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				betRepo.On("MarkResult", mock.Anything, int64(3), entities.BetStatusWon, int64(0)).Return(true, nil)
			},
			wantStatus: entities.BetStatusWon,
		},
		{
			name:     "winner with missing account is marked lost",
			bet:      createTestBet(4, 10, 404, "coin_toss", "heads", 100),
			isWinner: true,
			payout:   195,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				accountRepo.On("IncrementBalance", mock.Anything, int64(404), int64(195)).Return(int64(0), entities.ErrAccountNotFound)
				betRepo.On("MarkResult", mock.Anything, int64(4), entities.BetStatusLost, int64(0)).Return(true, nil)
			},
			wantStatus:  entities.BetStatusLost,
			wantAnomaly: AnomalyAccountNotFound,
		},
		{
			name:     "credit failure is returned",
			bet:      createTestBet(5, 10, 100, "coin_toss", "heads", 100),
			isWinner: true,
			payout:   195,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				accountRepo.On("IncrementBalance", mock.Anything, int64(100), int64(195)).Return(int64(0), errors.New("connection reset"))
			},
			errContains: "connection reset",
		},
		{
			name: "bet already settled",
			bet: func() *entities.Bet {
				b := createTestBet(6, 10, 100, "coin_toss", "heads", 100)
				b.Status = entities.BetStatusWon
				return b
			}(),
			isWinner:   true,
			payout:     195,
			setupMocks: func(*testhelpers.MockAccountRepository, *testhelpers.MockBetRepository, *testhelpers.MockLedgerEntryRepository, *testhelpers.MockEventPublisher) {},
			wantErr:    entities.ErrBetNotPlaced,
		},
		{
			name:     "bet changed concurrently",
			bet:      createTestBet(7, 10, 100, "coin_toss", "tails", 100),
			isWinner: false,
			setupMocks: func(accountRepo *testhelpers.MockAccountRepository, betRepo *testhelpers.MockBetRepository, ledgerRepo *testhelpers.MockLedgerEntryRepository, publisher *testhelpers.MockEventPublisher) {
				betRepo.On("MarkResult", mock.Anything, int64(7), entities.BetStatusLost, int64(0)).Return(false, nil)
			},
			wantErr: entities.ErrBetNotPlaced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accountRepo, betRepo, ledgerRepo, publisher := setupLedgerServiceMocks()
			tt.setupMocks(accountRepo, betRepo, ledgerRepo, publisher)

			service := NewLedgerService(accountRepo, betRepo, ledgerRepo, publisher)
			settlement, err := service.ApplyBetResult(context.Background(), tt.bet, tt.isWinner, tt.payout)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, settlement)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, settlement)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, settlement.Status)
				assert.Equal(t, tt.wantPayout, settlement.Payout)
				assert.Equal(t, tt.wantBalance, settlement.BalanceAfter)
				assert.Equal(t, tt.wantAnomaly, settlement.Anomaly)
				assert.Equal(t, tt.wantStatus, tt.bet.Status)
			}

			accountRepo.AssertExpectations(t)
			betRepo.AssertExpectations(t)
			ledgerRepo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestLedgerService_Adjust(t *testing.T) {
	t.Parallel()

	accountRepo, betRepo, ledgerRepo, publisher := setupLedgerServiceMocks()

	accountRepo.On("IncrementBalance", mock.Anything, int64(100), int64(-250)).Return(int64(750), nil)
	ledgerRepo.On("Append", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).Return(nil)
	publisher.On("Publish", mock.MatchedBy(func(event interface{}) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.Kind == entities.EntryKindAdjustment && e.OldBalance == 1000 && e.NewBalance == 750
	})).Return(nil)

	service := NewLedgerService(accountRepo, betRepo, ledgerRepo, publisher)
	entry, err := service.Adjust(context.Background(), 100, -250, "chargeback")
	require.NoError(t, err)

	assert.Equal(t, entities.EntryKindAdjustment, entry.Kind)
	assert.Equal(t, int64(750), entry.BalanceAfter)
	assert.Equal(t, "chargeback", entry.Metadata["reason"])

	accountRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLedgerService_AdjustInsufficientBalance(t *testing.T) {
	t.Parallel()

	accountRepo, betRepo, ledgerRepo, publisher := setupLedgerServiceMocks()
	accountRepo.On("IncrementBalance", mock.Anything, int64(100), int64(-5000)).Return(int64(0), entities.ErrInsufficientBalance)

	service := NewLedgerService(accountRepo, betRepo, ledgerRepo, publisher)
	entry, err := service.Adjust(context.Background(), 100, -5000, "")

	assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
	assert.Nil(t, entry)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}
