package services

import (
	"context"
	"testing"

	"roundsettle/domain/entities"
	"roundsettle/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ledgerEntry(id, amount, balanceAfter int64, kind entities.EntryKind) *entities.LedgerEntry {
	return &entities.LedgerEntry{ID: id, AccountID: 7, Kind: kind, Amount: amount, BalanceAfter: balanceAfter}
}

func TestLedgerAuditor_VerifyAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		storedBalance  int64
		entries        []*entities.LedgerEntry
		wantConsistent bool
		wantReplayed   int64
		wantMismatches []entities.LedgerMismatch
	}{
		{
			name:          "consistent ledger",
			storedBalance: 1225,
			entries: []*entities.LedgerEntry{
				ledgerEntry(1, 1000, 1000, entities.EntryKindAdjustment),
				ledgerEntry(2, -100, 900, entities.EntryKindBetDebit),
				ledgerEntry(3, 195, 1095, entities.EntryKindPayoutCredit),
				ledgerEntry(4, 130, 1225, entities.EntryKindCommission),
			},
			wantConsistent: true,
			wantReplayed:   1225,
		},
		{
			name:           "empty ledger with zero balance",
			storedBalance:  0,
			wantConsistent: true,
		},
		{
			name:          "snapshot mismatch is reported",
			storedBalance: 1095,
			entries: []*entities.LedgerEntry{
				ledgerEntry(1, 1000, 1000, entities.EntryKindAdjustment),
				ledgerEntry(2, -100, 950, entities.EntryKindBetDebit),
				ledgerEntry(3, 195, 1095, entities.EntryKindPayoutCredit),
			},
			wantReplayed:   1095,
			wantMismatches: []entities.LedgerMismatch{{EntryID: 2, Expected: 900, Recorded: 950}},
		},
		{
			name:          "stored balance drift is reported",
			storedBalance: 5000,
			entries: []*entities.LedgerEntry{
				ledgerEntry(1, 1000, 1000, entities.EntryKindAdjustment),
			},
			wantReplayed: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accountRepo := new(testhelpers.MockAccountRepository)
			ledgerRepo := new(testhelpers.MockLedgerEntryRepository)

			account := createTestAccount(7, entities.RoleAgent, nil)
			account.Balance = tt.storedBalance
			accountRepo.On("GetByID", mock.Anything, int64(7)).Return(account, nil)
			ledgerRepo.On("GetByAccount", mock.Anything, int64(7)).Return(tt.entries, nil)

			audit, err := NewLedgerAuditor(accountRepo, ledgerRepo).VerifyAccount(context.Background(), 7)
			require.NoError(t, err)

			assert.Equal(t, tt.wantConsistent, audit.IsConsistent())
			assert.Equal(t, tt.wantReplayed, audit.ReplayedBalance)
			assert.Equal(t, tt.storedBalance, audit.StoredBalance)
			assert.Equal(t, len(tt.entries), audit.EntryCount)
			assert.Equal(t, tt.wantMismatches, audit.Mismatches)
		})
	}
}

func TestLedgerAuditor_MissingAccount(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	accountRepo.On("GetByID", mock.Anything, int64(7)).Return(nil, nil)

	audit, err := NewLedgerAuditor(accountRepo, new(testhelpers.MockLedgerEntryRepository)).VerifyAccount(context.Background(), 7)
	assert.ErrorIs(t, err, entities.ErrAccountNotFound)
	assert.Nil(t, audit)
}
