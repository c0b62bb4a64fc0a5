package entities

import (
	"errors"
	"time"
)

// EntryKind represents the type of balance mutation
type EntryKind string

const (
	EntryKindBetDebit     EntryKind = "bet_debit"
	EntryKindPayoutCredit EntryKind = "payout_credit"
	EntryKindCommission   EntryKind = "commission"
	EntryKindAdjustment   EntryKind = "adjustment"
)

// IsValid returns true for known entry kinds
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindBetDebit, EntryKindPayoutCredit, EntryKindCommission, EntryKindAdjustment:
		return true
	}
	return false
}

// IsCredit returns true for kinds that can only add to a balance
func (k EntryKind) IsCredit() bool {
	return k == EntryKindPayoutCredit || k == EntryKindCommission
}

// IsSettlement returns true for kinds written by round settlement
func (k EntryKind) IsSettlement() bool {
	return k.IsCredit()
}

func (k EntryKind) String() string {
	return string(k)
}

// LedgerEntry is an immutable record of one balance mutation
type LedgerEntry struct {
	ID           int64          `db:"id"`
	AccountID    int64          `db:"account_id"`
	Kind         EntryKind      `db:"kind"`
	Amount       int64          `db:"amount"`
	BalanceAfter int64          `db:"balance_after"`
	Metadata     map[string]any `db:"metadata"`
	RoundID      *int64         `db:"round_id"`
	BetID        *int64         `db:"bet_id"`
	CreatedAt    time.Time      `db:"created_at"`
}

// BalanceBefore derives the balance prior to this entry
func (e *LedgerEntry) BalanceBefore() int64 {
	return e.BalanceAfter - e.Amount
}

// Validate checks an entry before its balance mutation is applied
func (e *LedgerEntry) Validate() error {
	if e.AccountID == 0 {
		return errors.New("account id is required")
	}
	if !e.Kind.IsValid() {
		return errors.New("unknown entry kind")
	}
	if e.Amount == 0 {
		return errors.New("amount cannot be zero")
	}
	if e.Kind.IsCredit() && e.Amount < 0 {
		return errors.New("credit entries must be positive")
	}
	if e.Kind == EntryKindBetDebit && e.Amount > 0 {
		return errors.New("bet debits must be negative")
	}
	return nil
}
