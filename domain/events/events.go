package events

import "roundsettle/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRoundSettled   EventType = "round_settled"
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeCommissionPaid EventType = "commission_paid"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RoundSettledEvent announces that a round's result and balances are final
type RoundSettledEvent struct {
	RoundID        int64                               `json:"round_id"`
	GameType       entities.GameType                   `json:"game_type"`
	WinningOutcome string                              `json:"winning_outcome"`
	BetSummary     map[string]*entities.OutcomeSummary `json:"bet_summary"`
	TotalBets      int                                 `json:"total_bets"`
	TotalStake     int64                               `json:"total_stake"`
	TotalPayout    int64                               `json:"total_payout"`
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// BalanceChangeEvent represents a balance change recorded in the ledger
type BalanceChangeEvent struct {
	AccountID     int64              `json:"account_id"`
	LedgerEntryID int64              `json:"ledger_entry_id"`
	OldBalance    int64              `json:"old_balance"`
	NewBalance    int64              `json:"new_balance"`
	ChangeAmount  int64              `json:"change_amount"`
	Kind          entities.EntryKind `json:"kind"`
	RoundID       *int64             `json:"round_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// CommissionPaidEvent represents one tier's commission credit
type CommissionPaidEvent struct {
	RoundID   int64 `json:"round_id"`
	AccountID int64 `json:"account_id"`
	Tier      int   `json:"tier"`
	Amount    int64 `json:"amount"`
}

func (e CommissionPaidEvent) Type() EventType {
	return EventTypeCommissionPaid
}
