package entities

// RoundSettlement is what one settlement attempt did to a round
type RoundSettlement struct {
	RoundID int64
	// Claimed is false when another caller already settled the round
	Claimed    bool
	NoBets     bool
	Round      *GameRound
	Resolution *Resolution
	Bets       []*BetSettlement
	Winners    int
	Anomalies  int
}

// TotalPayout returns the sum of payouts actually credited
func (s *RoundSettlement) TotalPayout() int64 {
	var total int64
	for _, b := range s.Bets {
		total += b.Payout
	}
	return total
}

// RoundResultStatus describes how a sweep handled one round
type RoundResultStatus string

const (
	RoundResultSettled RoundResultStatus = "settled"
	RoundResultNoBets  RoundResultStatus = "no_bets"
	RoundResultSkipped RoundResultStatus = "skipped"
	RoundResultError   RoundResultStatus = "error"
)

// RoundResult is the per-round line of a sweep summary
type RoundResult struct {
	RoundID         int64             `json:"round_id"`
	GameType        GameType          `json:"game_type"`
	Status          RoundResultStatus `json:"status"`
	WinningOutcome  string            `json:"winning_outcome,omitempty"`
	TotalStake      int64             `json:"total_stake"`
	TotalPayout     int64             `json:"total_payout"`
	Winners         int               `json:"winners"`
	Anomalies       int               `json:"anomalies"`
	Commissions     int               `json:"commissions"`
	CommissionError string            `json:"commission_error,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// SweepSummary is returned by every settlement trigger
type SweepSummary struct {
	SettledCount int           `json:"settled_count"`
	SkippedCount int           `json:"skipped_count"`
	ErrorCount   int           `json:"error_count"`
	Results      []RoundResult `json:"results"`
}

// Add records one round result and updates the counters
func (s *SweepSummary) Add(result RoundResult) {
	switch result.Status {
	case RoundResultSettled, RoundResultNoBets:
		s.SettledCount++
	case RoundResultSkipped:
		s.SkippedCount++
	case RoundResultError:
		s.ErrorCount++
	}
	s.Results = append(s.Results, result)
}

// DistributionResult is the outcome of one commission distribution run
type DistributionResult struct {
	RoundID int64               `json:"round_id"`
	Records []*CommissionRecord `json:"records"`
	Skipped int                 `json:"skipped"`
	Failed  int                 `json:"failed"`
}

// LedgerMismatch is one entry whose snapshot disagrees with the replayed balance
type LedgerMismatch struct {
	EntryID  int64 `json:"entry_id"`
	Expected int64 `json:"expected"`
	Recorded int64 `json:"recorded"`
}

// LedgerAudit is the result of replaying one account's ledger
type LedgerAudit struct {
	AccountID       int64            `json:"account_id"`
	EntryCount      int              `json:"entry_count"`
	ReplayedBalance int64            `json:"replayed_balance"`
	StoredBalance   int64            `json:"stored_balance"`
	Mismatches      []LedgerMismatch `json:"mismatches,omitempty"`
}

// IsConsistent returns true if every snapshot and the final balance agree
func (a *LedgerAudit) IsConsistent() bool {
	return len(a.Mismatches) == 0 && a.ReplayedBalance == a.StoredBalance
}
