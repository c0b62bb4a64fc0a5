package observability

// Metric name prefixes
const (
	MetricPrefix = "round_settlement"
)

// Metric names
const (
	// Settlement metrics
	RoundsTotal        = MetricPrefix + ".rounds.total"
	SettlementDuration = MetricPrefix + ".rounds.settlement_duration"
	PayoutAmountTotal  = MetricPrefix + ".payouts.amount_total"
	BetAnomaliesTotal  = MetricPrefix + ".bets.anomalies_total"
	LedgerEntriesTotal = MetricPrefix + ".ledger.entries_total"

	// Commission metrics
	CommissionsPaidTotal    = MetricPrefix + ".commissions.paid_total"
	CommissionsSkippedTotal = MetricPrefix + ".commissions.skipped_total"
	CommissionsFailedTotal  = MetricPrefix + ".commissions.failed_total"
	CommissionAmountTotal   = MetricPrefix + ".commissions.amount_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelStatus    = "status"
	LabelGameType  = "game_type"
	LabelEventType = "event_type"
	LabelTier      = "tier"
	LabelEntryKind = "kind"
)
