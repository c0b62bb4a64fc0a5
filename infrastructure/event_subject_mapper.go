package infrastructure

import (
	"fmt"

	"roundsettle/domain/events"
)

// SettlementStream is the JetStream stream holding every published event
const SettlementStream = "settlement_events"

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject.
// Round results are split per game type so consumers can follow one game.
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch e := event.(type) {
	case events.RoundSettledEvent:
		return fmt.Sprintf("rounds.%s.settled", e.GameType)
	case events.BalanceChangeEvent:
		return "accounts.balance_changed"
	case events.CommissionPaidEvent:
		return "commissions.paid"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"rounds.*.settled",
		"accounts.balance_changed",
		"commissions.paid",
	}
}
