package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roundsettle/domain/events"
	"roundsettle/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventEnvelope wraps every published payload
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher implements the EventPublisher interface using NATS
type NATSEventPublisher struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
	timeout       time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		timeout:       5 * time.Second,
	}
}

// Publish wraps the event in an envelope and publishes it to its subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	subject := p.subjectMapper.MapEventToSubject(event)

	envelopeData, envelopeID, err := newEnvelope(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.natsClient.Publish(ctx, subject, envelopeData); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if metrics := observability.GetMetrics(); metrics != nil {
		metrics.RecordNATSMessagePublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelopeID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// EnsureSettlementStream ensures the settlement stream exists with every published subject
func (p *NATSEventPublisher) EnsureSettlementStream() error {
	return p.natsClient.EnsureStream(SettlementStream, p.subjectMapper.GetAllSubjects())
}

func newEnvelope(event events.Event) ([]byte, string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "roundsettle",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, envelope.EventID, nil
}
