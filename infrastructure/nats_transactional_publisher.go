package infrastructure

import (
	"context"

	"roundsettle/domain/events"
	"roundsettle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher holds events until flush, then publishes them.
// Flush is called after the database transaction commits, Discard on rollback.
type NATSTransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	pending       []events.Event
}

// NewNATSTransactionalPublisher creates a new transactional publisher
func NewNATSTransactionalPublisher(realPublisher interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{
		realPublisher: realPublisher,
		pending:       make([]events.Event, 0),
	}
}

// Publish stores an event in the pending queue without immediately publishing
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"pendingCount": len(p.pending),
	}).Debug("Adding event to transactional publisher pending queue")

	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events in order.
// A failed event is logged and does not stop the rest.
func (p *NATSTransactionalPublisher) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(p.pending)).Debug("Flushing pending events")

	for _, event := range p.pending {
		if err := p.realPublisher.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}

	p.pending = p.pending[:0]
	return nil
}

// Discard clears all pending events without publishing them
func (p *NATSTransactionalPublisher) Discard() {
	log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding pending events")
	p.pending = p.pending[:0]
}
