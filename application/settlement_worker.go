package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// SettlementWorker is the periodic trigger: each tick it settles due rounds
// and then opens the next round for every game type
type SettlementWorker struct {
	settler  *RoundSettler
	opener   *RoundOpener
	interval time.Duration
}

// NewSettlementWorker creates a new settlement worker. A nil opener disables round opening.
func NewSettlementWorker(settler *RoundSettler, opener *RoundOpener, interval time.Duration) *SettlementWorker {
	return &SettlementWorker{
		settler:  settler,
		opener:   opener,
		interval: interval,
	}
}

// Tick runs one sweep followed by round opening
func (w *SettlementWorker) Tick(ctx context.Context) {
	if _, err := w.settler.SettleDueRounds(ctx); err != nil {
		log.WithError(err).Error("Settlement sweep failed")
	}

	if w.opener == nil {
		return
	}
	if _, err := w.opener.EnsureOpenRounds(ctx); err != nil {
		log.WithError(err).Error("Failed to open rounds")
	}
}

// Start begins the settlement worker
// Returns a cleanup function to stop the worker gracefully
func (w *SettlementWorker) Start(ctx context.Context) func() {
	ticker := time.NewTicker(w.interval)
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Settlement worker started")

		// Run immediately on startup
		w.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Settlement worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Settlement worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()

	// Return cleanup function
	return func() {
		ticker.Stop()
		close(stopChan)
		<-done
	}
}
