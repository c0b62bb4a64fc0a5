package infrastructure

import (
	"context"
	"fmt"
	"time"

	"roundsettle/database"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	log "github.com/sirupsen/logrus"
)

// SettleDueRoundsArgs is the periodic job that triggers a settlement sweep
type SettleDueRoundsArgs struct{}

// Kind identifies the job in river's tables
func (SettleDueRoundsArgs) Kind() string { return "settle_due_rounds" }

type settleDueRoundsWorker struct {
	river.WorkerDefaults[SettleDueRoundsArgs]
	tick func(ctx context.Context)
}

func (w *settleDueRoundsWorker) Work(ctx context.Context, job *river.Job[SettleDueRoundsArgs]) error {
	log.WithField("job_id", job.ID).Debug("Running periodic settlement job")
	w.tick(ctx)
	return nil
}

// RiverScheduler runs the settlement sweep as a river periodic job.
// River elects one leader across processes, so only one sweep is enqueued per interval.
type RiverScheduler struct {
	client *river.Client[pgx.Tx]
}

// MigrateRiver creates or upgrades river's own tables
func MigrateRiver(ctx context.Context, db *database.DB) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(db.Pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	return nil
}

// NewRiverScheduler creates a river client with one periodic settlement job
func NewRiverScheduler(db *database.DB, interval time.Duration, tick func(ctx context.Context)) (*RiverScheduler, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &settleDueRoundsWorker{tick: tick})

	client, err := river.NewClient(riverpgxv5.New(db.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					// A missed sweep is covered by the next one
					return SettleDueRoundsArgs{}, &river.InsertOpts{MaxAttempts: 1}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}

	return &RiverScheduler{client: client}, nil
}

// Start begins fetching and running jobs
func (s *RiverScheduler) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start river client: %w", err)
	}
	log.Info("River settlement scheduler started")
	return nil
}

// Stop waits for the running job to finish and shuts the client down
func (s *RiverScheduler) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop river client: %w", err)
	}
	log.Info("River settlement scheduler stopped")
	return nil
}
