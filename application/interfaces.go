package application

import (
	"context"
	"time"

	"roundsettle/domain/entities"
)

// Distributor pays the commissions owed for a settled round.
// The round settler calls it after payouts are committed.
type Distributor interface {
	DistributeCommissions(ctx context.Context, roundID int64) (*entities.DistributionResult, error)
}

// MetricsRecorder receives settlement measurements
type MetricsRecorder interface {
	// RecordRoundResult records one round's outcome from a sweep
	RecordRoundResult(ctx context.Context, result entities.RoundResult, duration time.Duration)

	// RecordDistribution records the outcome of one commission run
	RecordDistribution(ctx context.Context, result *entities.DistributionResult)
}

type noopMetrics struct{}

// NewNoopMetrics returns a recorder that drops every measurement
func NewNoopMetrics() MetricsRecorder {
	return noopMetrics{}
}

func (noopMetrics) RecordRoundResult(context.Context, entities.RoundResult, time.Duration) {}

func (noopMetrics) RecordDistribution(context.Context, *entities.DistributionResult) {}
