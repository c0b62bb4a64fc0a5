package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roundsettle/config"
	"roundsettle/domain/entities"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the settlement service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	roundsCounter                metric.Int64Counter
	settlementDurationHist       metric.Float64Histogram
	payoutAmountCounter          metric.Int64Counter
	betAnomaliesCounter          metric.Int64Counter
	ledgerEntriesCounter         metric.Int64Counter
	commissionsPaidCounter       metric.Int64Counter
	commissionsSkippedCounter    metric.Int64Counter
	commissionsFailedCounter     metric.Int64Counter
	commissionAmountCounter      metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := newResource(mp.config)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("roundsettle")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// newResource describes this service on top of the SDK's default resource.
// The semconv import must match the schema version the SDK uses.
func newResource(cfg *config.Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.OTelServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.roundsCounter, RoundsTotal, "Rounds processed by settlement sweeps, by result status", "1"},
		{&mp.payoutAmountCounter, PayoutAmountTotal, "Points credited to winning bets", "{point}"},
		{&mp.betAnomaliesCounter, BetAnomaliesTotal, "Bets settled as anomalies", "1"},
		{&mp.ledgerEntriesCounter, LedgerEntriesTotal, "Ledger entries written by settlement, by kind", "1"},
		{&mp.commissionsPaidCounter, CommissionsPaidTotal, "Commission records created", "1"},
		{&mp.commissionsSkippedCounter, CommissionsSkippedTotal, "Commission shares already paid by an earlier run", "1"},
		{&mp.commissionsFailedCounter, CommissionsFailedTotal, "Commission shares or bettors that failed", "1"},
		{&mp.commissionAmountCounter, CommissionAmountTotal, "Points credited as commission", "{point}"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "NATS messages published", "1"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.settlementDurationHist, err = mp.meter.Float64Histogram(
		SettlementDuration,
		metric.WithDescription("Time to settle one round including commissions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider == nil {
		return nil
	}
	if err := mp.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	mp.enabled = false
	return nil
}

// RecordRoundResult records one round's result from a sweep
func (mp *MetricsProvider) RecordRoundResult(ctx context.Context, result entities.RoundResult, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelStatus, string(result.Status)),
		attribute.String(LabelGameType, string(result.GameType)),
	)
	mp.roundsCounter.Add(ctx, 1, attrs)

	if result.Status == entities.RoundResultSkipped {
		return
	}
	mp.settlementDurationHist.Record(ctx, duration.Seconds(), attrs)

	gameAttr := metric.WithAttributes(attribute.String(LabelGameType, string(result.GameType)))
	if result.TotalPayout > 0 {
		mp.payoutAmountCounter.Add(ctx, result.TotalPayout, gameAttr)
	}
	if result.Winners > 0 {
		mp.ledgerEntriesCounter.Add(ctx, int64(result.Winners),
			metric.WithAttributes(attribute.String(LabelEntryKind, string(entities.EntryKindPayoutCredit))))
	}
	if result.Anomalies > 0 {
		mp.betAnomaliesCounter.Add(ctx, int64(result.Anomalies), gameAttr)
	}
}

// RecordDistribution records the outcome of one commission run
func (mp *MetricsProvider) RecordDistribution(ctx context.Context, result *entities.DistributionResult) {
	if !mp.isEnabled() || result == nil {
		return
	}

	for _, record := range result.Records {
		attrs := metric.WithAttributes(attribute.Int(LabelTier, record.Tier))
		mp.commissionsPaidCounter.Add(ctx, 1, attrs)
		mp.commissionAmountCounter.Add(ctx, record.Amount, attrs)
	}
	if len(result.Records) > 0 {
		mp.ledgerEntriesCounter.Add(ctx, int64(len(result.Records)),
			metric.WithAttributes(attribute.String(LabelEntryKind, string(entities.EntryKindCommission))))
	}
	if result.Skipped > 0 {
		mp.commissionsSkippedCounter.Add(ctx, int64(result.Skipped))
	}
	if result.Failed > 0 {
		mp.commissionsFailedCounter.Add(ctx, int64(result.Failed))
	}
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if instruments exist and the provider is running
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
