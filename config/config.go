package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"roundsettle/database"

	"github.com/shopspring/decimal"
)

// Scheduler names accepted by SCHEDULER
const (
	SchedulerTicker = "ticker"
	SchedulerRiver  = "river"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Settlement configuration
	SettlementInterval time.Duration
	Scheduler          string // "ticker" or "river"
	GameConfigPath     string // YAML game table, empty uses the embedded defaults

	// Commission configuration
	CommissionRates   []decimal.Decimal // rate per tier, nearest upline first
	HierarchyMaxDepth int

	// Admin API configuration
	AdminAPIAddr   string
	AdminJWTSecret string // empty disables the admin API

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

const defaultCommissionRates = "0.03,0.015,0.008,0.005"

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// AdminAPIEnabled returns true when a signing secret is configured
func (c *Config) AdminAPIEnabled() bool {
	return c.AdminJWTSecret != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		SettlementInterval: 60 * time.Second,
		Scheduler:          getEnvWithDefault("SCHEDULER", SchedulerTicker),
		GameConfigPath:     os.Getenv("GAME_CONFIG_PATH"),

		HierarchyMaxDepth: 10,

		AdminAPIAddr:   getEnvWithDefault("ADMIN_API_ADDR", ":8080"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "round-settlement"),
		OTelExportIntervalMillis: 10000,

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	// Override defaults if environment variables are set
	if interval := os.Getenv("SETTLEMENT_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTLEMENT_INTERVAL: %w", err)
		}
		config.SettlementInterval = parsed
	}
	if depth := os.Getenv("HIERARCHY_MAX_DEPTH"); depth != "" {
		parsed, err := strconv.Atoi(depth)
		if err != nil {
			return nil, fmt.Errorf("invalid HIERARCHY_MAX_DEPTH: %w", err)
		}
		config.HierarchyMaxDepth = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}

	rates, err := ParseCommissionRates(getEnvWithDefault("COMMISSION_RATES", defaultCommissionRates))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATES: %w", err)
	}
	config.CommissionRates = rates

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required and bounded settings
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.SettlementInterval <= 0 {
		return fmt.Errorf("SETTLEMENT_INTERVAL must be positive")
	}
	if c.Scheduler != SchedulerTicker && c.Scheduler != SchedulerRiver {
		return fmt.Errorf("SCHEDULER must be %q or %q, got %q", SchedulerTicker, SchedulerRiver, c.Scheduler)
	}
	if c.HierarchyMaxDepth < 1 {
		return fmt.Errorf("HIERARCHY_MAX_DEPTH must be at least 1")
	}
	return nil
}

// ParseCommissionRates parses a comma-separated list of tier rates.
// Every rate must lie in [0, 1).
func ParseCommissionRates(s string) ([]decimal.Decimal, error) {
	var rates []decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rate, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", part, err)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("rate %s must be in [0, 1)", rate)
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("at least one commission rate is required")
	}
	return rates, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	rates, _ := ParseCommissionRates(defaultCommissionRates)
	return &Config{
		SettlementInterval: time.Minute,
		Scheduler:          SchedulerTicker,
		CommissionRates:    rates,
		HierarchyMaxDepth:  10,
		AdminAPIAddr:       ":0",
		OTelExporterType:   "none",
		OTelServiceName:    "round-settlement-test",
		Environment:        "test",
	}
}
