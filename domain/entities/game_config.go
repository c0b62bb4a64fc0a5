package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GameType identifies a game consistently across rounds, bets and configuration
type GameType string

func (g GameType) String() string {
	return string(g)
}

// GameMode selects how the outcome resolver picks winners
type GameMode string

const (
	// GameModeSingle games have exactly one winning outcome per round
	GameModeSingle GameMode = "single"
	// GameModeMulti games may have up to three simultaneously winning labels
	GameModeMulti GameMode = "multi"
)

// OutcomeConfig is one outcome label and its payout multiplier
type OutcomeConfig struct {
	Label      string
	Multiplier decimal.Decimal
}

// GameConfig holds the static parameters for one game type
type GameConfig struct {
	GameType        GameType
	Mode            GameMode
	MinBet          int64
	HouseEdgeTarget decimal.Decimal
	RoundDuration   time.Duration
	Outcomes        []OutcomeConfig
}

// Multiplier returns the configured multiplier for an outcome label
func (c *GameConfig) Multiplier(label string) (decimal.Decimal, bool) {
	for _, o := range c.Outcomes {
		if o.Label == label {
			return o.Multiplier, true
		}
	}
	return decimal.Zero, false
}

// Labels returns the outcome labels in configured order
func (c *GameConfig) Labels() []string {
	labels := make([]string, len(c.Outcomes))
	for i, o := range c.Outcomes {
		labels[i] = o.Label
	}
	return labels
}

// Validate checks the configuration for obvious mistakes
func (c *GameConfig) Validate() error {
	if c.GameType == "" {
		return fmt.Errorf("game type is required")
	}
	if c.Mode != GameModeSingle && c.Mode != GameModeMulti {
		return fmt.Errorf("game %s: unknown mode %q", c.GameType, c.Mode)
	}
	if c.MinBet <= 0 {
		return fmt.Errorf("game %s: min bet must be positive", c.GameType)
	}
	if !c.HouseEdgeTarget.IsPositive() || c.HouseEdgeTarget.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("game %s: house edge target must be in (0, 1], got %s", c.GameType, c.HouseEdgeTarget)
	}
	if len(c.Outcomes) == 0 {
		return fmt.Errorf("game %s: at least one outcome is required", c.GameType)
	}
	seen := make(map[string]bool, len(c.Outcomes))
	for _, o := range c.Outcomes {
		if o.Label == "" {
			return fmt.Errorf("game %s: outcome label cannot be empty", c.GameType)
		}
		if seen[o.Label] {
			return fmt.Errorf("game %s: duplicate outcome %q", c.GameType, o.Label)
		}
		seen[o.Label] = true
		if !o.Multiplier.IsPositive() {
			return fmt.Errorf("game %s: outcome %q multiplier must be positive", c.GameType, o.Label)
		}
	}
	return nil
}

// GameTable maps each game type to its configuration
type GameTable map[GameType]*GameConfig

// Get returns the configuration for a game type
func (t GameTable) Get(gameType GameType) (*GameConfig, error) {
	cfg, ok := t[gameType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameType, gameType)
	}
	return cfg, nil
}

// GameTypes returns all configured game types sorted by name
func (t GameTable) GameTypes() []GameType {
	types := make([]GameType, 0, len(t))
	for gt := range t {
		types = append(types, gt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Validate validates every game in the table
func (t GameTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("game table is empty")
	}
	for gt, cfg := range t {
		if cfg.GameType != gt {
			return fmt.Errorf("game table key %s does not match game type %s", gt, cfg.GameType)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
