package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"roundsettle/domain/entities"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_games.yaml
var defaultGamesYAML []byte

type gamesFile struct {
	Games map[string]gameSpec `yaml:"games"`
}

type gameSpec struct {
	Mode            string        `yaml:"mode"`
	MinBet          int64         `yaml:"min_bet"`
	HouseEdgeTarget float64       `yaml:"house_edge_target"`
	RoundDuration   time.Duration `yaml:"round_duration"`
	Outcomes        []outcomeSpec `yaml:"outcomes"`
}

type outcomeSpec struct {
	Label      string  `yaml:"label"`
	Multiplier float64 `yaml:"multiplier"`
}

const defaultRoundDuration = time.Minute

// LoadGameTable reads the game table from path, or the built-in table when path is empty
func LoadGameTable(path string) (entities.GameTable, error) {
	if path == "" {
		return ParseGameTable(defaultGamesYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config %s: %w", path, err)
	}
	return ParseGameTable(data)
}

// ParseGameTable decodes and validates a YAML game table
func ParseGameTable(data []byte) (entities.GameTable, error) {
	var file gamesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse game config: %w", err)
	}

	table := make(entities.GameTable, len(file.Games))
	for name, entry := range file.Games {
		cfg := &entities.GameConfig{
			GameType:        entities.GameType(name),
			Mode:            entities.GameMode(entry.Mode),
			MinBet:          entry.MinBet,
			HouseEdgeTarget: decimal.NewFromFloat(entry.HouseEdgeTarget),
			RoundDuration:   entry.RoundDuration,
			Outcomes:        make([]entities.OutcomeConfig, 0, len(entry.Outcomes)),
		}
		if cfg.Mode == "" {
			cfg.Mode = entities.GameModeSingle
		}
		if cfg.RoundDuration <= 0 {
			cfg.RoundDuration = defaultRoundDuration
		}
		for _, o := range entry.Outcomes {
			cfg.Outcomes = append(cfg.Outcomes, entities.OutcomeConfig{
				Label:      o.Label,
				Multiplier: decimal.NewFromFloat(o.Multiplier),
			})
		}
		table[cfg.GameType] = cfg
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	return table, nil
}
