package services

import (
	"time"

	"roundsettle/domain/entities"

	"github.com/shopspring/decimal"
)

// Helper to create a test account with common defaults
func createTestAccount(id int64, role entities.Role, parentID *int64) *entities.Account {
	return &entities.Account{
		ID:        id,
		Username:  "account",
		Role:      role,
		Balance:   10000,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
}

// Helper to create a placed bet
func createTestBet(id, roundID, accountID int64, gameType entities.GameType, outcome string, amount int64) *entities.Bet {
	return &entities.Bet{
		ID:        id,
		RoundID:   roundID,
		AccountID: accountID,
		GameType:  gameType,
		Outcome:   outcome,
		Amount:    amount,
		Status:    entities.BetStatusPlaced,
		CreatedAt: time.Now(),
	}
}

// Helper to create a round that ended a minute ago
func createTestRound(id int64, gameType entities.GameType, status entities.RoundStatus) *entities.GameRound {
	now := time.Now().UTC()
	return &entities.GameRound{
		ID:        id,
		GameType:  gameType,
		StartsAt:  now.Add(-2 * time.Minute),
		EndsAt:    now.Add(-1 * time.Minute),
		Status:    status,
		CreatedAt: now.Add(-2 * time.Minute),
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func outcome(label, multiplier string) entities.OutcomeConfig {
	return entities.OutcomeConfig{Label: label, Multiplier: decimal.RequireFromString(multiplier)}
}

// testGameTable returns a small table with one single-winner and one multi-select game
func testGameTable() entities.GameTable {
	return entities.GameTable{
		"coin_toss": {
			GameType:        "coin_toss",
			Mode:            entities.GameModeSingle,
			MinBet:          10,
			HouseEdgeTarget: decimal.RequireFromString("0.95"),
			RoundDuration:   time.Minute,
			Outcomes:        []entities.OutcomeConfig{outcome("heads", "1.95"), outcome("tails", "1.95")},
		},
		"color_wheel": {
			GameType:        "color_wheel",
			Mode:            entities.GameModeMulti,
			MinBet:          10,
			HouseEdgeTarget: decimal.RequireFromString("0.9"),
			RoundDuration:   time.Minute,
			Outcomes:        []entities.OutcomeConfig{outcome("A", "2"), outcome("B", "1.7"), outcome("C", "5")},
		},
	}
}
