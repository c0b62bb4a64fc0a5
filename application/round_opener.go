package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roundsettle/domain/entities"

	log "github.com/sirupsen/logrus"
)

// RoundOpener keeps one betting round open per configured game type
type RoundOpener struct {
	uowFactory UnitOfWorkFactory
	games      entities.GameTable
	now        func() time.Time
}

// NewRoundOpener creates a new round opener
func NewRoundOpener(uowFactory UnitOfWorkFactory, games entities.GameTable) *RoundOpener {
	return &RoundOpener{
		uowFactory: uowFactory,
		games:      games,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnsureOpenRounds opens the next round for every game type that has none
// accepting bets. It returns the rounds it created.
func (o *RoundOpener) EnsureOpenRounds(ctx context.Context) ([]*entities.GameRound, error) {
	var opened []*entities.GameRound
	var errs []error

	for _, gameType := range o.games.GameTypes() {
		round, err := o.ensureOpen(ctx, o.games[gameType])
		if err != nil {
			log.WithField("game_type", gameType).WithError(err).Error("Failed to open round")
			errs = append(errs, err)
			continue
		}
		if round != nil {
			opened = append(opened, round)
		}
	}

	return opened, errors.Join(errs...)
}

func (o *RoundOpener) ensureOpen(ctx context.Context, game *entities.GameConfig) (*entities.GameRound, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := o.now()
	open, err := uow.GameRoundRepository().GetOpenRound(ctx, game.GameType, now)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, nil
	}

	round := &entities.GameRound{
		GameType: game.GameType,
		StartsAt: now,
		EndsAt:   now.Add(game.RoundDuration),
		Status:   entities.RoundStatusBetting,
	}
	if err := uow.GameRoundRepository().Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create %s round: %w", game.GameType, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"round_id":  round.ID,
		"game_type": round.GameType,
		"ends_at":   round.EndsAt,
	}).Info("Opened new round")

	return round, nil
}
