package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roundsettle/domain/entities"
	"roundsettle/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRoundRepository_FindDue(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewGameRoundRepository(testDB.DB)
	seed := testutil.NewSeeder(t, testDB.DB)
	ctx := context.Background()

	older := seed.Round("coin_toss", 2*time.Minute)
	newer := seed.Round("color_wheel", time.Minute)
	seed.Round("coin_toss", -time.Minute) // still open

	settled := seed.Round("coin_toss", 3*time.Minute)
	ok, err := repo.CompareAndSetStatus(ctx, settled.ID, entities.RoundStatusBetting, entities.RoundStatusSettled)
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Now()

	t.Run("all game types ordered by end time", func(t *testing.T) {
		rounds, err := repo.FindDue(ctx, entities.RoundStatusBetting, "", now)
		require.NoError(t, err)
		require.Len(t, rounds, 2)
		assert.Equal(t, older.ID, rounds[0].ID)
		assert.Equal(t, newer.ID, rounds[1].ID)
	})

	t.Run("filtered by game type", func(t *testing.T) {
		rounds, err := repo.FindDue(ctx, entities.RoundStatusBetting, "color_wheel", now)
		require.NoError(t, err)
		require.Len(t, rounds, 1)
		assert.Equal(t, newer.ID, rounds[0].ID)
	})

	t.Run("open round", func(t *testing.T) {
		round, err := repo.GetOpenRound(ctx, "coin_toss", now)
		require.NoError(t, err)
		require.NotNil(t, round)
		assert.True(t, round.EndsAt.After(now))

		round, err = repo.GetOpenRound(ctx, "number_pick", now)
		require.NoError(t, err)
		assert.Nil(t, round)
	})
}

func TestGameRoundRepository_CompareAndSetStatus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewGameRoundRepository(testDB.DB)
	seed := testutil.NewSeeder(t, testDB.DB)
	ctx := context.Background()

	t.Run("only one concurrent claim wins", func(t *testing.T) {
		round := seed.Round("coin_toss", time.Minute)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.CompareAndSetStatus(ctx, round.ID, entities.RoundStatusBetting, entities.RoundStatusSettled)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("missing round is not claimed", func(t *testing.T) {
		ok, err := repo.CompareAndSetStatus(ctx, 999999, entities.RoundStatusBetting, entities.RoundStatusSettled)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGameRoundRepository_Finalize(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewGameRoundRepository(testDB.DB)
	seed := testutil.NewSeeder(t, testDB.DB)
	ctx := context.Background()

	round := seed.Round("color_wheel", time.Minute)

	outcome := "A,B"
	settledAt := time.Now().UTC().Truncate(time.Microsecond)
	round.Status = entities.RoundStatusSettled
	round.WinningOutcome = &outcome
	round.TotalStake = 200
	round.TotalPayout = 165
	round.SettledAt = &settledAt
	require.NoError(t, repo.Finalize(ctx, round))

	got, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsSettled())
	assert.Equal(t, "A,B", got.Outcome())
	assert.Equal(t, int64(200), got.TotalStake)
	assert.Equal(t, int64(165), got.TotalPayout)
	require.NotNil(t, got.SettledAt)
	assert.True(t, settledAt.Equal(*got.SettledAt))

	err = repo.Finalize(ctx, &entities.GameRound{ID: 999999, Status: entities.RoundStatusSettled})
	assert.ErrorIs(t, err, entities.ErrRoundNotFound)
}
