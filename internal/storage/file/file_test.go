package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dice-bet-bot/internal/model"
	"dice-bet-bot/internal/storage"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gamedata.json")
	s, err := Open(path, 5)
	require.NoError(t, err)
	return s, path
}

func TestFileStorePlayers(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	p, err := s.EnsurePlayer(ctx, 1, 100, "alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Score)

	// Second ensure keeps the score, refreshes the username
	p, err = s.EnsurePlayer(ctx, 1, 100, "alice_renamed", 9999)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Score)
	assert.Equal(t, "alice_renamed", p.Username)

	score, err := s.GetScore(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), score)

	_, err = s.GetScore(ctx, 1, 999)
	assert.ErrorIs(t, err, storage.ErrPlayerNotFound)
}

func TestFileStoreAdjustScore(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	_, err := s.EnsurePlayer(ctx, 1, 100, "alice", 1000)
	require.NoError(t, err)

	// Debit carries no bet count and no win/loss change
	require.NoError(t, s.AdjustScore(ctx, 1, 100, -200, false, 0))
	// Winning settlement
	require.NoError(t, s.AdjustScore(ctx, 1, 100, 400, true, 1))
	// Losing settlement credits nothing but counts the bet
	require.NoError(t, s.AdjustScore(ctx, 1, 100, 0, false, 1))

	players, err := s.TopPlayers(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, players, 1)
	p := players[0]
	assert.Equal(t, int64(1200), p.Score)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 1, p.Losses)
	assert.Equal(t, 2, p.TotalBets)

	err = s.AdjustScore(ctx, 1, 999, 10, false, 0)
	assert.ErrorIs(t, err, storage.ErrPlayerNotFound)
}

func TestFileStoreTopPlayersOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	scores := map[int64]int64{1: 50, 2: 300, 3: 150}
	for id, score := range scores {
		_, err := s.EnsurePlayer(ctx, 1, id, "", score)
		require.NoError(t, err)
	}

	players, err := s.TopPlayers(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, int64(2), players[0].PlayerID)
	assert.Equal(t, int64(3), players[1].PlayerID)
}

func TestFileStoreRoomCounters(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	room, err := s.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, room.MatchCounter)

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementMatchCounter(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	room.ConsecutiveIdleMatches = 2
	room.ManualStopCooldownUntil = time.Now().Add(10 * time.Second)
	require.NoError(t, s.SaveRoom(ctx, room))

	room, err = s.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, room.ConsecutiveIdleMatches)
	assert.False(t, room.ManualStopCooldownUntil.IsZero())
	assert.Equal(t, int64(3), room.MatchCounter)
}

func TestFileStoreHistoryCap(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t) // cap 5

	for i := 1; i <= 8; i++ {
		err := s.AppendMatchHistory(ctx, 1, &model.MatchRecord{
			MatchID:   int64(i),
			SettledAt: time.Now(),
		})
		require.NoError(t, err)
	}

	recs, err := s.GetRecentMatches(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	// Newest first, oldest three dropped
	assert.Equal(t, int64(8), recs[0].MatchID)
	assert.Equal(t, int64(4), recs[4].MatchID)
}

func TestFileStoreActiveMatch(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	snap := &model.MatchSnapshot{
		RoomID:    1,
		MatchID:   7,
		State:     model.MatchWaiting,
		CreatedAt: time.Now(),
		Bets: []model.Bet{
			{PlayerID: 100, Username: "alice", Category: model.CategoryBig, Amount: 50},
		},
	}
	require.NoError(t, s.SaveActiveMatch(ctx, snap))

	snaps, err := s.LoadActiveMatches(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(7), snaps[1].MatchID)
	require.Len(t, snaps[1].Bets, 1)

	require.NoError(t, s.ClearActiveMatch(ctx, 1))
	snaps, err = s.LoadActiveMatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	// Clearing an absent snapshot is a no-op
	require.NoError(t, s.ClearActiveMatch(ctx, 1))
}

func TestFileStoreSurvivesReload(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	_, err := s.EnsurePlayer(ctx, 1, 100, "alice", 1000)
	require.NoError(t, err)
	require.NoError(t, s.AdjustScore(ctx, 1, 100, -250, false, 0))
	_, err = s.IncrementMatchCounter(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.SaveActiveMatch(ctx, &model.MatchSnapshot{
		RoomID: 1, MatchID: 1, State: model.MatchClosed, Dice: [2]int{2, 5},
	}))

	reloaded, err := Open(path, 5)
	require.NoError(t, err)

	score, err := reloaded.GetScore(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(750), score)

	room, err := reloaded.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.MatchCounter)

	snaps, err := reloaded.LoadActiveMatches(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[1].DiceDrawn())
	assert.Equal(t, [2]int{2, 5}, snaps[1].Dice)
}
