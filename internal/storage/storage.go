// Package storage defines the persistence contract consumed by the
// match scheduler. Two backends implement it: postgres and file.
package storage

import (
	"context"
	"errors"

	"dice-bet-bot/internal/model"
)

// ErrPlayerNotFound is returned for reads and updates of players that
// were never registered in the room.
var ErrPlayerNotFound = errors.New("player not found")

// Adapter is the storage contract. Each call is atomic on its own; the
// scheduler serializes related reads and writes per room itself.
type Adapter interface {
	// EnsurePlayer creates the player's per-room record with the given
	// initial score if absent, and refreshes the username otherwise.
	EnsurePlayer(ctx context.Context, roomID, playerID int64, username string, initialScore int64) (*model.PlayerStats, error)

	// GetScore returns the player's current score in a room.
	// Returns ErrPlayerNotFound for unknown players.
	GetScore(ctx context.Context, roomID, playerID int64) (int64, error)

	// AdjustScore applies a score delta and updates the player's record.
	// betCount is added to the player's total bet count; when betCount
	// is positive, isWin selects which of wins/losses to increment.
	// Debits and refunds pass betCount zero.
	AdjustScore(ctx context.Context, roomID, playerID int64, delta int64, isWin bool, betCount int) error

	// TopPlayers returns the room's players ordered by score descending.
	TopPlayers(ctx context.Context, roomID int64, limit int) ([]*model.PlayerStats, error)

	// GetRoom returns the room's persistent counters, creating the room
	// lazily on first access.
	GetRoom(ctx context.Context, roomID int64) (*model.Room, error)

	// SaveRoom persists the room's counters.
	SaveRoom(ctx context.Context, room *model.Room) error

	// IncrementMatchCounter bumps the room's monotonic match counter
	// and returns the new value.
	IncrementMatchCounter(ctx context.Context, roomID int64) (int64, error)

	// AppendMatchHistory appends a settled or voided match record.
	AppendMatchHistory(ctx context.Context, roomID int64, rec *model.MatchRecord) error

	// GetRecentMatches returns the newest match records, newest first.
	GetRecentMatches(ctx context.Context, roomID int64, limit int) ([]*model.MatchRecord, error)

	// SaveActiveMatch persists the live match snapshot for crash recovery.
	SaveActiveMatch(ctx context.Context, snap *model.MatchSnapshot) error

	// LoadActiveMatches returns every persisted live match, keyed by room.
	LoadActiveMatches(ctx context.Context) (map[int64]*model.MatchSnapshot, error)

	// ClearActiveMatch removes the room's live match snapshot.
	ClearActiveMatch(ctx context.Context, roomID int64) error
}
