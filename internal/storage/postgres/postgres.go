// Package postgres implements the storage adapter on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dice-bet-bot/internal/model"
	"dice-bet-bot/internal/storage"
)

// Store is the PostgreSQL-backed storage adapter.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema. Safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			chat_id BIGINT PRIMARY KEY,
			match_counter BIGINT NOT NULL DEFAULT 0,
			consecutive_idle_matches INT NOT NULL DEFAULT 0,
			manual_stop_cooldown_until TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create rooms table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			room_id BIGINT NOT NULL,
			player_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL,
			score BIGINT NOT NULL DEFAULT 0,
			wins INT NOT NULL DEFAULT 0,
			losses INT NOT NULL DEFAULT 0,
			total_bets INT NOT NULL DEFAULT 0,
			last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (room_id, player_id)
		);
		CREATE INDEX IF NOT EXISTS idx_players_room_score ON players(room_id, score DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS match_history (
			id BIGSERIAL PRIMARY KEY,
			room_id BIGINT NOT NULL,
			match_id BIGINT NOT NULL,
			die_one INT NOT NULL DEFAULT 0,
			die_two INT NOT NULL DEFAULT 0,
			total INT NOT NULL DEFAULT 0,
			winning_category VARCHAR(20) NOT NULL DEFAULT '',
			voided BOOLEAN NOT NULL DEFAULT FALSE,
			participants INT NOT NULL DEFAULT 0,
			total_wagered BIGINT NOT NULL DEFAULT 0,
			total_paid_out BIGINT NOT NULL DEFAULT 0,
			settled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_match_history_room_time ON match_history(room_id, settled_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create match_history table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS active_matches (
			room_id BIGINT PRIMARY KEY,
			snapshot JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create active_matches table: %w", err)
	}

	return nil
}

// EnsurePlayer creates the player's per-room record if absent and
// refreshes the username otherwise.
func (s *Store) EnsurePlayer(ctx context.Context, roomID, playerID int64, username string, initialScore int64) (*model.PlayerStats, error) {
	const query = `
		INSERT INTO players (room_id, player_id, username, score, last_active, created_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (room_id, player_id)
		DO UPDATE SET username = EXCLUDED.username, last_active = NOW()
		RETURNING room_id, player_id, username, score, wins, losses, total_bets, last_active, created_at
	`

	var p model.PlayerStats
	err := s.pool.QueryRow(ctx, query, roomID, playerID, username, initialScore).Scan(
		&p.RoomID,
		&p.PlayerID,
		&p.Username,
		&p.Score,
		&p.Wins,
		&p.Losses,
		&p.TotalBets,
		&p.LastActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure player: %w", err)
	}

	return &p, nil
}

// GetScore returns the player's current score.
func (s *Store) GetScore(ctx context.Context, roomID, playerID int64) (int64, error) {
	const query = `SELECT score FROM players WHERE room_id = $1 AND player_id = $2`

	var score int64
	err := s.pool.QueryRow(ctx, query, roomID, playerID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to get score: %w", err)
	}

	return score, nil
}

// AdjustScore applies a score delta and updates the win/loss/bet counters.
func (s *Store) AdjustScore(ctx context.Context, roomID, playerID int64, delta int64, isWin bool, betCount int) error {
	var wins, losses int
	if betCount > 0 {
		if isWin {
			wins = 1
		} else {
			losses = 1
		}
	}

	const query = `
		UPDATE players
		SET score = score + $3, wins = wins + $4, losses = losses + $5,
		    total_bets = total_bets + $6, last_active = NOW()
		WHERE room_id = $1 AND player_id = $2
	`

	result, err := s.pool.Exec(ctx, query, roomID, playerID, delta, wins, losses, betCount)
	if err != nil {
		return fmt.Errorf("failed to adjust score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrPlayerNotFound
	}

	return nil
}

// TopPlayers returns the room's players ordered by score descending.
func (s *Store) TopPlayers(ctx context.Context, roomID int64, limit int) ([]*model.PlayerStats, error) {
	const query = `
		SELECT room_id, player_id, username, score, wins, losses, total_bets, last_active, created_at
		FROM players
		WHERE room_id = $1
		ORDER BY score DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	defer rows.Close()

	var players []*model.PlayerStats
	for rows.Next() {
		var p model.PlayerStats
		err := rows.Scan(
			&p.RoomID,
			&p.PlayerID,
			&p.Username,
			&p.Score,
			&p.Wins,
			&p.Losses,
			&p.TotalBets,
			&p.LastActive,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// GetRoom returns the room's counters, creating the room lazily.
func (s *Store) GetRoom(ctx context.Context, roomID int64) (*model.Room, error) {
	const query = `
		INSERT INTO rooms (chat_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (chat_id) DO UPDATE SET updated_at = rooms.updated_at
		RETURNING chat_id, match_counter, consecutive_idle_matches, manual_stop_cooldown_until, created_at, updated_at
	`

	var room model.Room
	var cooldown *time.Time
	err := s.pool.QueryRow(ctx, query, roomID).Scan(
		&room.ChatID,
		&room.MatchCounter,
		&room.ConsecutiveIdleMatches,
		&cooldown,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if cooldown != nil {
		room.ManualStopCooldownUntil = *cooldown
	}

	return &room, nil
}

// SaveRoom persists the room's idle counter and cooldown. The match
// counter is owned by IncrementMatchCounter and not written here.
func (s *Store) SaveRoom(ctx context.Context, room *model.Room) error {
	const query = `
		UPDATE rooms
		SET consecutive_idle_matches = $2, manual_stop_cooldown_until = $3, updated_at = NOW()
		WHERE chat_id = $1
	`

	var cooldown *time.Time
	if !room.ManualStopCooldownUntil.IsZero() {
		cooldown = &room.ManualStopCooldownUntil
	}

	_, err := s.pool.Exec(ctx, query, room.ChatID, room.ConsecutiveIdleMatches, cooldown)
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

// IncrementMatchCounter bumps the room's monotonic match counter.
func (s *Store) IncrementMatchCounter(ctx context.Context, roomID int64) (int64, error) {
	const query = `
		INSERT INTO rooms (chat_id, match_counter, created_at, updated_at)
		VALUES ($1, 1, NOW(), NOW())
		ON CONFLICT (chat_id)
		DO UPDATE SET match_counter = rooms.match_counter + 1, updated_at = NOW()
		RETURNING match_counter
	`

	var counter int64
	err := s.pool.QueryRow(ctx, query, roomID).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment match counter: %w", err)
	}

	return counter, nil
}

// AppendMatchHistory appends a settled or voided match record.
func (s *Store) AppendMatchHistory(ctx context.Context, roomID int64, rec *model.MatchRecord) error {
	const query = `
		INSERT INTO match_history
			(room_id, match_id, die_one, die_two, total, winning_category, voided, participants, total_wagered, total_paid_out, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		roomID, rec.MatchID, rec.Dice[0], rec.Dice[1], rec.Total,
		string(rec.WinningCategory), rec.Voided, rec.Participants,
		rec.TotalWagered, rec.TotalPaidOut, rec.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append match history: %w", err)
	}

	return nil
}

// GetRecentMatches returns the newest match records, newest first.
func (s *Store) GetRecentMatches(ctx context.Context, roomID int64, limit int) ([]*model.MatchRecord, error) {
	const query = `
		SELECT match_id, die_one, die_two, total, winning_category, voided, participants, total_wagered, total_paid_out, settled_at
		FROM match_history
		WHERE room_id = $1
		ORDER BY settled_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}
	defer rows.Close()

	var records []*model.MatchRecord
	for rows.Next() {
		var rec model.MatchRecord
		var category string
		err := rows.Scan(
			&rec.MatchID,
			&rec.Dice[0],
			&rec.Dice[1],
			&rec.Total,
			&category,
			&rec.Voided,
			&rec.Participants,
			&rec.TotalWagered,
			&rec.TotalPaidOut,
			&rec.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		rec.WinningCategory = model.Category(category)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match records: %w", err)
	}

	return records, nil
}

// SaveActiveMatch upserts the live match snapshot for crash recovery.
func (s *Store) SaveActiveMatch(ctx context.Context, snap *model.MatchSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal match snapshot: %w", err)
	}

	const query = `
		INSERT INTO active_matches (room_id, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (room_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, snap.RoomID, payload); err != nil {
		return fmt.Errorf("failed to save match snapshot: %w", err)
	}

	return nil
}

// LoadActiveMatches returns every persisted live match, keyed by room.
func (s *Store) LoadActiveMatches(ctx context.Context) (map[int64]*model.MatchSnapshot, error) {
	const query = `SELECT room_id, snapshot FROM active_matches`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load active matches: %w", err)
	}
	defer rows.Close()

	snaps := make(map[int64]*model.MatchSnapshot)
	for rows.Next() {
		var roomID int64
		var payload []byte
		if err := rows.Scan(&roomID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan match snapshot: %w", err)
		}

		var snap model.MatchSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match snapshot for room %d: %w", roomID, err)
		}
		snaps[roomID] = &snap
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match snapshots: %w", err)
	}

	return snaps, nil
}

// ClearActiveMatch removes the room's live match snapshot.
func (s *Store) ClearActiveMatch(ctx context.Context, roomID int64) error {
	const query = `DELETE FROM active_matches WHERE room_id = $1`

	if _, err := s.pool.Exec(ctx, query, roomID); err != nil {
		return fmt.Errorf("failed to clear match snapshot: %w", err)
	}

	return nil
}
