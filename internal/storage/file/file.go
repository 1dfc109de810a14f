// Package file implements the storage adapter on a single JSON file.
// Every mutation rewrites the file through a temp-file rename, so a
// crash never leaves a half-written store behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dice-bet-bot/internal/model"
	"dice-bet-bot/internal/storage"
)

// roomData is one room's persisted state.
type roomData struct {
	Room    *model.Room                  `json:"room"`
	Players map[int64]*model.PlayerStats `json:"players"`
	History []*model.MatchRecord         `json:"history"`
	Active  *model.MatchSnapshot         `json:"active,omitempty"`
}

// fileData is the whole store.
type fileData struct {
	Rooms map[int64]*roomData `json:"rooms"`
}

// Store is the flat-file storage adapter.
type Store struct {
	mu           sync.Mutex
	path         string
	historyLimit int
	data         *fileData
}

// Open loads the store from path, creating an empty one if the file
// does not exist. historyLimit caps each room's retained match records.
func Open(path string, historyLimit int) (*Store, error) {
	s := &Store{
		path:         path,
		historyLimit: historyLimit,
		data:         &fileData{Rooms: make(map[int64]*roomData)},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("No existing data file, starting empty")
			return s, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	if err := json.Unmarshal(raw, s.data); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
	}
	if s.data.Rooms == nil {
		s.data.Rooms = make(map[int64]*roomData)
	}

	log.Info().Str("path", path).Int("rooms", len(s.data.Rooms)).Msg("Data file loaded")
	return s, nil
}

// persist writes the store atomically. Caller holds s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	return nil
}

// room returns the room's data, creating it lazily. Caller holds s.mu.
func (s *Store) room(roomID int64) *roomData {
	rd, ok := s.data.Rooms[roomID]
	if !ok {
		now := time.Now()
		rd = &roomData{
			Room: &model.Room{
				ChatID:    roomID,
				CreatedAt: now,
				UpdatedAt: now,
			},
			Players: make(map[int64]*model.PlayerStats),
		}
		s.data.Rooms[roomID] = rd
	}
	if rd.Players == nil {
		rd.Players = make(map[int64]*model.PlayerStats)
	}
	return rd
}

// EnsurePlayer creates the player's record if absent and refreshes the
// username otherwise.
func (s *Store) EnsurePlayer(ctx context.Context, roomID, playerID int64, username string, initialScore int64) (*model.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(roomID)
	p, ok := rd.Players[playerID]
	if !ok {
		now := time.Now()
		p = &model.PlayerStats{
			RoomID:     roomID,
			PlayerID:   playerID,
			Username:   username,
			Score:      initialScore,
			LastActive: now,
			CreatedAt:  now,
		}
		rd.Players[playerID] = p
	} else {
		if username != "" {
			p.Username = username
		}
		p.LastActive = time.Now()
	}

	if err := s.persist(); err != nil {
		return nil, err
	}

	cp := *p
	return &cp, nil
}

// GetScore returns the player's current score.
func (s *Store) GetScore(ctx context.Context, roomID, playerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.data.Rooms[roomID]
	if !ok {
		return 0, storage.ErrPlayerNotFound
	}
	p, ok := rd.Players[playerID]
	if !ok {
		return 0, storage.ErrPlayerNotFound
	}

	return p.Score, nil
}

// AdjustScore applies a score delta and updates the player's counters.
func (s *Store) AdjustScore(ctx context.Context, roomID, playerID int64, delta int64, isWin bool, betCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.data.Rooms[roomID]
	if !ok {
		return storage.ErrPlayerNotFound
	}
	p, ok := rd.Players[playerID]
	if !ok {
		return storage.ErrPlayerNotFound
	}

	p.Score += delta
	p.TotalBets += betCount
	if betCount > 0 {
		if isWin {
			p.Wins++
		} else {
			p.Losses++
		}
	}
	p.LastActive = time.Now()

	return s.persist()
}

// TopPlayers returns the room's players ordered by score descending.
func (s *Store) TopPlayers(ctx context.Context, roomID int64, limit int) ([]*model.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.data.Rooms[roomID]
	if !ok {
		return nil, nil
	}

	players := make([]*model.PlayerStats, 0, len(rd.Players))
	for _, p := range rd.Players {
		cp := *p
		players = append(players, &cp)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].PlayerID < players[j].PlayerID
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// GetRoom returns a copy of the room's counters, creating the room lazily.
func (s *Store) GetRoom(ctx context.Context, roomID int64) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(roomID)
	if err := s.persist(); err != nil {
		return nil, err
	}

	cp := *rd.Room
	return &cp, nil
}

// SaveRoom persists the room's counters.
func (s *Store) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(room.ChatID)
	rd.Room.ConsecutiveIdleMatches = room.ConsecutiveIdleMatches
	rd.Room.ManualStopCooldownUntil = room.ManualStopCooldownUntil
	rd.Room.UpdatedAt = time.Now()

	return s.persist()
}

// IncrementMatchCounter bumps the room's monotonic match counter.
func (s *Store) IncrementMatchCounter(ctx context.Context, roomID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(roomID)
	rd.Room.MatchCounter++
	rd.Room.UpdatedAt = time.Now()

	if err := s.persist(); err != nil {
		return 0, err
	}
	return rd.Room.MatchCounter, nil
}

// AppendMatchHistory appends a match record, keeping only the newest
// historyLimit records per room.
func (s *Store) AppendMatchHistory(ctx context.Context, roomID int64, rec *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(roomID)
	cp := *rec
	rd.History = append(rd.History, &cp)
	if s.historyLimit > 0 && len(rd.History) > s.historyLimit {
		rd.History = rd.History[len(rd.History)-s.historyLimit:]
	}

	return s.persist()
}

// GetRecentMatches returns the newest match records, newest first.
func (s *Store) GetRecentMatches(ctx context.Context, roomID int64, limit int) ([]*model.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.data.Rooms[roomID]
	if !ok {
		return nil, nil
	}

	n := len(rd.History)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*model.MatchRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *rd.History[i]
		out = append(out, &cp)
	}
	return out, nil
}

// SaveActiveMatch persists the live match snapshot.
func (s *Store) SaveActiveMatch(ctx context.Context, snap *model.MatchSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.room(snap.RoomID)
	cp := *snap
	cp.Bets = append([]model.Bet(nil), snap.Bets...)
	rd.Active = &cp

	return s.persist()
}

// LoadActiveMatches returns every persisted live match, keyed by room.
func (s *Store) LoadActiveMatches(ctx context.Context) (map[int64]*model.MatchSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := make(map[int64]*model.MatchSnapshot)
	for roomID, rd := range s.data.Rooms {
		if rd.Active == nil {
			continue
		}
		cp := *rd.Active
		cp.Bets = append([]model.Bet(nil), rd.Active.Bets...)
		snaps[roomID] = &cp
	}
	return snaps, nil
}

// ClearActiveMatch removes the room's live match snapshot.
func (s *Store) ClearActiveMatch(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.data.Rooms[roomID]
	if !ok || rd.Active == nil {
		return nil
	}
	rd.Active = nil

	return s.persist()
}
