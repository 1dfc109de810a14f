// Package match implements the match lifecycle: the bet ledger, the
// per-match state machine, and the room scheduler that drives matches
// through timer-based transitions.
package match

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
	"dice-bet-bot/internal/pkg/lock"
	"dice-bet-bot/internal/pkg/metrics"
	"dice-bet-bot/internal/storage"
)

// Recovery policies for matches found waiting after a restart.
const (
	RecoveryResume = "resume"
	RecoveryClose  = "close"
)

// Config holds the scheduler's lifecycle parameters.
type Config struct {
	BettingWindow      time.Duration
	RollDelay          time.Duration
	IdleMatchLimit     int
	ManualStopCooldown time.Duration
	RecoveryPolicy     string
	InitialScore       int64
}

// Notifier receives timer-driven lifecycle events the gateway cannot
// observe through return values. Calls arrive while the room's lock is
// held, so implementations must not call back into the scheduler for
// the same room synchronously.
type Notifier interface {
	BettingClosed(roomID, matchID int64)
	MatchSettled(roomID int64, s *Settlement)
	NewMatchStarted(roomID, matchID int64)
	AutoStartSuspended(roomID int64, idleMatches int)
}

// roomState is one room's live state. All fields are guarded by the
// scheduler's keyed lock on the room ID.
type roomState struct {
	room      *model.Room
	machine   *Machine
	betTimer  *time.Timer
	rollTimer *time.Timer
	suspended bool
}

// Scheduler owns one match state machine per room and enforces the
// idle-shutdown and manual-stop-cooldown policies across matches.
// Rooms progress independently; within a room every transition and bet
// runs under the room's keyed lock, making the machine single-writer.
type Scheduler struct {
	cfg      Config
	store    storage.Adapter
	table    *payout.Table
	locks    *lock.KeyedLock
	roller   DiceRoller
	notifier Notifier
	now      func() time.Time

	mu    sync.Mutex
	rooms map[int64]*roomState
}

// NewScheduler creates a Scheduler. The payout table must already be
// validated.
func NewScheduler(cfg Config, store storage.Adapter, table *payout.Table) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		store: store,
		table: table,
		locks: lock.New(),
		roller: func() (int, int) {
			return rand.Intn(6) + 1, rand.Intn(6) + 1
		},
		now:   time.Now,
		rooms: make(map[int64]*roomState),
	}
}

// SetNotifier attaches the gateway notifier. Must be called before any
// match is started or recovered.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

// Table returns the scheduler's payout table.
func (s *Scheduler) Table() *payout.Table {
	return s.table
}

// roomState returns the room's live state, loading its persistent
// counters lazily. Caller must hold the room's keyed lock.
func (s *Scheduler) roomState(ctx context.Context, roomID int64) (*roomState, error) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		rs = &roomState{}
		s.rooms[roomID] = rs
	}
	s.mu.Unlock()

	if rs.room == nil {
		room, err := s.store.GetRoom(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to load room %d: %w", roomID, err)
		}
		rs.room = room
		rs.suspended = room.ConsecutiveIdleMatches >= s.cfg.IdleMatchLimit
	}
	return rs, nil
}

// StartMatch starts a new match in the room. Fails with
// ErrAlreadyActive if a match is live, or with a CooldownError while a
// manual-stop cooldown is in effect. A manual start resets the idle
// counter and lifts an idle suspension.
func (s *Scheduler) StartMatch(ctx context.Context, roomID int64) (*Status, error) {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if rs.machine != nil {
		return nil, ErrAlreadyActive
	}

	now := s.now()
	if until := rs.room.ManualStopCooldownUntil; !until.IsZero() {
		if now.Before(until) {
			return nil, &CooldownError{Remaining: until.Sub(now)}
		}
		rs.room.ManualStopCooldownUntil = time.Time{}
	}

	rs.room.ConsecutiveIdleMatches = 0
	rs.suspended = false
	if err := s.store.SaveRoom(ctx, rs.room); err != nil {
		return nil, fmt.Errorf("failed to save room %d: %w", roomID, err)
	}

	if err := s.createMatchLocked(ctx, rs, roomID); err != nil {
		return nil, err
	}
	return s.statusLocked(rs, roomID), nil
}

// createMatchLocked creates the next match and arms its betting-window
// timer. Caller holds the room lock and guarantees no live match.
func (s *Scheduler) createMatchLocked(ctx context.Context, rs *roomState, roomID int64) error {
	id, err := s.store.IncrementMatchCounter(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to increment match counter for room %d: %w", roomID, err)
	}

	m := newMachine(roomID, id, s.table, s.now())
	rs.machine = m

	if err := s.store.SaveActiveMatch(ctx, m.snapshot()); err != nil {
		rs.machine = nil
		return fmt.Errorf("failed to persist match %d in room %d: %w", id, roomID, err)
	}

	rs.betTimer = time.AfterFunc(s.cfg.BettingWindow, func() {
		s.onBettingWindowExpired(roomID, id)
	})

	log.Info().
		Int64("room_id", roomID).
		Int64("match_id", id).
		Dur("betting_window", s.cfg.BettingWindow).
		Msg("Match created, accepting bets")
	return nil
}

// onBettingWindowExpired fires when a match's betting window elapses.
// A stale timer that lost a race to a manual stop or force close finds
// the match gone or advanced and does nothing.
func (s *Scheduler) onBettingWindowExpired(roomID, matchID int64) {
	ctx := context.Background()

	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs := s.peekRoom(roomID)
	if rs == nil || rs.machine == nil || rs.machine.ID() != matchID || rs.machine.State() != model.MatchWaiting {
		return
	}
	s.closeLocked(ctx, rs, roomID)
}

// peekRoom returns the room state without creating or loading it.
func (s *Scheduler) peekRoom(roomID int64) *roomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID]
}

// closeLocked moves the live match WAITING -> CLOSED and arms the roll
// delay timer. Caller holds the room lock.
func (s *Scheduler) closeLocked(ctx context.Context, rs *roomState, roomID int64) {
	m := rs.machine
	if err := m.close(s.now()); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", m.ID()).Msg("Failed to close betting")
		return
	}
	s.stopTimersLocked(rs)

	if err := s.store.SaveActiveMatch(ctx, m.snapshot()); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", m.ID()).Msg("Failed to persist closed match")
	}

	log.Info().
		Int64("room_id", roomID).
		Int64("match_id", m.ID()).
		Int("bets", m.Ledger().Players()).
		Msg("Betting closed")

	if s.notifier != nil {
		s.notifier.BettingClosed(roomID, m.ID())
	}

	matchID := m.ID()
	rs.rollTimer = time.AfterFunc(s.cfg.RollDelay, func() {
		s.onRollDelayElapsed(roomID, matchID)
	})
}

// onRollDelayElapsed fires after the cosmetic roll delay.
func (s *Scheduler) onRollDelayElapsed(roomID, matchID int64) {
	ctx := context.Background()

	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs := s.peekRoom(roomID)
	if rs == nil || rs.machine == nil || rs.machine.ID() != matchID || rs.machine.State() != model.MatchClosed {
		return
	}
	s.resolveLocked(ctx, rs, roomID)
}

// resolveLocked rolls the dice (unless recovery restored them), settles
// the match, persists scores, stats and history, applies the idle
// policy and auto-creates the next match. The scheduler drops its
// machine pointer in the same critical section as the OVER transition,
// so no second settlement path can ever observe this match.
func (s *Scheduler) resolveLocked(ctx context.Context, rs *roomState, roomID int64) {
	m := rs.machine
	m.roll(s.roller)

	// Persist drawn dice before crediting anyone: a crash from here on
	// recovers into a deterministic settlement of the same dice.
	if err := s.store.SaveActiveMatch(ctx, m.snapshot()); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", m.ID()).Msg("Failed to persist dice result")
	}

	settlement, err := m.settle(s.table, s.now())
	if err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", m.ID()).Msg("Settlement failed")
		return
	}
	rs.machine = nil
	s.stopTimersLocked(rs)

	for _, e := range settlement.Entries {
		if err := s.store.AdjustScore(ctx, roomID, e.PlayerID, e.Payout, e.Won, 1); err != nil {
			log.Error().Err(err).
				Int64("room_id", roomID).
				Int64("player_id", e.PlayerID).
				Int64("payout", e.Payout).
				Msg("Failed to credit settlement")
		}
	}

	rec := &model.MatchRecord{
		MatchID:         settlement.MatchID,
		Dice:            settlement.Dice,
		Total:           settlement.Total,
		WinningCategory: settlement.WinningCategory,
		Participants:    len(settlement.Entries),
		TotalWagered:    settlement.TotalWagered,
		TotalPaidOut:    settlement.TotalPaidOut,
		SettledAt:       settlement.SettledAt,
	}
	if err := s.store.AppendMatchHistory(ctx, roomID, rec); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", settlement.MatchID).Msg("Failed to append match history")
	}

	if len(settlement.Entries) == 0 {
		rs.room.ConsecutiveIdleMatches++
	} else {
		rs.room.ConsecutiveIdleMatches = 0
	}
	if err := s.store.SaveRoom(ctx, rs.room); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to save room counters")
	}
	if err := s.store.ClearActiveMatch(ctx, roomID); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to clear match snapshot")
	}

	metrics.MatchesSettled.Inc()
	metrics.PointsPaidOut.Add(float64(settlement.TotalPaidOut))

	log.Info().
		Int64("room_id", roomID).
		Int64("match_id", settlement.MatchID).
		Ints("dice", settlement.Dice[:]).
		Str("winning_category", string(settlement.WinningCategory)).
		Int("participants", len(settlement.Entries)).
		Int64("paid_out", settlement.TotalPaidOut).
		Msg("Match settled")

	if s.notifier != nil {
		s.notifier.MatchSettled(roomID, settlement)
	}

	if rs.room.ConsecutiveIdleMatches >= s.cfg.IdleMatchLimit {
		rs.suspended = true
		log.Info().
			Int64("room_id", roomID).
			Int("idle_matches", rs.room.ConsecutiveIdleMatches).
			Msg("Idle limit reached, suspending auto-start")
		if s.notifier != nil {
			s.notifier.AutoStartSuspended(roomID, rs.room.ConsecutiveIdleMatches)
		}
		return
	}

	if err := s.createMatchLocked(ctx, rs, roomID); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to auto-create next match")
		return
	}
	if s.notifier != nil {
		s.notifier.NewMatchStarted(roomID, rs.machine.ID())
	}
}

// stopTimersLocked cancels any pending timers for the room. Stopping an
// already-fired timer is harmless: its callback re-checks the match
// identity and state under the room lock before acting.
func (s *Scheduler) stopTimersLocked(rs *roomState) {
	if rs.betTimer != nil {
		rs.betTimer.Stop()
		rs.betTimer = nil
	}
	if rs.rollTimer != nil {
		rs.rollTimer.Stop()
		rs.rollTimer = nil
	}
}

// PlaceBet validates and records a wager, debiting the player's score
// first. Debit and record form one logical unit: if the ledger rejects
// the bet after the debit, the debit is reversed.
func (s *Scheduler) PlaceBet(ctx context.Context, roomID, playerID int64, username string, cat model.Category, amount int64) (*model.Bet, int64, error) {
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}
	if !s.table.Known(cat) {
		return nil, 0, ErrInvalidCategory
	}

	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return nil, 0, err
	}
	if rs.machine == nil {
		return nil, 0, ErrNoActiveMatch
	}
	if rs.machine.State() != model.MatchWaiting {
		return nil, 0, ErrMatchNotAcceptingBets
	}

	if _, err := s.store.EnsurePlayer(ctx, roomID, playerID, username, s.cfg.InitialScore); err != nil {
		return nil, 0, fmt.Errorf("failed to ensure player %d: %w", playerID, err)
	}

	score, err := s.store.GetScore(ctx, roomID, playerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read score for player %d: %w", playerID, err)
	}
	if score < amount {
		return nil, 0, ErrInsufficientFunds
	}

	if err := s.store.AdjustScore(ctx, roomID, playerID, -amount, false, 0); err != nil {
		return nil, 0, fmt.Errorf("failed to debit player %d: %w", playerID, err)
	}

	bet, err := rs.machine.placeBet(playerID, username, cat, amount, s.now())
	if err != nil {
		if rbErr := s.store.AdjustScore(ctx, roomID, playerID, amount, false, 0); rbErr != nil {
			log.Error().Err(rbErr).
				Int64("room_id", roomID).
				Int64("player_id", playerID).
				Int64("amount", amount).
				Msg("Failed to roll back debit after rejected bet")
		}
		return nil, 0, err
	}

	if err := s.store.SaveActiveMatch(ctx, rs.machine.snapshot()); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", rs.machine.ID()).Msg("Failed to persist bet snapshot")
	}

	metrics.BetsPlaced.Inc()
	metrics.PointsWagered.Add(float64(amount))

	log.Info().
		Int64("room_id", roomID).
		Int64("match_id", rs.machine.ID()).
		Int64("player_id", playerID).
		Str("category", string(cat)).
		Int64("amount", amount).
		Msg("Bet placed")

	return bet, score - amount, nil
}

// Refund is one returned stake from a stopped match.
type Refund struct {
	PlayerID int64
	Username string
	Amount   int64
}

// RefundSummary reports the outcome of a manual stop.
type RefundSummary struct {
	RoomID          int64
	MatchID         int64
	Refunds         []Refund
	Total           int64
	CooldownSeconds int
}

// StopMatch terminates the current match without settlement: pending
// timers are cancelled first, every stake is refunded in full, and the
// room enters a manual-stop cooldown.
func (s *Scheduler) StopMatch(ctx context.Context, roomID int64) (*RefundSummary, error) {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rs.machine == nil {
		return nil, ErrNoActiveMatch
	}

	s.stopTimersLocked(rs)

	m := rs.machine
	bets, err := m.void()
	if err != nil {
		return nil, ErrNoActiveMatch
	}
	rs.machine = nil

	summary := &RefundSummary{
		RoomID:  roomID,
		MatchID: m.ID(),
	}
	for _, b := range bets {
		if err := s.store.AdjustScore(ctx, roomID, b.PlayerID, b.Amount, false, 0); err != nil {
			log.Error().Err(err).
				Int64("room_id", roomID).
				Int64("player_id", b.PlayerID).
				Int64("amount", b.Amount).
				Msg("Failed to refund bet")
			continue
		}
		summary.Refunds = append(summary.Refunds, Refund{PlayerID: b.PlayerID, Username: b.Username, Amount: b.Amount})
		summary.Total += b.Amount
	}

	now := s.now()
	rs.room.ManualStopCooldownUntil = now.Add(s.cfg.ManualStopCooldown)
	summary.CooldownSeconds = int(s.cfg.ManualStopCooldown / time.Second)
	if err := s.store.SaveRoom(ctx, rs.room); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to save cooldown")
	}

	rec := &model.MatchRecord{
		MatchID:      m.ID(),
		Voided:       true,
		Participants: len(bets),
		TotalWagered: summary.Total,
		SettledAt:    now,
	}
	if err := s.store.AppendMatchHistory(ctx, roomID, rec); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", m.ID()).Msg("Failed to append voided match record")
	}
	if err := s.store.ClearActiveMatch(ctx, roomID); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to clear match snapshot")
	}

	metrics.MatchesVoided.Inc()

	log.Info().
		Int64("room_id", roomID).
		Int64("match_id", m.ID()).
		Int("refunds", len(summary.Refunds)).
		Int64("total", summary.Total).
		Msg("Match stopped, bets refunded")

	return summary, nil
}

// CloseEarly force-closes the betting window, keeping the rest of the
// lifecycle (roll delay, dice, settlement) intact.
func (s *Scheduler) CloseEarly(ctx context.Context, roomID int64) error {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return err
	}
	if rs.machine == nil {
		return ErrNoActiveMatch
	}
	if rs.machine.State() != model.MatchWaiting {
		return ErrMatchNotAcceptingBets
	}
	s.closeLocked(ctx, rs, roomID)
	return nil
}

// Status is a point-in-time snapshot of a room's match.
type Status struct {
	RoomID            int64
	HasMatch          bool
	MatchID           int64
	State             model.MatchState
	TimeRemaining     time.Duration
	Players           int
	TotalWagered      int64
	ByCategory        map[model.Category]int64
	IdleMatches       int
	Suspended         bool
	CooldownRemaining time.Duration
}

// Status returns the room's current match snapshot.
func (s *Scheduler) Status(ctx context.Context, roomID int64) (*Status, error) {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.statusLocked(rs, roomID), nil
}

func (s *Scheduler) statusLocked(rs *roomState, roomID int64) *Status {
	now := s.now()
	st := &Status{
		RoomID:      roomID,
		IdleMatches: rs.room.ConsecutiveIdleMatches,
		Suspended:   rs.suspended,
	}
	if until := rs.room.ManualStopCooldownUntil; !until.IsZero() && now.Before(until) {
		st.CooldownRemaining = until.Sub(now)
	}
	if rs.machine == nil {
		return st
	}

	m := rs.machine
	st.HasMatch = true
	st.MatchID = m.ID()
	st.State = m.State()
	st.Players = m.Ledger().Players()
	st.TotalWagered = m.Ledger().TotalWagered()
	st.ByCategory = m.Ledger().TotalsByCategory()
	if m.State() == model.MatchWaiting {
		if remaining := m.CreatedAt().Add(s.cfg.BettingWindow).Sub(now); remaining > 0 {
			st.TimeRemaining = remaining
		}
	}
	return st
}

// Leaderboard returns the room's top players by score.
func (s *Scheduler) Leaderboard(ctx context.Context, roomID int64, limit int) ([]*model.PlayerStats, error) {
	return s.store.TopPlayers(ctx, roomID, limit)
}

// History returns the room's most recent match records.
func (s *Scheduler) History(ctx context.Context, roomID int64, limit int) ([]*model.MatchRecord, error) {
	return s.store.GetRecentMatches(ctx, roomID, limit)
}

// Recover replays persisted match snapshots after a restart. In-memory
// timers never survive a restart, so every pending transition is
// re-derived from storage:
//   - CLOSED with dice drawn: settle immediately from the persisted dice.
//   - CLOSED without dice: void, refund all stakes.
//   - WAITING: resume the remaining window or close now, per policy.
func (s *Scheduler) Recover(ctx context.Context) error {
	snaps, err := s.store.LoadActiveMatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active matches: %w", err)
	}

	for roomID, snap := range snaps {
		if err := s.recoverRoom(ctx, roomID, snap); err != nil {
			log.Error().Err(err).Int64("room_id", roomID).Int64("match_id", snap.MatchID).Msg("Failed to recover match")
		}
	}
	return nil
}

func (s *Scheduler) recoverRoom(ctx context.Context, roomID int64, snap *model.MatchSnapshot) error {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	rs, err := s.roomState(ctx, roomID)
	if err != nil {
		return err
	}

	m := machineFromSnapshot(snap, s.table)
	rs.machine = m

	switch snap.State {
	case model.MatchClosed:
		if snap.DiceDrawn() {
			log.Info().Int64("room_id", roomID).Int64("match_id", snap.MatchID).Msg("Recovering closed match with drawn dice, settling")
			s.resolveLocked(ctx, rs, roomID)
			return nil
		}
		log.Info().Int64("room_id", roomID).Int64("match_id", snap.MatchID).Msg("Recovering closed match without dice, voiding")
		return s.voidRecoveredLocked(ctx, rs, roomID)

	case model.MatchWaiting:
		if s.cfg.RecoveryPolicy == RecoveryClose {
			log.Info().Int64("room_id", roomID).Int64("match_id", snap.MatchID).Msg("Recovering waiting match, closing per policy")
			s.closeLocked(ctx, rs, roomID)
			return nil
		}
		remaining := snap.CreatedAt.Add(s.cfg.BettingWindow).Sub(s.now())
		if remaining <= 0 {
			log.Info().Int64("room_id", roomID).Int64("match_id", snap.MatchID).Msg("Recovering waiting match past its window, closing")
			s.closeLocked(ctx, rs, roomID)
			return nil
		}
		matchID := m.ID()
		rs.betTimer = time.AfterFunc(remaining, func() {
			s.onBettingWindowExpired(roomID, matchID)
		})
		log.Info().
			Int64("room_id", roomID).
			Int64("match_id", snap.MatchID).
			Dur("remaining", remaining).
			Msg("Recovering waiting match, betting window resumed")
		return nil

	default:
		// An OVER snapshot should never persist; drop it.
		rs.machine = nil
		return s.store.ClearActiveMatch(ctx, roomID)
	}
}

// voidRecoveredLocked refunds and records a match that crashed in
// CLOSED before any dice were drawn. No cooldown: the stop was not an
// operator action.
func (s *Scheduler) voidRecoveredLocked(ctx context.Context, rs *roomState, roomID int64) error {
	m := rs.machine
	bets, err := m.void()
	if err != nil {
		return err
	}
	rs.machine = nil

	var total int64
	for _, b := range bets {
		if err := s.store.AdjustScore(ctx, roomID, b.PlayerID, b.Amount, false, 0); err != nil {
			log.Error().Err(err).
				Int64("room_id", roomID).
				Int64("player_id", b.PlayerID).
				Msg("Failed to refund recovered bet")
			continue
		}
		total += b.Amount
	}

	rec := &model.MatchRecord{
		MatchID:      m.ID(),
		Voided:       true,
		Participants: len(bets),
		TotalWagered: total,
		SettledAt:    s.now(),
	}
	if err := s.store.AppendMatchHistory(ctx, roomID, rec); err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to record voided match")
	}

	metrics.MatchesVoided.Inc()
	return s.store.ClearActiveMatch(ctx, roomID)
}

// Shutdown cancels all pending timers. Live matches stay persisted and
// are recovered on the next start.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.locks.Lock(id)
		if rs := s.peekRoom(id); rs != nil {
			s.stopTimersLocked(rs)
		}
		s.locks.Unlock(id)
	}
	log.Info().Int("rooms", len(ids)).Msg("Scheduler timers stopped")
}
