package match

import (
	"time"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

// DiceRoller draws a dice pair. Injectable so tests and recovery can
// force outcomes; the default rolls two independent uniform dice.
type DiceRoller func() (int, int)

// Machine owns one match's lifecycle: WAITING -> CLOSED -> OVER, with
// no transition skipping a state and OVER never re-entered. It carries
// no locking of its own - the scheduler serializes all access through
// the room's lock.
type Machine struct {
	roomID    int64
	id        int64
	state     model.MatchState
	createdAt time.Time
	closedAt  time.Time
	dice      [2]int
	winning   model.Category
	voided    bool
	ledger    *Ledger
}

func newMachine(roomID, id int64, table *payout.Table, now time.Time) *Machine {
	return &Machine{
		roomID:    roomID,
		id:        id,
		state:     model.MatchWaiting,
		createdAt: now,
		ledger:    NewLedger(table),
	}
}

// machineFromSnapshot rebuilds a machine from its persisted image for
// crash recovery. Bets are replayed into a fresh ledger; their scores
// were already debited before the snapshot was written.
func machineFromSnapshot(snap *model.MatchSnapshot, table *payout.Table) *Machine {
	m := &Machine{
		roomID:    snap.RoomID,
		id:        snap.MatchID,
		state:     snap.State,
		createdAt: snap.CreatedAt,
		closedAt:  snap.ClosedAt,
		dice:      snap.Dice,
		ledger:    NewLedger(table),
	}
	for _, b := range snap.Bets {
		m.ledger.bets[b.PlayerID] = &model.Bet{
			PlayerID: b.PlayerID,
			Username: b.Username,
			Category: b.Category,
			Amount:   b.Amount,
			PlacedAt: b.PlacedAt,
		}
		m.ledger.order = append(m.ledger.order, b.PlayerID)
	}
	return m
}

// ID returns the room-scoped match sequence number.
func (m *Machine) ID() int64 { return m.id }

// State returns the current lifecycle state.
func (m *Machine) State() model.MatchState { return m.state }

// CreatedAt returns when the match entered WAITING.
func (m *Machine) CreatedAt() time.Time { return m.createdAt }

// Ledger returns the match's bet ledger.
func (m *Machine) Ledger() *Ledger { return m.ledger }

// Dice returns the drawn dice pair, {0,0} until drawn.
func (m *Machine) Dice() [2]int { return m.dice }

// placeBet records a wager if the match is still accepting bets.
func (m *Machine) placeBet(playerID int64, username string, cat model.Category, amount int64, now time.Time) (*model.Bet, error) {
	if m.state != model.MatchWaiting {
		return nil, ErrMatchNotAcceptingBets
	}
	return m.ledger.Place(playerID, username, cat, amount, now)
}

// close moves WAITING -> CLOSED. No new bets after this point.
func (m *Machine) close(now time.Time) error {
	if m.state != model.MatchWaiting {
		return ErrMatchNotAcceptingBets
	}
	m.state = model.MatchClosed
	m.closedAt = now
	return nil
}

// roll draws the dice. Only legal in CLOSED with no dice drawn yet;
// recovery may have restored an already-drawn pair.
func (m *Machine) roll(roller DiceRoller) {
	if m.state != model.MatchClosed || m.diceDrawn() {
		return
	}
	m.dice[0], m.dice[1] = roller()
}

func (m *Machine) diceDrawn() bool {
	return m.dice[0] != 0 && m.dice[1] != 0
}

// Settlement is the full outcome of a resolved match.
type Settlement struct {
	RoomID          int64
	MatchID         int64
	Dice            [2]int
	Total           int
	WinningCategory model.Category
	Entries         []SettlementEntry
	TotalWagered    int64
	TotalPaidOut    int64
	SettledAt       time.Time
}

// settle resolves the drawn dice against the payout table and moves
// CLOSED -> OVER. It is the only path into a settled OVER state and
// refuses to run twice: once OVER, every terminal operation errors,
// and the scheduler additionally drops its reference to the machine
// in the same critical section.
func (m *Machine) settle(table *payout.Table, now time.Time) (*Settlement, error) {
	if m.state == model.MatchOver {
		return nil, ErrAlreadySettled
	}
	if m.state != model.MatchClosed || !m.diceDrawn() {
		return nil, ErrNoActiveMatch
	}

	winning, err := table.Resolve(m.dice[0], m.dice[1])
	if err != nil {
		return nil, err
	}

	entries, err := m.ledger.settle(winning)
	if err != nil {
		return nil, err
	}

	m.state = model.MatchOver
	m.winning = winning

	s := &Settlement{
		RoomID:          m.roomID,
		MatchID:         m.id,
		Dice:            m.dice,
		Total:           m.dice[0] + m.dice[1],
		WinningCategory: winning,
		Entries:         entries,
		TotalWagered:    m.ledger.TotalWagered(),
		SettledAt:       now,
	}
	for _, e := range entries {
		s.TotalPaidOut += e.Payout
	}
	return s, nil
}

// void terminates the match without settlement (manual stop, or crash
// recovery of a CLOSED match that never drew dice). Returns the bets
// to refund. Refuses to void an already-terminal match.
func (m *Machine) void() ([]*model.Bet, error) {
	if m.state == model.MatchOver {
		return nil, ErrAlreadySettled
	}
	m.state = model.MatchOver
	m.voided = true
	return m.ledger.Bets(), nil
}

// snapshot captures the machine for persistence.
func (m *Machine) snapshot() *model.MatchSnapshot {
	return &model.MatchSnapshot{
		RoomID:    m.roomID,
		MatchID:   m.id,
		State:     m.state,
		CreatedAt: m.createdAt,
		ClosedAt:  m.closedAt,
		Dice:      m.dice,
		Bets:      m.ledger.snapshotBets(),
	}
}
