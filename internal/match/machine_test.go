package match

import (
	"errors"
	"testing"
	"time"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

func fixedRoller(d1, d2 int) DiceRoller {
	return func() (int, int) { return d1, d2 }
}

func TestMachineLifecycle(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	m := newMachine(7, 1, table, now)
	if m.State() != model.MatchWaiting {
		t.Fatalf("new machine state = %s, want waiting", m.State())
	}

	if _, err := m.placeBet(1, "alice", model.CategoryLucky, 100, now); err != nil {
		t.Fatalf("placeBet in waiting error: %v", err)
	}

	if err := m.close(now); err != nil {
		t.Fatalf("close error: %v", err)
	}
	if m.State() != model.MatchClosed {
		t.Fatalf("state after close = %s, want closed", m.State())
	}

	// No bets once closed
	if _, err := m.placeBet(2, "bob", model.CategoryBig, 50, now); !errors.Is(err, ErrMatchNotAcceptingBets) {
		t.Errorf("placeBet after close = %v, want ErrMatchNotAcceptingBets", err)
	}
	// Close is not re-enterable
	if err := m.close(now); err == nil {
		t.Error("second close succeeded, want error")
	}

	m.roll(fixedRoller(3, 4))
	if m.Dice() != [2]int{3, 4} {
		t.Fatalf("dice = %v, want [3 4]", m.Dice())
	}

	s, err := m.settle(table, now)
	if err != nil {
		t.Fatalf("settle error: %v", err)
	}
	if m.State() != model.MatchOver {
		t.Fatalf("state after settle = %s, want over", m.State())
	}
	if s.WinningCategory != model.CategoryLucky || s.Total != 7 {
		t.Errorf("settlement = %+v, want lucky with total 7", s)
	}
	if s.TotalPaidOut != 500 {
		t.Errorf("TotalPaidOut = %d, want 500", s.TotalPaidOut)
	}
}

func TestMachineSettleOnce(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	m := newMachine(7, 1, table, now)
	if err := m.close(now); err != nil {
		t.Fatalf("close error: %v", err)
	}
	m.roll(fixedRoller(2, 2))

	if _, err := m.settle(table, now); err != nil {
		t.Fatalf("first settle error: %v", err)
	}
	if _, err := m.settle(table, now); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("second settle = %v, want ErrAlreadySettled", err)
	}
	if _, err := m.void(); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("void after settle = %v, want ErrAlreadySettled", err)
	}
}

func TestMachineSettleRequiresDice(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	m := newMachine(7, 1, table, now)

	// Settle straight from waiting is illegal
	if _, err := m.settle(table, now); err == nil {
		t.Error("settle in waiting succeeded, want error")
	}

	if err := m.close(now); err != nil {
		t.Fatalf("close error: %v", err)
	}
	// Closed but no dice drawn yet
	if _, err := m.settle(table, now); err == nil {
		t.Error("settle without dice succeeded, want error")
	}
}

func TestMachineRollIsIdempotent(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	m := newMachine(7, 1, table, now)
	if err := m.close(now); err != nil {
		t.Fatalf("close error: %v", err)
	}

	m.roll(fixedRoller(6, 6))
	m.roll(fixedRoller(1, 1)) // second roll must not overwrite
	if m.Dice() != [2]int{6, 6} {
		t.Errorf("dice = %v, want first draw [6 6]", m.Dice())
	}
}

func TestMachineVoidReturnsBets(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	m := newMachine(7, 1, table, now)
	if _, err := m.placeBet(1, "alice", model.CategoryBig, 100, now); err != nil {
		t.Fatalf("placeBet error: %v", err)
	}
	if _, err := m.placeBet(2, "bob", model.CategorySmall, 200, now); err != nil {
		t.Fatalf("placeBet error: %v", err)
	}

	bets, err := m.void()
	if err != nil {
		t.Fatalf("void error: %v", err)
	}
	if len(bets) != 2 {
		t.Fatalf("void returned %d bets, want 2", len(bets))
	}
	if m.State() != model.MatchOver {
		t.Errorf("state after void = %s, want over", m.State())
	}
	if _, err := m.void(); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("second void = %v, want ErrAlreadySettled", err)
	}
}

func TestMachineFromSnapshot(t *testing.T) {
	table := payout.Default()
	now := time.Now()

	snap := &model.MatchSnapshot{
		RoomID:    7,
		MatchID:   3,
		State:     model.MatchClosed,
		CreatedAt: now.Add(-time.Minute),
		ClosedAt:  now,
		Dice:      [2]int{5, 4},
		Bets: []model.Bet{
			{PlayerID: 1, Username: "alice", Category: model.CategoryBig, Amount: 100, PlacedAt: now},
			{PlayerID: 2, Username: "bob", Category: model.CategorySmall, Amount: 40, PlacedAt: now},
		},
	}

	m := machineFromSnapshot(snap, table)
	if m.ID() != 3 || m.State() != model.MatchClosed {
		t.Fatalf("restored machine id=%d state=%s, want 3/closed", m.ID(), m.State())
	}
	if m.Ledger().TotalWagered() != 140 {
		t.Errorf("restored TotalWagered = %d, want 140", m.Ledger().TotalWagered())
	}

	// Restored dice settle deterministically without another roll
	m.roll(fixedRoller(1, 1))
	s, err := m.settle(table, now)
	if err != nil {
		t.Fatalf("settle error: %v", err)
	}
	if s.Dice != [2]int{5, 4} || s.WinningCategory != model.CategoryBig {
		t.Errorf("settlement = %+v, want persisted dice [5 4] winning big", s)
	}
	if s.TotalPaidOut != 200 {
		t.Errorf("TotalPaidOut = %d, want 200", s.TotalPaidOut)
	}
}
