package match

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

func TestLedgerPlace(t *testing.T) {
	now := time.Now()

	t.Run("records a first bet", func(t *testing.T) {
		l := NewLedger(payout.Default())

		bet, err := l.Place(1, "alice", model.CategoryBig, 100, now)
		if err != nil {
			t.Fatalf("Place error: %v", err)
		}
		if bet.Amount != 100 || bet.Category != model.CategoryBig {
			t.Errorf("bet = %+v, want amount 100 on big", bet)
		}
		if l.Players() != 1 || l.TotalWagered() != 100 {
			t.Errorf("Players=%d TotalWagered=%d, want 1/100", l.Players(), l.TotalWagered())
		}
	})

	t.Run("same category accumulates", func(t *testing.T) {
		l := NewLedger(payout.Default())

		_, err := l.Place(1, "alice", model.CategoryLucky, 100, now)
		if err != nil {
			t.Fatalf("first Place error: %v", err)
		}
		bet, err := l.Place(1, "alice", model.CategoryLucky, 50, now)
		if err != nil {
			t.Fatalf("second Place error: %v", err)
		}
		if bet.Amount != 150 {
			t.Errorf("accumulated amount = %d, want 150", bet.Amount)
		}
		if l.Players() != 1 {
			t.Errorf("Players = %d, want 1 after accumulation", l.Players())
		}
	})

	t.Run("different category rejected", func(t *testing.T) {
		l := NewLedger(payout.Default())

		_, err := l.Place(1, "alice", model.CategoryBig, 100, now)
		if err != nil {
			t.Fatalf("first Place error: %v", err)
		}
		_, err = l.Place(1, "alice", model.CategorySmall, 50, now)
		if !errors.Is(err, ErrCategoryConflict) {
			t.Errorf("Place on second category = %v, want ErrCategoryConflict", err)
		}
		if got := l.BetFor(1).Amount; got != 100 {
			t.Errorf("existing bet amount = %d, want unchanged 100", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		l := NewLedger(payout.Default())

		if _, err := l.Place(1, "alice", model.CategoryBig, 0, now); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("zero amount = %v, want ErrInvalidAmount", err)
		}
		if _, err := l.Place(1, "alice", model.CategoryBig, -5, now); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("negative amount = %v, want ErrInvalidAmount", err)
		}
		if _, err := l.Place(1, "alice", model.Category("triple"), 10, now); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("unknown category = %v, want ErrInvalidCategory", err)
		}
	})
}

func TestLedgerBetsOrder(t *testing.T) {
	l := NewLedger(payout.Default())
	now := time.Now()

	ids := []int64{30, 10, 20}
	for _, id := range ids {
		if _, err := l.Place(id, "", model.CategoryBig, 10, now); err != nil {
			t.Fatalf("Place(%d) error: %v", id, err)
		}
	}

	bets := l.Bets()
	for i, id := range ids {
		if bets[i].PlayerID != id {
			t.Errorf("bets[%d].PlayerID = %d, want placement order %d", i, bets[i].PlayerID, id)
		}
	}
}

func TestLedgerSettle(t *testing.T) {
	l := NewLedger(payout.Default())
	now := time.Now()

	mustPlace := func(id int64, cat model.Category, amount int64) {
		t.Helper()
		if _, err := l.Place(id, "", cat, amount, now); err != nil {
			t.Fatalf("Place(%d, %s, %d) error: %v", id, cat, amount, err)
		}
	}
	mustPlace(1, model.CategoryBig, 100)
	mustPlace(2, model.CategorySmall, 200)
	mustPlace(3, model.CategoryLucky, 50)

	entries, err := l.settle(model.CategoryLucky)
	if err != nil {
		t.Fatalf("settle error: %v", err)
	}

	byID := make(map[int64]SettlementEntry)
	for _, e := range entries {
		byID[e.PlayerID] = e
	}

	if e := byID[3]; !e.Won || e.Payout != 250 {
		t.Errorf("lucky winner entry = %+v, want won with payout 250", e)
	}
	if e := byID[1]; e.Won || e.Payout != 0 {
		t.Errorf("big loser entry = %+v, want lost with payout 0", e)
	}
	if e := byID[2]; e.Won || e.Payout != 0 {
		t.Errorf("small loser entry = %+v, want lost with payout 0", e)
	}
}

// TestLedgerConservationProperty tests that for any sequence of bets,
// the paid-out total never exceeds wagered total times the largest
// multiplier, and totals per category sum to the overall total.
func TestLedgerConservationProperty(t *testing.T) {
	table := payout.Default()
	max := table.MaxMultiplier()

	rapid.Check(t, func(t *rapid.T) {
		l := NewLedger(table)
		now := time.Now()

		numBets := rapid.IntRange(0, 30).Draw(t, "numBets")
		for i := 0; i < numBets; i++ {
			id := rapid.Int64Range(1, 8).Draw(t, "playerID")
			cat := rapid.SampledFrom(model.Categories()).Draw(t, "category")
			amount := rapid.Int64Range(1, 10_000).Draw(t, "amount")

			_, err := l.Place(id, "", cat, amount, now)
			if err != nil && !errors.Is(err, ErrCategoryConflict) {
				t.Fatalf("Place error: %v", err)
			}
		}

		var byCat int64
		for _, total := range l.TotalsByCategory() {
			byCat += total
		}
		if byCat != l.TotalWagered() {
			t.Fatalf("category totals %d != total wagered %d", byCat, l.TotalWagered())
		}

		winning := rapid.SampledFrom(model.Categories()).Draw(t, "winning")
		entries, err := l.settle(winning)
		if err != nil {
			t.Fatalf("settle error: %v", err)
		}

		var paidOut int64
		for _, e := range entries {
			if e.Won != (e.Category == winning) {
				t.Fatalf("entry %+v: Won flag disagrees with winning category %s", e, winning)
			}
			paidOut += e.Payout
		}
		if paidOut > max.Apply(l.TotalWagered()) {
			t.Fatalf("paid out %d exceeds bound %d", paidOut, max.Apply(l.TotalWagered()))
		}
	})
}
