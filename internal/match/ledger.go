package match

import (
	"time"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

// Ledger records the wagers of one match. A player holds at most one
// bet; repeat wagers on the same category accumulate into it, a wager
// on a different category is rejected. The ledger is not safe for
// concurrent use - the scheduler serializes access per room.
type Ledger struct {
	table *payout.Table
	bets  map[int64]*model.Bet
	order []int64 // placement order, for deterministic refunds and reports
}

// NewLedger creates an empty ledger validating categories against table.
func NewLedger(table *payout.Table) *Ledger {
	return &Ledger{
		table: table,
		bets:  make(map[int64]*model.Bet),
	}
}

// Place records a wager. The caller is responsible for debiting the
// player's score before calling; Place itself never touches balances.
func (l *Ledger) Place(playerID int64, username string, cat model.Category, amount int64, now time.Time) (*model.Bet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !l.table.Known(cat) {
		return nil, ErrInvalidCategory
	}

	if existing, ok := l.bets[playerID]; ok {
		if existing.Category != cat {
			return nil, ErrCategoryConflict
		}
		existing.Amount += amount
		existing.Username = username
		existing.PlacedAt = now
		return existing, nil
	}

	bet := &model.Bet{
		PlayerID: playerID,
		Username: username,
		Category: cat,
		Amount:   amount,
		PlacedAt: now,
	}
	l.bets[playerID] = bet
	l.order = append(l.order, playerID)
	return bet, nil
}

// Bets returns all recorded bets in placement order.
func (l *Ledger) Bets() []*model.Bet {
	out := make([]*model.Bet, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.bets[id])
	}
	return out
}

// BetFor returns the bet held by a player, or nil.
func (l *Ledger) BetFor(playerID int64) *model.Bet {
	return l.bets[playerID]
}

// Empty reports whether no bets were placed.
func (l *Ledger) Empty() bool {
	return len(l.bets) == 0
}

// Players returns the number of distinct bettors.
func (l *Ledger) Players() int {
	return len(l.bets)
}

// TotalWagered returns the sum of all stakes.
func (l *Ledger) TotalWagered() int64 {
	var total int64
	for _, b := range l.bets {
		total += b.Amount
	}
	return total
}

// TotalsByCategory returns the wagered total per category.
func (l *Ledger) TotalsByCategory() map[model.Category]int64 {
	totals := make(map[model.Category]int64)
	for _, b := range l.bets {
		totals[b.Category] += b.Amount
	}
	return totals
}

// SettlementEntry is one player's outcome from a settled match.
type SettlementEntry struct {
	PlayerID int64
	Username string
	Category model.Category
	Wagered  int64
	Payout   int64 // credit for winners, 0 for losers (stake already debited)
	Won      bool
}

// settle computes the settlement deltas for the winning category.
// Losers are credited nothing - their stake was debited at placement.
func (l *Ledger) settle(winning model.Category) ([]SettlementEntry, error) {
	entries := make([]SettlementEntry, 0, len(l.order))
	for _, id := range l.order {
		b := l.bets[id]
		e := SettlementEntry{
			PlayerID: b.PlayerID,
			Username: b.Username,
			Category: b.Category,
			Wagered:  b.Amount,
		}
		if b.Category == winning {
			p, err := l.table.Payout(b.Amount, winning)
			if err != nil {
				return nil, err
			}
			e.Payout = p
			e.Won = true
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// snapshotBets copies the bets for persistence.
func (l *Ledger) snapshotBets() []model.Bet {
	out := make([]model.Bet, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.bets[id])
	}
	return out
}
