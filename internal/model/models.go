// Package model defines the data models for the dice betting bot.
package model

import "time"

// Category is a bet category resolved from a dice pair.
type Category string

const (
	// CategoryBig wins when the dice sum is 8-12.
	CategoryBig Category = "big"
	// CategorySmall wins when the dice sum is 2-6.
	CategorySmall Category = "small"
	// CategoryLucky wins when the dice sum is exactly 7.
	CategoryLucky Category = "lucky"
)

// Categories lists all bet categories in display order.
func Categories() []Category {
	return []Category{CategoryBig, CategorySmall, CategoryLucky}
}

// ParseCategory parses a user-supplied category string.
// Returns false if the string names no known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryBig, CategorySmall, CategoryLucky:
		return Category(s), true
	}
	return "", false
}

// MatchState is the lifecycle state of a match.
type MatchState string

const (
	// MatchWaiting accepts bets until the betting window expires.
	MatchWaiting MatchState = "waiting"
	// MatchClosed accepts no bets; dice are rolled after the roll delay.
	MatchClosed MatchState = "closed"
	// MatchOver is terminal; the match is settled or voided.
	MatchOver MatchState = "over"
)

// Room holds a chat's persistent game counters.
// Rooms are created lazily on first command and never deleted.
type Room struct {
	ChatID                  int64     `db:"chat_id"`
	MatchCounter            int64     `db:"match_counter"`
	ConsecutiveIdleMatches  int       `db:"consecutive_idle_matches"`
	ManualStopCooldownUntil time.Time `db:"manual_stop_cooldown_until"` // zero when no cooldown
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

// PlayerStats holds a player's score and record within one room.
type PlayerStats struct {
	RoomID     int64     `db:"room_id"`
	PlayerID   int64     `db:"player_id"`
	Username   string    `db:"username"`
	Score      int64     `db:"score"`
	Wins       int       `db:"wins"`
	Losses     int       `db:"losses"`
	TotalBets  int       `db:"total_bets"`
	LastActive time.Time `db:"last_active"`
	CreatedAt  time.Time `db:"created_at"`
}

// Bet is a single player's wager in a match. A player holds at most
// one bet per match; repeat wagers on the same category accumulate.
type Bet struct {
	PlayerID int64     `json:"player_id"`
	Username string    `json:"username"`
	Category Category  `json:"category"`
	Amount   int64     `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

// MatchSnapshot is the persisted image of a live match, written on every
// transition and accepted bet so a restart can recover the match.
type MatchSnapshot struct {
	RoomID    int64      `json:"room_id"`
	MatchID   int64      `json:"match_id"`
	State     MatchState `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  time.Time  `json:"closed_at"`
	Dice      [2]int     `json:"dice"` // {0,0} until drawn
	Bets      []Bet      `json:"bets"`
}

// DiceDrawn reports whether the snapshot carries a drawn dice pair.
func (s *MatchSnapshot) DiceDrawn() bool {
	return s.Dice[0] != 0 && s.Dice[1] != 0
}

// MatchRecord is an entry in a room's match history.
type MatchRecord struct {
	MatchID         int64     `json:"match_id" db:"match_id"`
	Dice            [2]int    `json:"dice"`
	Total           int       `json:"total" db:"total"`
	WinningCategory Category  `json:"winning_category" db:"winning_category"`
	Voided          bool      `json:"voided" db:"voided"`
	Participants    int       `json:"participants" db:"participants"`
	TotalWagered    int64     `json:"total_wagered" db:"total_wagered"`
	TotalPaidOut    int64     `json:"total_paid_out" db:"total_paid_out"`
	SettledAt       time.Time `json:"settled_at" db:"settled_at"`
}
