package match

import (
	"errors"
	"fmt"
	"time"
)

// Errors for match operations.
var (
	ErrAlreadyActive         = errors.New("a match is already active in this room")
	ErrNoActiveMatch         = errors.New("no active match in this room")
	ErrMatchNotAcceptingBets = errors.New("match is not accepting bets")
	ErrInsufficientFunds     = errors.New("score too low for this wager")
	ErrInvalidCategory       = errors.New("unknown bet category")
	ErrCategoryConflict      = errors.New("player already wagered on a different category")
	ErrInvalidAmount         = errors.New("bet amount must be positive")
	ErrAlreadySettled        = errors.New("match already settled")
)

// CooldownError is returned when a match cannot start because a manual
// stop cooldown is still in effect.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %d seconds remaining", e.RemainingSeconds())
}

// RemainingSeconds returns the remaining cooldown rounded up to whole
// seconds, for user-facing messages.
func (e *CooldownError) RemainingSeconds() int {
	secs := int(e.Remaining / time.Second)
	if e.Remaining%time.Second > 0 {
		secs++
	}
	return secs
}
