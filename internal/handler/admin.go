package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/match"
)

// AdminHandler handles operator commands. Registered behind the admin
// middleware, so every caller here is already authorized.
type AdminHandler struct {
	scheduler *match.Scheduler
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(scheduler *match.Scheduler) *AdminHandler {
	return &AdminHandler{scheduler: scheduler}
}

// HandleRoll handles /roll: force-closes the betting window. The roll
// delay and settlement still run on their normal timers.
func (h *AdminHandler) HandleRoll(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	if err := h.scheduler.CloseEarly(ctx, chat.ID); err != nil {
		switch {
		case errors.Is(err, match.ErrNoActiveMatch):
			return c.Reply("❌ No match is running.")
		case errors.Is(err, match.ErrMatchNotAcceptingBets):
			return c.Reply("❌ Betting is already closed.")
		default:
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to force-close betting")
			return c.Reply("❌ Could not close betting, please try again.")
		}
	}
	return nil
}

// HandleStopGame handles /stopgame: voids the current match, refunds
// every stake and starts the manual-stop cooldown.
func (h *AdminHandler) HandleStopGame(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	sum, err := h.scheduler.StopMatch(ctx, chat.ID)
	if err != nil {
		if errors.Is(err, match.ErrNoActiveMatch) {
			return c.Reply("❌ No match is running.")
		}
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to stop match")
		return c.Reply("❌ Could not stop the match, please try again.")
	}

	return c.Reply(FormatRefunds(sum))
}
