package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/config"
	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/storage"
)

// leaderboardSize is how many players /leaderboard shows.
const leaderboardSize = 10

// InfoHandler handles the read-only commands.
type InfoHandler struct {
	cfg       *config.Config
	scheduler *match.Scheduler
	store     storage.Adapter
}

// NewInfoHandler creates a new InfoHandler.
func NewInfoHandler(cfg *config.Config, scheduler *match.Scheduler, store storage.Adapter) *InfoHandler {
	return &InfoHandler{cfg: cfg, scheduler: scheduler, store: store}
}

// HandleLeaderboard handles /leaderboard.
func (h *InfoHandler) HandleLeaderboard(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	players, err := h.scheduler.Leaderboard(ctx, chat.ID, leaderboardSize)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load leaderboard")
		return c.Reply("❌ Could not load the leaderboard.")
	}
	return c.Reply(FormatLeaderboard(players))
}

// HandleHistory handles /history.
func (h *InfoHandler) HandleHistory(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	records, err := h.scheduler.History(ctx, chat.ID, h.cfg.Game.HistoryLimit)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load match history")
		return c.Reply("❌ Could not load the match history.")
	}
	return c.Reply(FormatHistory(records))
}

// HandleScore handles /score: the sender's own score and record.
// First use registers the player at the configured initial score.
func (h *InfoHandler) HandleScore(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	stats, err := h.store.EnsurePlayer(ctx, chat.ID, sender.ID, sender.Username, h.cfg.Game.InitialScore)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("player_id", sender.ID).Msg("Failed to load player stats")
		return c.Reply("❌ Could not load your score.")
	}
	return c.Reply(FormatScore(stats))
}

// HandleHelp handles /help.
func (h *InfoHandler) HandleHelp(c tele.Context) error {
	return c.Reply(`🎲 Dice betting game

Two dice decide each match:
  • SMALL — sum 2-6, pays x2
  • LUCKY — sum 7, pays x5
  • BIG — sum 8-12, pays x2

Commands:
/startgame — open a new match
/bet <big|small|lucky> <amount> — place a bet
/status — current match
/score — your score and record
/leaderboard — top players
/history — recent matches
/help — this message

Operators:
/roll — close betting now
/stopgame — stop the match, refund all bets`)
}
