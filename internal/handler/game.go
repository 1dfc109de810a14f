package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/config"
	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/model"
)

// GameHandler handles the match lifecycle commands and the betting
// keyboard callbacks.
type GameHandler struct {
	cfg       *config.Config
	scheduler *match.Scheduler
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, scheduler *match.Scheduler) *GameHandler {
	return &GameHandler{cfg: cfg, scheduler: scheduler}
}

// HandleStartGame handles /startgame: opens a new match in the chat.
func (h *GameHandler) HandleStartGame(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	st, err := h.scheduler.StartMatch(ctx, chat.ID)
	if err != nil {
		var cd *match.CooldownError
		switch {
		case errors.Is(err, match.ErrAlreadyActive):
			return c.Reply("🎲 A match is already running. Use /status to see it.")
		case errors.As(err, &cd):
			return c.Reply(fmt.Sprintf("⏰ Game was just stopped. Try again in %d seconds.", cd.RemainingSeconds()))
		default:
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to start match")
			return c.Reply("❌ Could not start a match, please try again.")
		}
	}

	return c.Reply(
		FormatBettingPanel(st.MatchID, int(st.TimeRemaining.Seconds()), st.Players, st.TotalWagered),
		BuildBettingKeyboard(h.scheduler.Table()),
	)
}

// HandleBet handles /bet <big|small|lucky> <amount>.
func (h *GameHandler) HandleBet(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /bet <big|small|lucky> <amount>\nExample: /bet big 100")
	}

	cat, ok := model.ParseCategory(strings.ToLower(args[0]))
	if !ok {
		return c.Reply("❌ Unknown category. Choose big, small or lucky.")
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ Please enter a valid bet amount.")
	}

	return h.placeBet(c, chat.ID, sender, cat, amount)
}

// HandleBetCallback handles betting keyboard presses.
func (h *GameHandler) HandleBetCallback(c tele.Context) error {
	callback := c.Callback()
	chat := c.Chat()
	sender := c.Sender()
	if callback == nil || chat == nil || sender == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")
	cat, amount, ok := DecodeCallback(data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown action"})
	}

	ctx := context.Background()
	bet, score, err := h.scheduler.PlaceBet(ctx, chat.ID, sender.ID, sender.Username, cat, amount)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: betErrorText(err)})
	}

	return c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("✅ %d on %s (total %d). Balance: %d", amount, categoryLabel(bet.Category), bet.Amount, score),
	})
}

// placeBet runs the shared bet path for command and callback input.
func (h *GameHandler) placeBet(c tele.Context, roomID int64, sender *tele.User, cat model.Category, amount int64) error {
	ctx := context.Background()

	bet, score, err := h.scheduler.PlaceBet(ctx, roomID, sender.ID, sender.Username, cat, amount)
	if err != nil {
		return c.Reply("❌ " + betErrorText(err))
	}

	name := displayName(sender.Username, sender.ID)
	return c.Reply(fmt.Sprintf(
		"✅ %s bet %d on %s (total %d)\n💰 Balance: %d",
		name, amount, categoryLabel(bet.Category), bet.Amount, score,
	))
}

// betErrorText maps bet placement errors to user-facing text.
func betErrorText(err error) string {
	switch {
	case errors.Is(err, match.ErrNoActiveMatch):
		return "No match is running. Use /startgame first."
	case errors.Is(err, match.ErrMatchNotAcceptingBets):
		return "Betting is closed for this match."
	case errors.Is(err, match.ErrInsufficientFunds):
		return "Not enough points for that bet."
	case errors.Is(err, match.ErrCategoryConflict):
		return "You already bet on another category this match."
	case errors.Is(err, match.ErrInvalidCategory):
		return "Unknown category. Choose big, small or lucky."
	case errors.Is(err, match.ErrInvalidAmount):
		return "Bet amount must be positive."
	default:
		log.Error().Err(err).Msg("Bet placement failed")
		return "Could not place the bet, please try again."
	}
}

// HandleStatus handles /status.
func (h *GameHandler) HandleStatus(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	st, err := h.scheduler.Status(ctx, chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to read status")
		return c.Reply("❌ Could not read the game status.")
	}

	return c.Reply(FormatStatus(st))
}

// displayName renders a player mention, falling back to the numeric ID.
func displayName(username string, playerID int64) string {
	if username == "" {
		return fmt.Sprintf("player %d", playerID)
	}
	if !strings.HasPrefix(username, "@") {
		return "@" + username
	}
	return username
}
