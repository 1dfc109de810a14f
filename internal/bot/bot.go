// Package bot wires the Telegram gateway: telebot setup, middleware and
// handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/config"
	"dice-bet-bot/internal/handler"
	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/storage"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	gameHandler  *handler.GameHandler
	adminHandler *handler.AdminHandler
	infoHandler  *handler.InfoHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config    *config.Config
	Scheduler *match.Scheduler
	Store     storage.Adapter
}

// New creates a Bot, attaches the announcer to the scheduler and
// registers all middleware and handlers.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:          teleBot,
		cfg:          deps.Config,
		gameHandler:  handler.NewGameHandler(deps.Config, deps.Scheduler),
		adminHandler: handler.NewAdminHandler(deps.Scheduler),
		infoHandler:  handler.NewInfoHandler(deps.Config, deps.Scheduler, deps.Store),
	}

	deps.Scheduler.SetNotifier(handler.NewAnnouncer(
		teleBot,
		deps.Scheduler.Table(),
		deps.Config.Game.BettingWindow(),
	))

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/startgame", b.gameHandler.HandleStartGame)
	b.bot.Handle("/bet", b.gameHandler.HandleBet)
	b.bot.Handle("/status", b.gameHandler.HandleStatus)

	b.bot.Handle("/score", b.infoHandler.HandleScore)
	b.bot.Handle("/leaderboard", b.infoHandler.HandleLeaderboard)
	b.bot.Handle("/history", b.infoHandler.HandleHistory)
	b.bot.Handle("/help", b.infoHandler.HandleHelp)
	b.bot.Handle("/start", b.infoHandler.HandleHelp)

	// Operator commands
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/roll", b.adminHandler.HandleRoll)
	adminGroup.Handle("/stopgame", b.adminHandler.HandleStopGame)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline keyboard callbacks.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	if strings.HasPrefix(data, handler.CallbackPrefix) {
		return b.gameHandler.HandleBetCallback(c)
	}

	log.Debug().Str("data", data).Msg("Unhandled callback")
	return c.Respond(&tele.CallbackResponse{})
}

// Start starts long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the poller gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
