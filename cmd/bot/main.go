// Package main is the entry point for the dice betting bot.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dice-bet-bot/internal/bot"
	"dice-bet-bot/internal/config"
	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/pkg/db"
	"dice-bet-bot/internal/pkg/metrics"
	"dice-bet-bot/internal/storage"
	"dice-bet-bot/internal/storage/file"
	"dice-bet-bot/internal/storage/postgres"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("backend", cfg.Storage.Backend).
		Int("betting_window_s", cfg.Game.BettingWindowSeconds).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payout table must prove completeness before anything runs
	table := payout.Default()
	if err := table.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Payout table validation failed")
	}

	// Select the storage backend
	var (
		store      storage.Adapter
		healthFn   metrics.HealthFunc
		closeStore func()
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, &cfg.Storage.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		closeStore = pool.Close

		if err := postgres.Migrate(ctx, pool.Pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		store = postgres.New(pool.Pool)
		healthFn = pool.HealthCheck

	case config.BackendFile:
		fileStore, err := file.Open(cfg.Storage.File.Path, cfg.Game.HistoryLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open data file")
		}
		store = fileStore
		healthFn = func(ctx context.Context) error { return nil }
	}

	// Scheduler drives the match lifecycle for every room
	scheduler := match.NewScheduler(match.Config{
		BettingWindow:      cfg.Game.BettingWindow(),
		RollDelay:          cfg.Game.RollDelay(),
		IdleMatchLimit:     cfg.Game.IdleMatchLimit,
		ManualStopCooldown: cfg.Game.ManualStopCooldown(),
		RecoveryPolicy:     cfg.Game.RecoveryPolicy,
		InitialScore:       cfg.Game.InitialScore,
	}, store, table)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:    cfg,
		Scheduler: scheduler,
		Store:     store,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Replay matches that were live when the previous process died
	if err := scheduler.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to recover active matches")
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.StartServer(cfg.Metrics.Port, healthFn)
		log.Info().Str("port", cfg.Metrics.Port).Msg("Metrics listener started")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	scheduler.Shutdown()
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	if closeStore != nil {
		closeStore()
	}
	log.Info().Msg("Bot stopped gracefully")
}
