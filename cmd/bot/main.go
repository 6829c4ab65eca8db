package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/plata/internal/app"
	"github.com/dvloznov/plata/internal/config"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/transport/telegram"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("PLATA_CONFIG"), "Path to YAML config file (or set PLATA_CONFIG env)")
		debug      = flag.Bool("debug", false, "Log every Telegram API call")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Telegram.Token == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	log = log.Level(level)

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open row store")
	}
	if err := a.EnsureLedgers(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare ledgers")
	}

	api, err := telegram.NewAPI(cfg.Telegram.Token, *debug || cfg.Telegram.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	bot := telegram.New(api, a.Queue, a.Engine.HandleJob, cfg.Telegram.PollTimeout)

	// The dispatcher outlives the polling context so queued turns still get replies
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorker()
	if err := a.StartWith(workerCtx, bot.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start turn dispatcher")
	}

	log.Info().Str("store", cfg.Store.Backend).Int("accounts", len(cfg.Accounts)).Msg("Bot started, waiting for messages...")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Polling stopped with error")
	}

	log.Info().Msg("Shutting down bot...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight turns
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Bot exited")
}
