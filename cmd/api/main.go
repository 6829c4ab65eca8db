package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/plata/internal/api"
	"github.com/dvloznov/plata/internal/api/handlers"
	"github.com/dvloznov/plata/internal/app"
	"github.com/dvloznov/plata/internal/config"
	"github.com/dvloznov/plata/internal/export"
	"github.com/dvloznov/plata/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("PLATA_CONFIG"), "Path to YAML config file (or set PLATA_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port (overrides config and PORT env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.HTTP.Port = *port
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	log = log.Level(level)

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open row store")
	}
	if err := a.EnsureLedgers(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not prepare ledgers, continuing")
	}

	var exporter handlers.Exporter
	if cfg.Export.Bucket != "" {
		gcsExporter, err := export.NewGCSExporter(ctx, cfg.Export.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create exporter")
		}
		defer gcsExporter.Close()
		exporter = gcsExporter
	} else {
		log.Warn().Msg("No GCS bucket configured - ledger export will be disabled")
	}

	// Start the turn dispatcher in background
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	if err := a.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start turn dispatcher")
	}

	handler := api.NewRouter(api.Handlers{
		Conversations: handlers.NewConversationsHandler(a.Queue, log),
		Ledgers:       handlers.NewLedgersHandler(a.Ledgers, cfg.Accounts, cfg.HistoryLimit, exporter, log),
		Jobs:          handlers.NewJobsHandler(a.Jobs, log),
	}, cfg.HTTP.Token, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Str("store", cfg.Store.Backend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain in-flight turns before the worker context goes away
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
