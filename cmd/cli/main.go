package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/plata/internal/app"
	"github.com/dvloznov/plata/internal/config"
	"github.com/dvloznov/plata/internal/logger"
)

var (
	cfgFile   string
	storeFlag string
	logLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "plata",
		Short:         "Inspect and drive plata ledgers from the terminal",
		Long:          "plata reads balances and history from the configured ledgers, prepares them, exports snapshots and runs the bot conversation locally.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("PLATA_CONFIG"), "config file path")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "override row store backend (sheets, bigquery, aztables, memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level")

	rootCmd.AddCommand(newBalanceCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newShowExportCmd())
	rootCmd.AddCommand(newChatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. Global flags are applied as environment
// overrides so they take part in validation.
func loadConfig() (*config.Config, error) {
	if storeFlag != "" {
		os.Setenv("PLATA_STORE", storeFlag)
	}
	if logLevel != "" {
		os.Setenv("PLATA_LOG_LEVEL", logLevel)
	}
	return config.Load(cfgFile)
}

// openApp loads configuration and opens the row store. The returned context
// carries the logger.
func openApp(ctx context.Context) (context.Context, *app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return ctx, nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return ctx, nil, err
	}
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, a, nil
}
