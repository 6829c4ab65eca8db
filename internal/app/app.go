// Package app wires configuration into the row store, the conversation
// engine and the turn dispatcher shared by every binary.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/plata/internal/bot"
	"github.com/dvloznov/plata/internal/config"
	"github.com/dvloznov/plata/internal/conversation"
	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/infra/azuretables"
	infraBQ "github.com/dvloznov/plata/internal/infra/bigquery"
	"github.com/dvloznov/plata/internal/infra/sheets"
	"github.com/dvloznov/plata/internal/jobs"
	"github.com/dvloznov/plata/internal/jobs/inmemory"
	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/rowstore"
	"github.com/dvloznov/plata/internal/session"
)

// jobHistory is how many processed turns the job store remembers.
const jobHistory = 1000

// App holds the long-lived components of a process.
type App struct {
	Config   *config.Config
	Store    rowstore.RowStore
	Ledgers  *ledger.Service
	Machine  *conversation.Machine
	Sessions *session.Store
	Engine   *bot.Engine
	Jobs     *inmemory.Store
	Queue    *inmemory.Queue

	closeStore func() error
}

// New opens the configured row store and builds the engine on top of it.
// The queue is created but not started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := OpenRowStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, store, closeStore), nil
}

// NewWithStore builds the App around an already opened store.
func NewWithStore(cfg *config.Config, store rowstore.RowStore, closeStore func() error) *App {
	machine := conversation.NewMachine(store, cfg.Accounts, conversation.WithHistoryLimit(cfg.HistoryLimit))
	sessions := session.NewStore(cfg.SessionTTL)
	jobStore := inmemory.NewStore(jobHistory)

	return &App{
		Config:     cfg,
		Store:      store,
		Ledgers:    ledger.NewService(store),
		Machine:    machine,
		Sessions:   sessions,
		Engine:     bot.NewEngine(machine, sessions),
		Jobs:       jobStore,
		Queue:      inmemory.NewQueue(cfg.MaxPendingTurns, jobStore),
		closeStore: closeStore,
	}
}

// Start launches the turn dispatcher and the idle-session sweeper.
func (a *App) Start(ctx context.Context) error {
	return a.StartWith(ctx, a.Engine.HandleJob)
}

// StartWith is Start with a transport-specific turn handler, which should
// delegate to Engine.HandleJob.
func (a *App) StartWith(ctx context.Context, handler jobs.TurnHandler) error {
	if err := a.Queue.Start(ctx, handler); err != nil {
		return fmt.Errorf("Start: starting queue: %w", err)
	}
	go a.Sessions.Run(ctx, time.Minute)
	return nil
}

// Shutdown drains the queue and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Queue.Stop(ctx); err != nil {
		return fmt.Errorf("Shutdown: stopping queue: %w", err)
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			return fmt.Errorf("Shutdown: closing store: %w", err)
		}
	}
	return nil
}

// Account resolves an account by menu position, name or ledger id.
func (a *App) Account(selector string) (domain.Account, error) {
	if acc, ok := a.Config.Accounts.Lookup(selector); ok {
		return acc, nil
	}
	if acc, ok := a.Config.Accounts.ByName(selector); ok {
		return acc, nil
	}
	return domain.Account{}, fmt.Errorf("unknown account %q", selector)
}

// EnsureLedgers prepares every configured ledger when the store supports it.
func (a *App) EnsureLedgers(ctx context.Context) error {
	initializer, ok := a.Store.(rowstore.Initializer)
	if !ok {
		return nil
	}
	log := logger.FromContext(ctx)
	for _, acc := range a.Config.Accounts {
		if err := initializer.EnsureLedger(ctx, acc.Ledger); err != nil {
			return fmt.Errorf("EnsureLedgers: %s: %w", acc.Name, err)
		}
		log.Debug().Str("ledger", acc.Ledger).Msg("Ledger ready")
	}
	return nil
}

// OpenRowStore constructs the configured backend. The returned close func is
// never nil.
func OpenRowStore(ctx context.Context, cfg config.StoreConfig) (rowstore.RowStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return rowstore.NewMemory(), noop, nil
	case config.BackendSheets:
		s, err := sheets.NewRowStore(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenRowStore: %w", err)
		}
		return s, noop, nil
	case config.BackendBigQuery:
		s, err := infraBQ.NewRowStore(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenRowStore: %w", err)
		}
		return s, s.Close, nil
	case config.BackendAzureTables:
		s, err := azuretables.NewRowStore(ctx, cfg.AzureTables.ServiceURL, cfg.AzureTables.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("OpenRowStore: %w", err)
		}
		return s, noop, nil
	default:
		return nil, nil, fmt.Errorf("OpenRowStore: unknown backend %q", cfg.Backend)
	}
}
