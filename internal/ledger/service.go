package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/rowstore"
)

// Service reads and appends ledgers through a RowStore. Every call fetches a
// fresh snapshot; nothing is cached between calls.
type Service struct {
	store rowstore.RowStore
}

// NewService creates a Service over store.
func NewService(store rowstore.RowStore) *Service {
	return &Service{store: store}
}

// Record appends m to the ledger.
func (s *Service) Record(ctx context.Context, ledgerID string, m domain.Movement) error {
	if err := s.store.AppendRow(ctx, ledgerID, m.Columns()); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// Balance reads the ledger and aggregates it. A store failure is returned as
// an error, never as a zero balance.
func (s *Service) Balance(ctx context.Context, ledgerID string) (Balance, error) {
	rows, err := s.store.ReadAllRows(ctx, ledgerID)
	if err != nil {
		return Balance{}, fmt.Errorf("Balance: %w", err)
	}

	b := ComputeBalance(rows)
	if b.Skipped > 0 {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("ledger", ledgerID).
			Int("skipped_rows", b.Skipped).
			Msg("Skipped malformed ledger rows")
	}
	return b, nil
}

// Recent reads the ledger and returns the last limit movements, newest first.
func (s *Service) Recent(ctx context.Context, ledgerID string, limit int) ([]Entry, error) {
	rows, err := s.store.ReadAllRows(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return RecentMovements(rows, limit), nil
}

// Snapshot returns the raw rows of a ledger, header first.
func (s *Service) Snapshot(ctx context.Context, ledgerID string) ([][]string, error) {
	rows, err := s.store.ReadAllRows(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	return rows, nil
}
