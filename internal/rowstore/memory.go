package rowstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dvloznov/plata/internal/domain"
)

// Memory is an in-memory RowStore. It is safe for concurrent use.
// Data is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	ledgers map[string][][]string
	strict  bool
}

// NewMemory creates an empty in-memory store. Ledgers are created with a
// header row on first append.
func NewMemory() *Memory {
	return &Memory{ledgers: make(map[string][][]string)}
}

// NewStrictMemory creates a store that only knows the given ledgers and fails
// with ErrUnavailable for any other, like a spreadsheet with missing tabs.
func NewStrictMemory(ledgers ...string) *Memory {
	m := &Memory{ledgers: make(map[string][][]string), strict: true}
	for _, l := range ledgers {
		m.ledgers[l] = [][]string{slices.Clone(domain.Header)}
	}
	return m
}

// AppendRow implements RowStore.
func (m *Memory) AppendRow(ctx context.Context, ledger string, columns []string) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("append", ledger, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.ledgers[ledger]
	if !ok {
		if m.strict {
			return Unavailable("append", ledger, fmt.Errorf("ledger not found"))
		}
		rows = [][]string{slices.Clone(domain.Header)}
	}
	m.ledgers[ledger] = append(rows, slices.Clone(columns))
	return nil
}

// ReadAllRows implements RowStore. The returned rows are copies.
func (m *Memory) ReadAllRows(ctx context.Context, ledger string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("read", ledger, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.ledgers[ledger]
	if !ok {
		if m.strict {
			return nil, Unavailable("read", ledger, fmt.Errorf("ledger not found"))
		}
		return [][]string{slices.Clone(domain.Header)}, nil
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out, nil
}

// EnsureLedger implements Initializer.
func (m *Memory) EnsureLedger(ctx context.Context, ledger string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ledgers[ledger]; !ok {
		m.ledgers[ledger] = [][]string{slices.Clone(domain.Header)}
	}
	return nil
}

var (
	_ RowStore    = (*Memory)(nil)
	_ Initializer = (*Memory)(nil)
)
