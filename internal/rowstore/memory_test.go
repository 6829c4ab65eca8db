package rowstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AppendRow(ctx, "Personal", []string{"Credit", "coffee", "5000", "2024-01-01"}))
	require.NoError(t, m.AppendRow(ctx, "Personal", []string{"Debit", "book", "2000", "2024-01-02"}))

	rows, err := m.ReadAllRows(ctx, "Personal")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"direction", "description", "amount", "date"}, rows[0])
	assert.Equal(t, "book", rows[2][1])

	rows[1][1] = "mutated"
	again, err := m.ReadAllRows(ctx, "Personal")
	require.NoError(t, err)
	assert.Equal(t, "coffee", again[1][1], "readers must get a snapshot, not the live rows")
}

func TestMemory_UnknownLedgerIsEmpty(t *testing.T) {
	rows, err := NewMemory().ReadAllRows(context.Background(), "nope")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStrictMemory_UnknownLedgerIsUnavailable(t *testing.T) {
	m := NewStrictMemory("Personal")

	_, err := m.ReadAllRows(context.Background(), "Business")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = m.AppendRow(context.Background(), "Business", []string{"Credit", "x", "1", "2024-01-01"})
	assert.ErrorIs(t, err, ErrUnavailable)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "append", storeErr.Op)
	assert.Equal(t, "Business", storeErr.Ledger)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().ReadAllRows(ctx, "Personal")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.AppendRow(ctx, "Business", []string{"Credit", fmt.Sprint(i), "1", "2024-01-01"})
		}(i)
	}
	wg.Wait()

	rows, err := m.ReadAllRows(ctx, "Business")
	require.NoError(t, err)
	assert.Len(t, rows, 21)
}
