// Package rowstore defines the append/read contract the conversation core
// needs from a tabular backend, plus an in-memory implementation.
package rowstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks failures of the backing store itself (network, auth,
// missing sheet). Callers must report these distinctly from an empty ledger.
var ErrUnavailable = errors.New("row store unavailable")

// RowStore is an append-only tabular store of named ledgers.
// Row 1 of every ledger is the fixed header.
type RowStore interface {
	// AppendRow appends one row to the end of the ledger.
	AppendRow(ctx context.Context, ledger string, columns []string) error

	// ReadAllRows returns every row of the ledger in append order,
	// header first.
	ReadAllRows(ctx context.Context, ledger string) ([][]string, error)
}

// Initializer is implemented by stores that can prepare a ledger
// (create the table, write the header row) before first use.
type Initializer interface {
	EnsureLedger(ctx context.Context, ledger string) error
}

// Error describes a failed store operation. It matches ErrUnavailable with
// errors.Is and unwraps to the underlying cause.
type Error struct {
	Op     string // "append", "read" or "ensure"
	Ledger string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s ledger %q: %v", e.Op, e.Ledger, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnavailable.
func (e *Error) Is(target error) bool { return target == ErrUnavailable }

// Unavailable wraps err as a store failure for op on ledger.
func Unavailable(op, ledger string, err error) error {
	return &Error{Op: op, Ledger: ledger, Err: err}
}
