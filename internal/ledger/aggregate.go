// Package ledger derives user-facing views (balance, recent history) from a
// snapshot of raw ledger rows. Row 1 of every snapshot is the fixed header and
// is always skipped. Nothing here touches the row store.
package ledger

import (
	"strings"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultHistoryLimit is how many movements the history view shows.
const DefaultHistoryLimit = 10

const (
	colDirection = iota
	colDescription
	colAmount
	colDate
)

// Balance is the result of aggregating a ledger snapshot.
type Balance struct {
	Total   decimal.Decimal
	Counted int // rows that contributed to Total
	Skipped int // malformed rows ignored
}

// ComputeBalance sums credits minus debits over every data row.
// A row is skipped, and counted in Skipped, when it has fewer than three
// columns, an unknown direction or an amount that does not parse. One bad row
// never affects the contribution of the others.
func ComputeBalance(rows [][]string) Balance {
	b := Balance{Total: decimal.Zero}
	if len(rows) < 2 {
		return b
	}

	for _, row := range rows[1:] {
		amount, dir, ok := parseRow(row)
		if !ok {
			b.Skipped++
			continue
		}
		if dir == domain.Credit {
			b.Total = b.Total.Add(amount)
		} else {
			b.Total = b.Total.Sub(amount)
		}
		b.Counted++
	}

	return b
}

// parseRow extracts the signed parts of a balance-affecting row.
// Amounts are truncated to whole units.
func parseRow(row []string) (decimal.Decimal, domain.Direction, bool) {
	if len(row) <= colAmount {
		return decimal.Zero, 0, false
	}

	dir, ok := domain.ParseDirectionMarker(row[colDirection])
	if !ok {
		return decimal.Zero, 0, false
	}

	amount, err := decimal.NewFromString(stripSeparators(row[colAmount]))
	if err != nil {
		return decimal.Zero, 0, false
	}

	return amount.Truncate(0), dir, true
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
