package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format every movement date is stored in.
const DateLayout = "2006-01-02"

// Direction is the sign of a movement.
type Direction int

const (
	// Credit increases the balance of a ledger.
	Credit Direction = iota + 1
	// Debit decreases the balance of a ledger.
	Debit
)

// String returns the marker written to the direction column.
func (d Direction) String() string {
	switch d {
	case Credit:
		return "Credit"
	case Debit:
		return "Debit"
	default:
		return ""
	}
}

// Valid reports whether d is Credit or Debit.
func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// ParseDirectionMarker maps a stored direction column back to a Direction.
// Matching is case-insensitive and ignores surrounding whitespace. The Spanish
// markers written by the first deployment of the bot are still recognised.
func ParseDirectionMarker(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "crédito", "credito":
		return Credit, true
	case "debit", "débito", "debito":
		return Debit, true
	}
	return 0, false
}

// Movement represents one recorded financial entry.
// A Movement is only persisted once every field is present and valid.
type Movement struct {
	Direction   Direction
	Description string
	Amount      int64     // whole units, always positive
	Date        time.Time // calendar date, time-of-day is ignored
}

// Columns returns the row written to a ledger, in header order.
func (m Movement) Columns() []string {
	return []string{
		m.Direction.String(),
		m.Description,
		fmt.Sprintf("%d", m.Amount),
		m.Date.Format(DateLayout),
	}
}

// Header is the fixed first row of every ledger.
var Header = []string{"direction", "description", "amount", "date"}
