// Package movement accumulates the fields of a single ledger movement across
// several conversation turns, validating each field as it arrives.
package movement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/plata/internal/domain"
)

var (
	// ErrInvalidSelection is returned when the input matches none of the offered options.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrEmptyDescription is returned for a blank description.
	ErrEmptyDescription = errors.New("description must not be empty")
	// ErrInvalidAmount is returned when the amount is not a positive integer.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDate is returned when the date is neither a keyword nor YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrIncomplete is returned by Build when a field is still missing.
	ErrIncomplete = errors.New("movement is incomplete")
)

// PresetAmounts are the quick-reply denominations offered at the amount step.
var PresetAmounts = []string{"10000", "20000", "50000"}

// DateKeywords are the quick-reply labels offered at the date step, in the
// order they are shown.
var DateKeywords = []string{"today", "yesterday", "day-before-yesterday"}

// dateOffsets maps every accepted relative keyword to a number of days back.
// hoy/ayer/anteayer are what the original Spanish deployment offered.
var dateOffsets = map[string]int{
	"today":                0,
	"yesterday":            1,
	"day-before-yesterday": 2,
	"hoy":                  0,
	"ayer":                 1,
	"anteayer":             2,
}

// Builder holds a partially filled movement. The zero value is an empty
// builder. Builder has no reference fields, so copying it copies its state.
type Builder struct {
	direction      domain.Direction
	description    string
	hasDescription bool
	amount         int64
	date           time.Time
	hasDate        bool
}

// SetDirection accepts "1"/"2" (or the words credit/debit).
// On error the builder is left unchanged.
func (b *Builder) SetDirection(input string) error {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "credit":
		b.direction = domain.Credit
	case "2", "debit":
		b.direction = domain.Debit
	default:
		return fmt.Errorf("direction %q: %w", input, ErrInvalidSelection)
	}
	return nil
}

// SetDescription accepts any text that is non-empty after trimming.
func (b *Builder) SetDescription(text string) error {
	desc := strings.TrimSpace(text)
	if desc == "" {
		return ErrEmptyDescription
	}
	b.description = desc
	b.hasDescription = true
	return nil
}

// SetAmount parses text with ParseAmount and stores the result.
func (b *Builder) SetAmount(text string) error {
	amount, err := ParseAmount(text)
	if err != nil {
		return err
	}
	b.amount = amount
	return nil
}

// SetDate resolves text against now with ParseDate and stores the result.
func (b *Builder) SetDate(text string, now time.Time) error {
	date, err := ParseDate(text, now)
	if err != nil {
		return err
	}
	b.date = date
	b.hasDate = true
	return nil
}

// Direction returns the direction set so far, or zero.
func (b Builder) Direction() domain.Direction { return b.direction }

// Description returns the description set so far.
func (b Builder) Description() string { return b.description }

// Amount returns the amount set so far, or zero.
func (b Builder) Amount() int64 { return b.amount }

// Empty reports whether no field has been set.
func (b Builder) Empty() bool {
	return !b.direction.Valid() && !b.hasDescription && b.amount == 0 && !b.hasDate
}

// Complete reports whether all four fields are set.
func (b Builder) Complete() bool {
	return b.direction.Valid() && b.hasDescription && b.amount > 0 && b.hasDate
}

// Build returns the finished movement. Calling it before every field is set
// is a caller bug and yields ErrIncomplete.
func (b Builder) Build() (domain.Movement, error) {
	if !b.Complete() {
		return domain.Movement{}, ErrIncomplete
	}
	return domain.Movement{
		Direction:   b.direction,
		Description: b.description,
		Amount:      b.amount,
		Date:        b.date,
	}, nil
}

// ParseAmount strips currency symbols and thousands separators and parses a
// strictly positive integer. "$12,000" yields 12000.
func ParseAmount(text string) (int64, error) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", text, ErrInvalidAmount)
	}
	if n <= 0 {
		return 0, fmt.Errorf("amount %q must be positive: %w", text, ErrInvalidAmount)
	}
	return n, nil
}

// ParseDate resolves a relative keyword against now, or parses a strict
// YYYY-MM-DD calendar date. Keywords are case-insensitive.
func ParseDate(text string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(text))

	if days, ok := dateOffsets[s]; ok {
		y, m, d := now.AddDate(0, 0, -days).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}

	date, err := time.ParseInLocation(domain.DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", text, ErrInvalidDate)
	}
	return date, nil
}
