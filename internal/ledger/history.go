package ledger

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	noDirection   = "N/A"
	noDescription = "no description"
	noDate        = "unknown date"
	zeroAmount    = "$0"
)

// Entry is one formatted history line.
type Entry struct {
	Date        string `json:"date"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// String renders the entry as a single bullet line.
func (e Entry) String() string {
	return fmt.Sprintf("• %s | %s | %s | %s", e.Date, e.Direction, e.Amount, e.Description)
}

// RecentMovements returns at most limit entries, newest first. "Newest" means
// last appended, not latest date. Missing columns fall back to placeholders.
func RecentMovements(rows [][]string, limit int) []Entry {
	if len(rows) < 2 || limit <= 0 {
		return []Entry{}
	}

	data := rows[1:]
	if len(data) > limit {
		data = data[len(data)-limit:]
	}

	entries := make([]Entry, 0, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		entries = append(entries, formatRow(data[i]))
	}
	return entries
}

func formatRow(row []string) Entry {
	return Entry{
		Direction:   strings.ToUpper(column(row, colDirection, noDirection)),
		Description: column(row, colDescription, noDescription),
		Amount:      formatAmountColumn(row),
		Date:        column(row, colDate, noDate),
	}
}

func column(row []string, idx int, fallback string) string {
	if idx >= len(row) {
		return fallback
	}
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return fallback
	}
	return v
}

// formatAmountColumn renders the amount as "$12,000". Text that is not a
// number is shown as stored rather than hidden.
func formatAmountColumn(row []string) string {
	raw := column(row, colAmount, "")
	if raw == "" {
		return zeroAmount
	}
	d, err := decimal.NewFromString(stripSeparators(strings.TrimPrefix(raw, "$")))
	if err != nil {
		return raw
	}
	return FormatMoney(d)
}

// FormatMoney renders an amount truncated to whole units with thousands
// separators and a leading currency symbol: -$3,000.
func FormatMoney(d decimal.Decimal) string {
	n := d.Truncate(0).IntPart()
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// FormatTable lays entries out as a fixed-width table with a header line,
// suitable for preformatted rendering.
func FormatTable(entries []Entry) string {
	headers := Entry{Date: "Date", Direction: "Type", Amount: "Amount", Description: "Description"}

	wDate, wDir, wAmount := len(headers.Date), len(headers.Direction), len(headers.Amount)
	for _, e := range entries {
		wDate = max(wDate, len([]rune(e.Date)))
		wDir = max(wDir, len([]rune(e.Direction)))
		wAmount = max(wAmount, len([]rune(e.Amount)))
	}

	var sb strings.Builder
	writeLine := func(e Entry) {
		fmt.Fprintf(&sb, "%s  %s  %s  %s\n",
			pad(e.Date, wDate), pad(e.Direction, wDir), padLeft(e.Amount, wAmount), e.Description)
	}

	writeLine(headers)
	sb.WriteString(strings.Repeat("-", wDate+wDir+wAmount+6+len(headers.Description)) + "\n")
	for _, e := range entries {
		writeLine(e)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-len([]rune(s))))
}

func padLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-len([]rune(s)))) + s
}
