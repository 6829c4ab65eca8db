package ledger

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var header = []string{"direction", "description", "amount", "date"}

func withHeader(rows ...[]string) [][]string {
	return append([][]string{header}, rows...)
}

func TestComputeBalance_Scenario(t *testing.T) {
	rows := withHeader(
		[]string{"credit", "coffee", "5000", "2024-01-01"},
		[]string{"debit", "book", "2000", "2024-01-02"},
	)

	b := ComputeBalance(rows)

	assert.True(t, b.Total.Equal(decimal.NewFromInt(3000)), "got %s", b.Total)
	assert.Equal(t, 2, b.Counted)
	assert.Equal(t, 0, b.Skipped)
}

func TestComputeBalance_HeaderOnly(t *testing.T) {
	assert.True(t, ComputeBalance(withHeader()).Total.IsZero())
	assert.True(t, ComputeBalance(nil).Total.IsZero())
}

func TestComputeBalance_SkipsMalformedRows(t *testing.T) {
	wellFormed := withHeader(
		[]string{"Credit", "salary", "1,500,000", "2024-01-01"},
		[]string{" DEBIT ", "rent", "700000", "2024-01-02"},
		[]string{"Crédito", "legacy row", "100", "2024-01-03"},
		[]string{"débito", "legacy row", "50.9", "2024-01-04"},
	)
	want := ComputeBalance(wellFormed)
	assert.True(t, want.Total.Equal(decimal.NewFromInt(800050)), "got %s", want.Total)

	malformed := append(wellFormed,
		[]string{"credit", "typo", "abc", "2024-01-05"},
		[]string{"debit", "short"},
		[]string{"transfer", "unknown", "10", "2024-01-06"},
		[]string{},
	)
	got := ComputeBalance(malformed)

	assert.True(t, got.Total.Equal(want.Total), "trailing malformed rows changed the balance: %s", got.Total)
	assert.Equal(t, 4, got.Skipped)
}

func TestComputeBalance_MalformedInTheMiddle(t *testing.T) {
	rows := withHeader(
		[]string{"credit", "a", "10", "2024-01-01"},
		[]string{"credit", "b", "ten", "2024-01-02"},
		[]string{"debit", "c", "3", "2024-01-03"},
	)
	assert.True(t, ComputeBalance(rows).Total.Equal(decimal.NewFromInt(7)))
}

func TestComputeBalance_SumOfCreditsMinusDebits(t *testing.T) {
	var rows [][]string
	var credits, debits int64
	for i := 1; i <= 50; i++ {
		amount := int64(i * 137)
		if i%3 == 0 {
			rows = append(rows, []string{"debit", "d", fmt.Sprint(amount), "2024-01-01"})
			debits += amount
		} else {
			rows = append(rows, []string{"credit", "c", fmt.Sprint(amount), "2024-01-01"})
			credits += amount
		}
	}

	b := ComputeBalance(withHeader(rows...))

	assert.True(t, b.Total.Equal(decimal.NewFromInt(credits-debits)))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "$0"},
		{decimal.NewFromInt(3000), "$3,000"},
		{decimal.NewFromInt(-1234567), "-$1,234,567"},
		{decimal.RequireFromString("999.99"), "$999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in))
	}
}
