package movement

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2024, time.June, 1, 18, 30, 0, 0, time.UTC)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"10000", 10000, false},
		{"$12,000", 12000, false},
		{"  7 ", 7, false},
		{"$ 1,234,567", 1234567, false},
		{"-5", 0, true},
		{"0", 0, true},
		{"abc", 0, true},
		{"12.5", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"today", "2024-06-01", false},
		{"TODAY", "2024-06-01", false},
		{"yesterday", "2024-05-31", false},
		{"day-before-yesterday", "2024-05-30", false},
		{"Hoy", "2024-06-01", false},
		{"anteayer", "2024-05-30", false},
		{"2024-02-29", "2024-02-29", false},
		{"2024-13-40", "", true},
		{"2023-02-29", "", true},
		{"2024-6-1", "", true},
		{"01/06/2024", "", true},
		{"tomorrow", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, june1)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(domain.DateLayout))
		})
	}
}

func TestBuilder_SetDirection(t *testing.T) {
	var b Builder
	require.NoError(t, b.SetDirection("1"))
	assert.Equal(t, domain.Credit, b.Direction())

	require.NoError(t, b.SetDirection(" 2 "))
	assert.Equal(t, domain.Debit, b.Direction())

	err := b.SetDirection("3")
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, domain.Debit, b.Direction(), "failed input must not change the builder")
}

func TestBuilder_SetDescription(t *testing.T) {
	var b Builder
	assert.ErrorIs(t, b.SetDescription("   "), ErrEmptyDescription)
	assert.True(t, b.Empty())

	require.NoError(t, b.SetDescription("  coffee beans "))
	assert.Equal(t, "coffee beans", b.Description())
}

func TestBuilder_BuildRequiresAllFields(t *testing.T) {
	var b Builder
	_, err := b.Build()
	assert.True(t, errors.Is(err, ErrIncomplete))

	require.NoError(t, b.SetDirection("2"))
	require.NoError(t, b.SetDescription("book"))
	require.NoError(t, b.SetAmount("$2,000"))
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrIncomplete)

	require.NoError(t, b.SetDate("today", june1))
	m, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Debit", "book", "2000", "2024-06-01"}, m.Columns())
}

func TestBuilder_InvalidAmountKeepsPrevious(t *testing.T) {
	var b Builder
	require.NoError(t, b.SetAmount("500"))
	assert.ErrorIs(t, b.SetAmount("-5"), ErrInvalidAmount)
	assert.Equal(t, int64(500), b.Amount())
}

func TestBuilder_CopyIsIndependent(t *testing.T) {
	var a Builder
	require.NoError(t, a.SetDescription("rent"))
	b := a
	require.NoError(t, b.SetDescription("groceries"))
	assert.Equal(t, "rent", a.Description())
	assert.Equal(t, "groceries", b.Description())
}
