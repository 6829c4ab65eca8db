package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/plata/internal/conversation"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Current balance", "Current balance"},
		{"money", "-$2,000.", `\-$2,000\.`},
		{"brackets", "(1) [x] {y}", `\(1\) \[x\] \{y\}`},
		{"emphasis", "_a*b~c`", "\\_a\\*b\\~c\\`"},
		{"backslash", `a\b`, `a\\b`},
		{"exclamation", "Saved!", `Saved\!`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestCodeBlock_OnlyEscapesBacktickAndBackslash(t *testing.T) {
	got := CodeBlock("2024-06-01 | Credit | $5,000 | a`b\\c")

	assert.Equal(t, "```\n2024-06-01 | Credit | $5,000 | a\\`b\\\\c\n```", got)
}

func TestFormatText(t *testing.T) {
	r := conversation.Reply{
		Notice: "Last movements:",
		Table:  "date | amount",
		Prompt: "Pick one.",
	}

	assert.Equal(t, "Last movements:\n\n```\ndate | amount\n```\n\nPick one\\.", FormatText(r))
}

func TestKeyboard(t *testing.T) {
	kb := Keyboard([][]string{{"1", "2"}, {"menu"}})

	require.Len(t, kb.Keyboard, 2)
	require.Len(t, kb.Keyboard[0], 2)
	assert.Equal(t, "1", kb.Keyboard[0][0].Text)
	assert.Equal(t, "menu", kb.Keyboard[1][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
	assert.True(t, kb.ResizeKeyboard)
}

func TestRender(t *testing.T) {
	t.Run("options become a keyboard", func(t *testing.T) {
		msg := Render(42, conversation.Reply{Prompt: "Choose", Options: [][]string{{"1", "2"}}})

		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
		_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		assert.True(t, ok)
	})

	t.Run("end removes the keyboard", func(t *testing.T) {
		msg := Render(42, conversation.Reply{Notice: "Bye", End: true, Options: [][]string{{"1"}}})

		_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
		assert.True(t, ok)
	})

	t.Run("no options keeps markup empty", func(t *testing.T) {
		msg := Render(42, conversation.Reply{Notice: "Hi"})

		assert.Nil(t, msg.ReplyMarkup)
	})
}
