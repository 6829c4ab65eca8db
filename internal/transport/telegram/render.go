package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dvloznov/plata/internal/conversation"
)

// textEscaper escapes every character MarkdownV2 reserves outside entities.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// codeEscaper escapes inside pre and code entities, where only backtick and
// backslash are special.
var codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")

// Escape makes s safe to send as MarkdownV2 text.
func Escape(s string) string {
	return textEscaper.Replace(s)
}

// CodeBlock wraps s in a pre-formatted MarkdownV2 block.
func CodeBlock(s string) string {
	return "```\n" + codeEscaper.Replace(s) + "\n```"
}

// FormatText renders a reply as MarkdownV2. The history table becomes a
// fixed-width block so its columns line up.
func FormatText(r conversation.Reply) string {
	parts := make([]string, 0, 3)
	if r.Notice != "" {
		parts = append(parts, Escape(r.Notice))
	}
	if r.Table != "" {
		parts = append(parts, CodeBlock(r.Table))
	}
	if r.Prompt != "" {
		parts = append(parts, Escape(r.Prompt))
	}
	return strings.Join(parts, "\n\n")
}

// Keyboard builds a one-time reply keyboard from option rows.
func Keyboard(options [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(options))
	for _, labels := range options {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// Render turns a reply into a message for chatID. A reply that ends the
// conversation removes the keyboard.
func Render(chatID int64, r conversation.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, FormatText(r))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	switch {
	case r.End:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	case len(r.Options) > 0:
		msg.ReplyMarkup = Keyboard(r.Options)
	}
	return msg
}
