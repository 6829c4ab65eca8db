package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/movement"
)

// Main menu selectors.
const (
	optRecord  = "1"
	optBalance = "2"
	optExit    = "3"
	optHistory = "4"
)

// backLabel is the quick reply offered on every step below the main menu.
const backLabel = "menu"

var backInputs = map[string]bool{
	"menu":   true,
	"back":   true,
	"/menu":  true,
	"/start": true,
}

var exitInputs = map[string]bool{
	"exit":    true,
	"/exit":   true,
	"/cancel": true,
}

const mainMenuPrompt = "What would you like to do?\n\n" +
	"1. Record a new movement\n" +
	"2. View balance\n" +
	"3. End session\n" +
	"4. View movement history"

var mainMenuOptions = [][]string{{optRecord, optBalance}, {optExit, optHistory}}

const (
	welcomeNotice  = "👋 Welcome to your finance tracker."
	backNotice     = "↩️ Back to the main menu. Nothing was saved."
	goodbyeNotice  = "👋 Session finished. Send any message to start again."
	restartNotice  = "❌ This conversation lost track of the movement being recorded. Please start again with /start."
	invalidMenu    = "❌ Invalid option. Choose one of the numbered options."
	invalidAccount = "❌ Invalid account. Choose a number from the list or type the account name."
	invalidDir     = "❌ Invalid option. Choose 1 for Credit or 2 for Debit."
	invalidDesc    = "❌ The description can't be empty."
	invalidAmount  = "❌ Invalid amount. Use a positive whole number, for example 100 or 5,000."
	invalidDate    = "❌ Invalid date. Pick an option or type the date as YYYY-MM-DD."
)

const (
	directionPrompt   = "Choose the movement type:\n\n1. Credit (+)\n2. Debit (-)"
	descriptionPrompt = "Type a description for the movement:"
	amountPrompt      = "Enter the amount (whole number, no decimals) or pick a quick option:"
	datePrompt        = "Choose the movement date or type it as YYYY-MM-DD:"
)

func mainMenu(kind Kind, notice string) Reply {
	return Reply{Kind: kind, Notice: notice, Prompt: mainMenuPrompt, Options: mainMenuOptions}
}

func accountPrompt(purpose string, accounts domain.Accounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Choose the account %s:\n", purpose)
	for i, acc := range accounts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, acc.Name)
	}
	return b.String()
}

// accountOptions lays the account numbers out three per row.
func accountOptions(accounts domain.Accounts) [][]string {
	var rows [][]string
	var row []string
	for i := range accounts {
		row = append(row, strconv.Itoa(i+1))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []string{backLabel})
}

func withBack(labels ...string) [][]string {
	return [][]string{labels, {backLabel}}
}

var (
	directionOptions   = withBack("1", "2")
	descriptionOptions = [][]string{{backLabel}}
	amountOptions      = withBack(movement.PresetAmounts...)
	dateOptions        = withBack(movement.DateKeywords...)
)

// MenuReply is the main menu prompt preceded by notice.
func MenuReply(kind Kind, notice string) Reply {
	return mainMenu(kind, notice)
}
