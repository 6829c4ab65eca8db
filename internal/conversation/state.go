// Package conversation implements the turn-by-turn dialogue that records
// movements and answers balance and history queries. A turn is a pure
// transition (Session, input) -> (Session, Reply); the only side effects are
// the row store calls made while finalizing or querying a ledger.
package conversation

import (
	"errors"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/movement"
)

// ErrMissingSelection reports a session that reached a recording step without
// the account or fields that step depends on.
var ErrMissingSelection = errors.New("missing selection")

// State is the position of a conversation in the dialogue.
type State int

const (
	MainMenu State = iota
	AccountSelectForRecord
	DirectionSelect
	DescriptionEntry
	AmountEntry
	DateEntry
	AccountSelectForBalance
	AccountSelectForHistory
	Terminal
)

var stateNames = [...]string{
	MainMenu:                "main_menu",
	AccountSelectForRecord:  "account_select_for_record",
	DirectionSelect:         "direction_select",
	DescriptionEntry:        "description_entry",
	AmountEntry:             "amount_entry",
	DateEntry:               "date_entry",
	AccountSelectForBalance: "account_select_for_balance",
	AccountSelectForHistory: "account_select_for_history",
	Terminal:                "terminal",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session is the per-conversation dialogue state. It is a value: Handle
// returns an updated copy and never mutates the one it was given.
type Session struct {
	State State
	// Account is the ledger selected for the movement being recorded.
	Account *domain.Account
	// Movement holds the fields collected so far.
	Movement movement.Builder
	// Greeted is set once the welcome menu has been shown.
	Greeted bool
}

// NewSession returns a session positioned at the main menu.
func NewSession() Session {
	return Session{State: MainMenu}
}

// InProgress reports whether the session holds a selected account or a
// partially built movement.
func (s Session) InProgress() bool {
	return s.Account != nil || !s.Movement.Empty()
}

// toMenu discards any in-progress data and moves to the main menu.
func (s Session) toMenu() Session {
	s.State = MainMenu
	s.Account = nil
	s.Movement = movement.Builder{}
	return s
}

func (s Session) withAccount(acc domain.Account) Session {
	s.Account = &acc
	return s
}
