package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/rowstore"
)

// stateHandler processes one input for one state. The input is already
// trimmed and has passed the universal back and exit checks.
type stateHandler func(m *Machine, ctx context.Context, s Session, input string) (Session, Reply)

var handlers = map[State]stateHandler{
	MainMenu:                (*Machine).handleMainMenu,
	AccountSelectForRecord:  (*Machine).handleRecordAccount,
	DirectionSelect:         (*Machine).handleDirection,
	DescriptionEntry:        (*Machine).handleDescription,
	AmountEntry:             (*Machine).handleAmount,
	DateEntry:               (*Machine).handleDate,
	AccountSelectForBalance: (*Machine).handleBalanceAccount,
	AccountSelectForHistory: (*Machine).handleHistoryAccount,
}

// Machine is the conversation transition function. It holds no per-
// conversation state and is safe for concurrent use by many conversations.
type Machine struct {
	ledgers      *ledger.Service
	accounts     domain.Accounts
	historyLimit int
	now          func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the clock used to resolve relative date keywords.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithHistoryLimit sets how many movements a history reply lists.
func WithHistoryLimit(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// NewMachine creates a Machine that records into store for the given accounts.
func NewMachine(store rowstore.RowStore, accounts domain.Accounts, opts ...Option) *Machine {
	m := &Machine{
		ledgers:      ledger.NewService(store),
		accounts:     accounts,
		historyLimit: ledger.DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Accounts returns the configured accounts in menu order.
func (m *Machine) Accounts() domain.Accounts { return m.accounts }

// Handle runs one turn. Exit is checked first, then back-to-menu, then the
// handler for the current state. Invalid input returns s unchanged.
func (m *Machine) Handle(ctx context.Context, s Session, input string) (Session, Reply) {
	in := strings.TrimSpace(input)
	key := strings.ToLower(in)

	if s.State == Terminal {
		s = NewSession()
	}

	if exitInputs[key] {
		return m.end(s)
	}

	if !s.Greeted {
		s.Greeted = true
		if !isMainMenuChoice(key) {
			return s.toMenu(), mainMenu(KindOK, welcomeNotice)
		}
	}

	if backInputs[key] {
		if s.State == MainMenu {
			return s.toMenu(), mainMenu(KindOK, "")
		}
		return s.toMenu(), mainMenu(KindOK, backNotice)
	}

	handler, ok := handlers[s.State]
	if !ok {
		return m.missingSelection(ctx, s, fmt.Errorf("Handle: no handler for state %s", s.State))
	}
	return handler(m, ctx, s, in)
}

func isMainMenuChoice(key string) bool {
	switch key {
	case optRecord, optBalance, optExit, optHistory:
		return true
	}
	return false
}

func (m *Machine) end(s Session) (Session, Reply) {
	s = s.toMenu()
	s.State = Terminal
	return s, Reply{Kind: KindEnd, Notice: goodbyeNotice, End: true}
}

// missingSelection ends a conversation whose session no longer holds what the
// current step needs.
func (m *Machine) missingSelection(ctx context.Context, s Session, err error) (Session, Reply) {
	log := logger.FromContext(ctx)
	log.Error().
		Err(errors.Join(ErrMissingSelection, err)).
		Str("state", s.State.String()).
		Msg("Session lost its selection, ending conversation")

	s = s.toMenu()
	s.State = Terminal
	return s, Reply{Kind: KindEnd, Notice: restartNotice, End: true}
}

func (m *Machine) handleMainMenu(_ context.Context, s Session, input string) (Session, Reply) {
	switch input {
	case optRecord:
		s.State = AccountSelectForRecord
		return s, m.accountReply(KindOK, "", "for the new movement")
	case optBalance:
		s.State = AccountSelectForBalance
		return s, m.accountReply(KindOK, "", "to check its balance")
	case optHistory:
		s.State = AccountSelectForHistory
		return s, m.accountReply(KindOK, "", "to see its recent movements")
	case optExit:
		return m.end(s)
	default:
		return s, mainMenu(KindInvalid, invalidMenu)
	}
}

func (m *Machine) accountReply(kind Kind, notice, purpose string) Reply {
	return Reply{
		Kind:    kind,
		Notice:  notice,
		Prompt:  accountPrompt(purpose, m.accounts),
		Options: accountOptions(m.accounts),
	}
}

func (m *Machine) handleRecordAccount(_ context.Context, s Session, input string) (Session, Reply) {
	acc, ok := m.accounts.Lookup(input)
	if !ok {
		return s, m.accountReply(KindInvalid, invalidAccount, "for the new movement")
	}
	s = s.withAccount(acc)
	s.State = DirectionSelect
	return s, Reply{
		Kind:    KindOK,
		Notice:  fmt.Sprintf("📒 Recording in %s.", acc.Name),
		Prompt:  directionPrompt,
		Options: directionOptions,
	}
}
