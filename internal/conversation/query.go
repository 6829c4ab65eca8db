package conversation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/logger"
)

func (m *Machine) handleBalanceAccount(ctx context.Context, s Session, input string) (Session, Reply) {
	acc, ok := m.accounts.Lookup(input)
	if !ok {
		return s, m.accountReply(KindInvalid, invalidAccount, "to check its balance")
	}

	balance, err := m.ledgers.Balance(ctx, acc.Ledger)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("ledger", acc.Ledger).Msg("Failed to read balance")
		return s.toMenu(), mainMenu(KindFailure, unavailableNotice(acc.Name))
	}
	return s.toMenu(), mainMenu(KindOK, fmt.Sprintf("💰 Current balance of %s: %s", acc.Name, ledger.FormatMoney(balance.Total)))
}

func (m *Machine) handleHistoryAccount(ctx context.Context, s Session, input string) (Session, Reply) {
	acc, ok := m.accounts.Lookup(input)
	if !ok {
		return s, m.accountReply(KindInvalid, invalidAccount, "to see its recent movements")
	}

	entries, err := m.ledgers.Recent(ctx, acc.Ledger, m.historyLimit)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("ledger", acc.Ledger).Msg("Failed to read history")
		return s.toMenu(), mainMenu(KindFailure, unavailableNotice(acc.Name))
	}
	if len(entries) == 0 {
		return s.toMenu(), mainMenu(KindOK, fmt.Sprintf("📭 No movements recorded in %s yet.", acc.Name))
	}

	r := mainMenu(KindOK, fmt.Sprintf("📄 Last %d movements in %s, newest first:", len(entries), acc.Name))
	r.Table = ledger.FormatTable(entries)
	r.Entries = entries
	return s.toMenu(), r
}

func unavailableNotice(account string) string {
	return fmt.Sprintf("⚠️ The %s ledger is unavailable right now, so nothing could be read. Please try again later.", account)
}

func decimalOf(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
