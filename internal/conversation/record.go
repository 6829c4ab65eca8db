package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/logger"
)

func (m *Machine) handleDirection(ctx context.Context, s Session, input string) (Session, Reply) {
	if s.Account == nil {
		return m.missingSelection(ctx, s, errors.New("handleDirection: no account"))
	}

	next := s
	if err := next.Movement.SetDirection(input); err != nil {
		logInvalid(ctx, s, err)
		return s, Reply{Kind: KindInvalid, Notice: invalidDir, Prompt: directionPrompt, Options: directionOptions}
	}
	next.State = DescriptionEntry
	return next, Reply{Kind: KindOK, Prompt: descriptionPrompt, Options: descriptionOptions}
}

func (m *Machine) handleDescription(ctx context.Context, s Session, input string) (Session, Reply) {
	if s.Account == nil || !s.Movement.Direction().Valid() {
		return m.missingSelection(ctx, s, errors.New("handleDescription: no account or direction"))
	}

	next := s
	if err := next.Movement.SetDescription(input); err != nil {
		logInvalid(ctx, s, err)
		return s, Reply{Kind: KindInvalid, Notice: invalidDesc, Prompt: descriptionPrompt, Options: descriptionOptions}
	}
	next.State = AmountEntry
	return next, Reply{Kind: KindOK, Prompt: amountPrompt, Options: amountOptions}
}

func (m *Machine) handleAmount(ctx context.Context, s Session, input string) (Session, Reply) {
	if s.Account == nil || s.Movement.Description() == "" {
		return m.missingSelection(ctx, s, errors.New("handleAmount: no account or description"))
	}

	next := s
	if err := next.Movement.SetAmount(input); err != nil {
		logInvalid(ctx, s, err)
		return s, Reply{Kind: KindInvalid, Notice: invalidAmount, Prompt: amountPrompt, Options: amountOptions}
	}
	next.State = DateEntry
	return next, Reply{Kind: KindOK, Prompt: datePrompt, Options: dateOptions}
}

// handleDate finalizes the movement. On a store failure the session stays at
// DateEntry with every field intact so the user can resend the date.
func (m *Machine) handleDate(ctx context.Context, s Session, input string) (Session, Reply) {
	if s.Account == nil || s.Movement.Amount() <= 0 {
		return m.missingSelection(ctx, s, errors.New("handleDate: no account or amount"))
	}

	b := s.Movement
	if err := b.SetDate(input, m.now()); err != nil {
		logInvalid(ctx, s, err)
		return s, Reply{Kind: KindInvalid, Notice: invalidDate, Prompt: datePrompt, Options: dateOptions}
	}
	mv, err := b.Build()
	if err != nil {
		return m.missingSelection(ctx, s, fmt.Errorf("handleDate: %w", err))
	}

	acc := *s.Account
	log := logger.FromContext(ctx).With().Str("ledger", acc.Ledger).Logger()

	if err := m.ledgers.Record(ctx, acc.Ledger, mv); err != nil {
		log.Error().Err(err).Msg("Failed to append movement")
		return s, Reply{
			Kind:    KindFailure,
			Notice:  fmt.Sprintf("⚠️ The movement could not be saved to %s right now. Send the date again to retry, or %q to discard it.", acc.Name, backLabel),
			Prompt:  datePrompt,
			Options: dateOptions,
		}
	}

	log.Info().
		Str("direction", mv.Direction.String()).
		Int64("amount", mv.Amount).
		Str("date", mv.Date.Format(domain.DateLayout)).
		Msg("Movement recorded")

	saved := fmt.Sprintf("✅ Movement saved to %s: %s | %s | %s | %s.",
		acc.Name, mv.Date.Format(domain.DateLayout), mv.Direction, ledger.FormatMoney(decimalOf(mv.Amount)), mv.Description)

	balance, err := m.ledgers.Balance(ctx, acc.Ledger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read balance after append")
		return s.toMenu(), mainMenu(KindFailure, saved+"\n⚠️ The current balance could not be loaded right now.")
	}
	return s.toMenu(), mainMenu(KindOK, fmt.Sprintf("%s\n💰 Current balance of %s: %s", saved, acc.Name, ledger.FormatMoney(balance.Total)))
}

func logInvalid(ctx context.Context, s Session, err error) {
	log := logger.FromContext(ctx)
	log.Debug().Err(err).Str("state", s.State.String()).Msg("Rejected input")
}
