// Package telegram connects the conversation engine to a Telegram bot using
// long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dvloznov/plata/internal/jobs"
	"github.com/dvloznov/plata/internal/logger"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot publishes every inbound text message as a turn and sends the reply once
// the turn has been processed.
type Bot struct {
	api         API
	publisher   jobs.Publisher
	handle      jobs.TurnHandler
	pollTimeout int
}

// NewAPI logs in with token.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("NewAPI: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// New creates a Bot. handle processes a turn and must set its Reply.
func New(api API, publisher jobs.Publisher, handle jobs.TurnHandler, pollTimeout int) *Bot {
	return &Bot{
		api:         api,
		publisher:   publisher,
		handle:      handle,
		pollTimeout: pollTimeout,
	}
}

// Run polls for updates until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	log.Info().Int("poll_timeout", b.pollTimeout).Msg("Polling Telegram for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	log := logger.FromContext(ctx)

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.Text == "" {
		log.Debug().Int("update_id", update.UpdateID).Msg("Ignoring non-text message")
		return
	}

	job := &jobs.TurnJob{
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:           msg.Text,
	}
	if err := b.publisher.Publish(ctx, job); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to publish turn")
	}
}

// HandleJob runs the turn and sends its reply to the chat the turn came from.
func (b *Bot) HandleJob(ctx context.Context, job *jobs.TurnJob) error {
	chatID, err := strconv.ParseInt(job.ConversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("HandleJob: conversation %q is not a chat id: %w", job.ConversationID, err)
	}

	if err := b.handle(ctx, job); err != nil {
		return fmt.Errorf("HandleJob: %w", err)
	}
	if job.Reply == nil {
		return fmt.Errorf("HandleJob: turn produced no reply")
	}

	if _, err := b.api.Send(Render(chatID, *job.Reply)); err != nil {
		return fmt.Errorf("HandleJob: sending reply: %w", err)
	}
	return nil
}
