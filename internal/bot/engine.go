// Package bot drives conversations: it loads a session, runs one turn of the
// state machine and stores the result. Transports call it per inbound message.
package bot

import (
	"context"

	"github.com/dvloznov/plata/internal/conversation"
	"github.com/dvloznov/plata/internal/jobs"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/session"
)

const expiredNotice = "⌛ Your previous session expired after a period of inactivity and the unfinished movement was discarded."

// Engine runs turns against a session store. Turns of the same conversation
// must not run concurrently; the dispatcher queue guarantees that.
type Engine struct {
	machine  *conversation.Machine
	sessions *session.Store
}

// NewEngine creates an Engine.
func NewEngine(machine *conversation.Machine, sessions *session.Store) *Engine {
	return &Engine{machine: machine, sessions: sessions}
}

// HandleTurn processes one message and returns the reply to send back.
func (e *Engine) HandleTurn(ctx context.Context, conversationID, text string) conversation.Reply {
	log := logger.FromContext(ctx).With().Str("conversation_id", conversationID).Logger()
	ctx = logger.WithContext(ctx, log)

	current, expired := e.sessions.Get(conversationID)
	if expired {
		e.sessions.Update(conversationID, current)
		log.Info().Msg("Session expired, returning to main menu")
		return conversation.MenuReply(conversation.KindOK, expiredNotice)
	}

	next, reply := e.machine.Handle(ctx, current, text)
	if reply.End {
		e.sessions.Clear(conversationID)
	} else {
		e.sessions.Update(conversationID, next)
	}

	log.Info().
		Str("from", current.State.String()).
		Str("to", next.State.String()).
		Str("kind", reply.Kind.String()).
		Msg("Turn handled")

	return reply
}

// HandleJob adapts HandleTurn to the dispatcher's TurnHandler signature.
func (e *Engine) HandleJob(ctx context.Context, job *jobs.TurnJob) error {
	log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()
	reply := e.HandleTurn(logger.WithContext(ctx, log), job.ConversationID, job.Text)
	job.Reply = &reply
	return nil
}

// Accounts exposes the configured accounts for transports that list them.
func (e *Engine) Accounts() []string {
	accounts := e.machine.Accounts()
	names := make([]string, len(accounts))
	for i, acc := range accounts {
		names[i] = acc.Name
	}
	return names
}
