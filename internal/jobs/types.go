// Package jobs defines the unit of work that carries one inbound chat message
// through the dispatcher, plus the interfaces queue implementations satisfy.
package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/plata/internal/conversation"
)

// JobStatus represents the current status of a turn.
type JobStatus string

const (
	// JobStatusPending indicates the turn is waiting behind earlier turns of its conversation.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the turn is being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the turn produced a reply.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the handler returned an error.
	JobStatusFailed JobStatus = "failed"
)

// TurnJob is one inbound message for one conversation. Turns are never
// retried: replaying a turn would replay its state transition.
type TurnJob struct {
	// JobID is the unique identifier for this turn.
	JobID string `json:"job_id"`

	// ConversationID identifies the chat the message came from.
	ConversationID string `json:"conversation_id"`

	// Text is the raw message text.
	Text string `json:"text"`

	// Status is the current status of the turn.
	Status JobStatus `json:"status"`

	// CreatedAt is when the turn was enqueued.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when processing began.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when processing finished (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the turn failed.
	Error string `json:"error,omitempty"`

	// Reply is set by the handler once the turn has been processed.
	Reply *conversation.Reply `json:"reply,omitempty"`
}

// Publisher enqueues turns without waiting for them.
type Publisher interface {
	// Publish enqueues a turn for asynchronous processing.
	Publish(ctx context.Context, job *TurnJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Submitter enqueues a turn and waits for it to be processed.
type Submitter interface {
	Submit(ctx context.Context, job *TurnJob) (*TurnJob, error)
}

// Consumer runs turns from a queue.
type Consumer interface {
	// Start begins consuming turns. The handler is called once per turn.
	Start(ctx context.Context, handler TurnHandler) error

	// Stop stops consuming and waits for in-flight turns to complete.
	Stop(ctx context.Context) error
}

// TurnHandler processes a turn and sets job.Reply.
type TurnHandler func(ctx context.Context, job *TurnJob) error

// JobStore records turn status so it can be inspected after the fact.
type JobStore interface {
	// SaveJob saves or updates a turn's state.
	SaveJob(ctx context.Context, job *TurnJob) error

	// GetJob retrieves a turn by ID.
	GetJob(ctx context.Context, jobID string) (*TurnJob, error)

	// ListJobs retrieves turns with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*TurnJob, error)
}

// JobFilter defines filtering criteria for listing turns.
type JobFilter struct {
	// ConversationID filters turns by conversation.
	ConversationID string

	// Status filters turns by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
