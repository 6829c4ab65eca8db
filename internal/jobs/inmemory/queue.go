package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/plata/internal/jobs"
	"github.com/dvloznov/plata/internal/logger"
)

// DefaultMaxPending is the per-conversation backlog used when NewQueue gets
// zero.
const DefaultMaxPending = 20

// ErrQueueClosed is returned when a turn is offered after Stop.
var ErrQueueClosed = errors.New("queue is closed")

// ErrConversationBusy is returned when a conversation already has the
// maximum number of turns waiting.
var ErrConversationBusy = errors.New("too many pending turns for conversation")

// envelope carries a turn to its lane. done is closed once the turn has been
// processed; it is nil for fire-and-forget turns.
type envelope struct {
	job  *jobs.TurnJob
	done chan struct{}
}

// lane is the backlog of one conversation. A lane exists only while it has
// pending turns or a goroutine draining it.
type lane struct {
	pending []envelope
}

// Queue is an in-memory turn dispatcher. Every active conversation gets its
// own goroutine, started on its first turn and exiting once its backlog is
// empty, so turns of one conversation run in arrival order and a slow turn
// never holds up another conversation.
// It is safe for concurrent use.
type Queue struct {
	mu         sync.Mutex
	lanes      map[string]*lane
	maxPending int
	store      jobs.JobStore

	ctx     context.Context
	handler jobs.TurnHandler
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewQueue creates a queue. maxPending bounds the turns one conversation may
// have waiting. store may be nil.
func NewQueue(maxPending int, store jobs.JobStore) *Queue {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Queue{
		lanes:      make(map[string]*lane),
		maxPending: maxPending,
		store:      store,
	}
}

// Publish implements the Publisher interface. It enqueues the turn and
// returns without waiting for it. It never blocks on other conversations.
func (q *Queue) Publish(ctx context.Context, job *jobs.TurnJob) error {
	return q.enqueue(ctx, envelope{job: job})
}

// Submit implements the Submitter interface. It enqueues the turn and waits
// until it has been processed or ctx is done. On ctx expiry the returned job
// still carries its JobID so the caller can look it up later.
func (q *Queue) Submit(ctx context.Context, job *jobs.TurnJob) (*jobs.TurnJob, error) {
	env := envelope{job: job, done: make(chan struct{})}
	if err := q.enqueue(ctx, env); err != nil {
		return nil, err
	}

	select {
	case <-env.done:
		return job, nil
	case <-ctx.Done():
		return &jobs.TurnJob{JobID: job.JobID, ConversationID: job.ConversationID}, ctx.Err()
	}
}

func (q *Queue) enqueue(ctx context.Context, env envelope) error {
	job := env.job
	if job.ConversationID == "" {
		return fmt.Errorf("conversation ID is required")
	}
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	l, ok := q.lanes[job.ConversationID]
	if !ok {
		l = &lane{}
		q.lanes[job.ConversationID] = l
		if q.started {
			q.wg.Add(1)
			go q.drain(job.ConversationID, l)
		}
	}
	if len(l.pending) >= q.maxPending {
		return ErrConversationBusy
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}
	l.pending = append(l.pending, env)
	return nil
}

// Start implements the Consumer interface. Turns published before Start are
// processed from here on.
func (q *Queue) Start(ctx context.Context, handler jobs.TurnHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true
	q.ctx = ctx
	q.handler = handler

	for id, l := range q.lanes {
		q.wg.Add(1)
		go q.drain(id, l)
	}
	return nil
}

// drain processes one conversation's backlog in order. The lane is removed
// under the same lock enqueue appends under, so no turn is left behind.
func (q *Queue) drain(conversationID string, l *lane) {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(l.pending) == 0 {
			delete(q.lanes, conversationID)
			q.mu.Unlock()
			return
		}
		env := l.pending[0]
		l.pending = l.pending[1:]
		q.mu.Unlock()

		q.processJob(q.ctx, env, q.handler)
	}
}

// processJob runs a single turn. A panicking handler fails the turn without
// stopping its conversation.
func (q *Queue) processJob(ctx context.Context, env envelope, handler jobs.TurnHandler) {
	job := env.job
	if env.done != nil {
		defer close(env.done)
	}

	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := q.run(ctx, job, handler)

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()

		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("job_id", job.JobID).
			Str("conversation_id", job.ConversationID).
			Msg("Turn failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

func (q *Queue) run(ctx context.Context, job *jobs.TurnJob, handler jobs.TurnHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

// Stop implements the Consumer interface. It stops accepting turns, lets
// every conversation finish its backlog and waits for them or for ctx. If the
// queue was never started, waiting turns are failed instead.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	if !q.started {
		q.abandon(ctx)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// abandon fails every waiting turn. Callers hold q.mu.
func (q *Queue) abandon(ctx context.Context) {
	now := time.Now()
	for id, l := range q.lanes {
		for _, env := range l.pending {
			env.job.Status = jobs.JobStatusFailed
			env.job.Error = ErrQueueClosed.Error()
			env.job.CompletedAt = &now
			if q.store != nil {
				_ = q.store.SaveJob(ctx, env.job)
			}
			if env.done != nil {
				close(env.done)
			}
		}
		delete(q.lanes, id)
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Submitter = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
