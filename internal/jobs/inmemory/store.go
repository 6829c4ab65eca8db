package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/plata/internal/jobs"
)

// ErrJobNotFound is returned by GetJob for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// Store is an in-memory JobStore. It is safe for concurrent use and keeps at
// most a fixed number of turns, dropping the oldest first.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*jobs.TurnJob
	order []string
	max   int
}

// NewStore creates a store that remembers up to max turns (0 = unbounded).
func NewStore(max int) *Store {
	return &Store{
		jobs: make(map[string]*jobs.TurnJob),
		max:  max,
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.TurnJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; !exists {
		s.order = append(s.order, job.JobID)
	}
	s.jobs[job.JobID] = copyJob(job)

	for s.max > 0 && len(s.order) > s.max {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.TurnJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return copyJob(job), nil
}

// ListJobs implements the JobStore interface.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.TurnJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.TurnJob{}
	for _, id := range s.order {
		job := s.jobs[id]
		if filter.ConversationID != "" && job.ConversationID != filter.ConversationID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		result = append(result, copyJob(job))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.TurnJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// copyJob returns a copy that shares nothing mutable with job.
func copyJob(job *jobs.TurnJob) *jobs.TurnJob {
	c := *job
	if job.Reply != nil {
		r := *job.Reply
		c.Reply = &r
	}
	return &c
}

var _ jobs.JobStore = (*Store)(nil)
