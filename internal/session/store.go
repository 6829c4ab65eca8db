// Package session keeps the dialogue state of every live conversation in
// memory. Sessions are not persisted; a restart starts every conversation
// over at the main menu.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/plata/internal/conversation"
	"github.com/dvloznov/plata/internal/logger"
)

// DefaultIdleTimeout is how long a session may sit untouched before its
// in-progress data is discarded.
const DefaultIdleTimeout = 15 * time.Minute

// expiryRetention is how long Sweep keeps the marker of a discarded
// in-progress session so the next turn can report the expiry.
const expiryRetention = 24 * time.Hour

type entry struct {
	session  conversation.Session
	lastSeen time.Time
	// expired marks a session whose in-progress data was discarded by Sweep
	// and not yet reported by Get.
	expired bool
}

// Store maps conversation ids to sessions. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store that expires sessions idle for longer than ttl.
// A ttl of zero or less disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the store's clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the session for id. An absent session is created fresh at the
// main menu. A session idle past the timeout, or already discarded by Sweep,
// is replaced by a fresh one and expired is true if it held any in-progress
// data.
func (s *Store) Get(id string) (sess conversation.Session, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[id]
	if !ok {
		e = entry{session: conversation.NewSession(), lastSeen: now}
		s.entries[id] = e
		return e.session, false
	}

	switch {
	case e.expired:
		expired = true
		e = entry{session: e.session, lastSeen: now}
		s.entries[id] = e
	case s.idle(e, now):
		expired = hasProgress(e.session)
		e = entry{session: reset(e.session), lastSeen: now}
		s.entries[id] = e
	}
	return e.session, expired
}

// Update stores sess as the current session for id and refreshes its idle
// timer.
func (s *Store) Update(id string, sess conversation.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = entry{session: sess, lastSeen: s.now()}
}

// Clear discards the session for id.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
}

// Len returns the number of tracked conversations, including those whose
// expiry has not been reported yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Sweep discards every idle session and returns how many were discarded.
// Idle sessions at the main menu are evicted. Idle sessions with a movement
// in progress are reduced to an expiry marker that the next Get reports;
// markers are evicted after a day.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	discarded := 0
	for id, e := range s.entries {
		switch {
		case e.expired:
			if now.Sub(e.lastSeen) > expiryRetention {
				delete(s.entries, id)
			}
		case s.idle(e, now):
			if hasProgress(e.session) {
				s.entries[id] = entry{session: reset(e.session), lastSeen: e.lastSeen, expired: true}
			} else {
				delete(s.entries, id)
			}
			discarded++
		}
	}
	return discarded
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	if s.ttl <= 0 || every <= 0 {
		return
	}

	log := logger.FromContext(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("discarded", n).Msg("Discarded idle sessions")
			}
		}
	}
}

func (s *Store) idle(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

func hasProgress(sess conversation.Session) bool {
	return sess.InProgress() || sess.State != conversation.MainMenu
}

// reset returns a fresh main menu session that remembers the greeting.
func reset(sess conversation.Session) conversation.Session {
	fresh := conversation.NewSession()
	fresh.Greeted = sess.Greeted
	return fresh
}
