package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/plata/internal/conversation"
	"github.com/dvloznov/plata/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.SetClock(clock.Now)
	return s, clock
}

func inProgress() conversation.Session {
	s := conversation.NewSession()
	s.State = conversation.DescriptionEntry
	s.Account = &domain.Account{Name: "Personal", Ledger: "Personal-Cris"}
	s.Greeted = true
	_ = s.Movement.SetDirection("1")
	return s
}

func TestStore_GetCreatesFreshSession(t *testing.T) {
	s, _ := newTestStore(DefaultIdleTimeout)

	sess, expired := s.Get("chat-1")

	assert.False(t, expired)
	assert.Equal(t, conversation.NewSession(), sess)
	assert.Equal(t, 1, s.Len())
}

func TestStore_UpdateAndGet(t *testing.T) {
	s, _ := newTestStore(DefaultIdleTimeout)
	want := inProgress()

	s.Update("chat-1", want)
	got, expired := s.Get("chat-1")

	assert.False(t, expired)
	assert.Equal(t, want, got)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(DefaultIdleTimeout)

	s.Update("a", inProgress())
	got, _ := s.Get("b")

	assert.Equal(t, conversation.MainMenu, got.State)
	assert.False(t, got.InProgress())
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(DefaultIdleTimeout)
	s.Update("chat-1", inProgress())

	s.Clear("chat-1")
	got, expired := s.Get("chat-1")

	assert.False(t, expired)
	assert.Equal(t, conversation.NewSession(), got)
}

func TestStore_IdleSessionExpires(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("chat-1", inProgress())

	clock.Advance(16 * time.Minute)
	got, expired := s.Get("chat-1")

	assert.True(t, expired)
	assert.Equal(t, conversation.MainMenu, got.State)
	assert.False(t, got.InProgress())
	assert.True(t, got.Greeted)
}

func TestStore_ActivityRefreshesTimer(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("chat-1", inProgress())

	clock.Advance(10 * time.Minute)
	sess, _ := s.Get("chat-1")
	s.Update("chat-1", sess)
	clock.Advance(10 * time.Minute)

	got, expired := s.Get("chat-1")
	assert.False(t, expired)
	assert.Equal(t, conversation.DescriptionEntry, got.State)
}

func TestStore_IdleMenuSessionIsNotReportedExpired(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("chat-1", conversation.NewSession())

	clock.Advance(time.Hour)
	_, expired := s.Get("chat-1")

	assert.False(t, expired)
}

func TestStore_ZeroTTLDisablesExpiry(t *testing.T) {
	s, clock := newTestStore(0)
	s.Update("chat-1", inProgress())

	clock.Advance(24 * time.Hour)
	got, expired := s.Get("chat-1")

	assert.False(t, expired)
	assert.Equal(t, conversation.DescriptionEntry, got.State)
	assert.Equal(t, 0, s.Sweep())
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("idle-menu", conversation.NewSession())
	s.Update("old", inProgress())
	clock.Advance(20 * time.Minute)
	s.Update("new", inProgress())

	discarded := s.Sweep()

	assert.Equal(t, 2, discarded)
	assert.Equal(t, 2, s.Len())

	_, expired := s.Get("idle-menu")
	assert.False(t, expired)
}

func TestStore_SweptSessionIsReportedExpired(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("chat-1", inProgress())
	clock.Advance(16 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	got, expired := s.Get("chat-1")

	assert.True(t, expired)
	assert.Equal(t, conversation.MainMenu, got.State)
	assert.False(t, got.InProgress())
	assert.True(t, got.Greeted)

	_, expired = s.Get("chat-1")
	assert.False(t, expired)
}

func TestStore_SweepDropsOldExpiryMarkers(t *testing.T) {
	s, clock := newTestStore(15 * time.Minute)
	s.Update("chat-1", inProgress())
	clock.Advance(16 * time.Minute)
	s.Sweep()
	assert.Equal(t, 1, s.Len())

	clock.Advance(25 * time.Hour)
	assert.Equal(t, 0, s.Sweep())

	assert.Equal(t, 0, s.Len())
	_, expired := s.Get("chat-1")
	assert.False(t, expired)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(DefaultIdleTimeout)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"a", "b", "c"}[i%3]
			sess, _ := s.Get(id)
			s.Update(id, sess)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, s.Len())
}
