package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safecoin/interest-api/binder"
)

var errTooManySessions = errors.New("too many open sessions")

type session struct {
	binder   *binder.Binder
	lastSeen time.Time
}

// Sessions holds one binder per open interest view. Sessions that are not
// used for ttl are dropped by Sweep.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]*session
	newBinder func() *binder.Binder
	ttl       time.Duration
	max       int
	now       func() time.Time
}

func NewSessions(newBinder func() *binder.Binder, ttl time.Duration, max int) *Sessions {
	return &Sessions{
		sessions:  make(map[string]*session),
		newBinder: newBinder,
		ttl:       ttl,
		max:       max,
		now:       time.Now,
	}
}

// Create opens a session. It fails when max sessions are open even after
// dropping the expired ones.
func (s *Sessions) Create() (string, *binder.Binder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.sessions) >= s.max {
		s.sweep()
		if len(s.sessions) >= s.max {
			return "", nil, errTooManySessions
		}
	}

	id := uuid.NewString()
	b := s.newBinder()
	s.sessions[id] = &session{binder: b, lastSeen: s.now()}

	return id, b, nil
}

// Get returns the binder of a session and marks it as used.
func (s *Sessions) Get(id string) (*binder.Binder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.binder, true
}

// Delete removes a session and returns its binder.
func (s *Sessions) Delete(id string) (*binder.Binder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	delete(s.sessions, id)
	return sess.binder, true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops the sessions idle for longer than the ttl and returns how many
// were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep()
}

func (s *Sessions) sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	deadline := s.now().Add(-s.ttl)
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(deadline) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration, onSweep func(dropped int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := s.Sweep(); dropped > 0 && onSweep != nil {
				onSweep(dropped)
			}
		}
	}
}
