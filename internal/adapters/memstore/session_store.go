// Package memstore provides in-process adapters for the movielib system.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("session store closed")

// SessionStore is a mutex-guarded session table held in process memory.
// Expiry is enforced on every read; Sweep only reclaims memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.SessionRecord
	closed   bool
	now      func() time.Time
}

// Options configures a SessionStore.
type Options struct {
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore(opts Options) *SessionStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]domainauth.SessionRecord),
		now:      now,
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.SessionRecord, bool, error) {
	if id == "" {
		return domainauth.SessionRecord{}, false, nil
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domainauth.SessionRecord{}, false, ErrStoreClosed
	}
	rec, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || rec.Expired(s.now()) {
		return domainauth.SessionRecord{}, false, nil
	}
	rec.State = rec.State.Clone()
	return rec, true, nil
}

func (s *SessionStore) Set(_ context.Context, id string, state domainauth.SessionState, ttl time.Duration) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.sessions[id] = domainauth.SessionRecord{
		ID:        id,
		State:     state.Clone(),
		ExpiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *SessionStore) Touch(_ context.Context, id string, state domainauth.SessionState, ttl time.Duration) error {
	if id == "" || ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.sessions[id]
	now := s.now()
	if !ok || rec.Expired(now) {
		return nil
	}
	s.sessions[id] = domainauth.SessionRecord{
		ID:        id,
		State:     state.Clone(),
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	removed := 0
	for id, rec := range s.sessions {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if rec.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops all records. Subsequent calls fail with ErrStoreClosed.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}
