package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore   = (*FuncSessionStore)(nil)
	_ ports.PasswordHasher = (*PlainHasher)(nil)
	_ ports.LoginLimiter   = (*CountingLimiter)(nil)
)

// ErrInjected is returned by doubles configured to fail.
var ErrInjected = errors.New("injected failure")

// FuncSessionStore delegates each call to an optional function field and
// falls back to an unexpiring in-memory map.
type FuncSessionStore struct {
	GetFunc    func(ctx context.Context, id string) (domainauth.SessionRecord, bool, error)
	SetFunc    func(ctx context.Context, id string, state domainauth.SessionState, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, id string) error
	SweepFunc  func(ctx context.Context, now time.Time) (int, error)

	mu       sync.Mutex
	sessions map[string]domainauth.SessionRecord
	Deleted  []string
}

// NewFuncSessionStore creates an empty FuncSessionStore.
func NewFuncSessionStore() *FuncSessionStore {
	return &FuncSessionStore{sessions: make(map[string]domainauth.SessionRecord)}
}

func (m *FuncSessionStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	return rec, ok, nil
}

func (m *FuncSessionStore) Set(ctx context.Context, id string, state domainauth.SessionState, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, id, state, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = domainauth.SessionRecord{ID: id, State: state.Clone(), ExpiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *FuncSessionStore) Touch(ctx context.Context, id string, state domainauth.SessionState, ttl time.Duration) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.Set(ctx, id, state, ttl)
}

func (m *FuncSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, id)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *FuncSessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx, now)
	}
	return 0, nil
}

// Has reports whether id is stored.
func (m *FuncSessionStore) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// PlainHasher is a fast, insecure PasswordHasher that records calls.
type PlainHasher struct {
	HashErr error

	mu       sync.Mutex
	verified []string
}

func (h *PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "plain:" + password, nil
}

func (h *PlainHasher) Verify(password, stored string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, stored)
	h.mu.Unlock()
	digest, ok := strings.CutPrefix(stored, "plain:")
	return ok && digest == password
}

// Verified returns the stored values passed to Verify, in call order.
func (h *PlainHasher) Verified() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.verified...)
}

// CountingLimiter is an in-memory LoginLimiter keyed by username.
type CountingLimiter struct {
	Max int

	mu       sync.Mutex
	failures map[string]int
}

// NewCountingLimiter creates a limiter that throttles after max failures.
func NewCountingLimiter(maxFailures int) *CountingLimiter {
	return &CountingLimiter{Max: maxFailures, failures: make(map[string]int)}
}

func (l *CountingLimiter) Check(_ context.Context, a ports.LoginAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures[a.Username] >= l.Max {
		return ports.ErrLoginThrottled
	}
	return nil
}

func (l *CountingLimiter) Fail(_ context.Context, a ports.LoginAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[a.Username]++
	return nil
}

func (l *CountingLimiter) Reset(_ context.Context, a ports.LoginAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, a.Username)
	return nil
}

// Failures returns the recorded failure count for username.
func (l *CountingLimiter) Failures(username string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[username]
}
