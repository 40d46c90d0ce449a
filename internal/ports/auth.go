package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/movielib/internal/domain/auth"
)

// SessionStore maps session ids to session records with an absolute expiry.
// Implementations must treat records whose expiry has passed as absent on read,
// regardless of whether a sweep has run.
type SessionStore interface {
	// Get returns the record for id. ok is false when missing or expired.
	Get(ctx context.Context, id string) (rec domainauth.SessionRecord, ok bool, err error)
	// Set replaces the state and expiry for id.
	Set(ctx context.Context, id string, state domainauth.SessionState, ttl time.Duration) error
	// Touch overwrites state and expiry only when id is present; otherwise it is a no-op.
	Touch(ctx context.Context, id string, state domainauth.SessionState, ttl time.Duration) error
	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// Sweep removes every record with expiresAt <= now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SessionSigner mints session ids and binds them to a server-side secret.
type SessionSigner interface {
	GenerateID() (string, error)
	Sign(id string) string
	// Verify must compare in constant time.
	Verify(id, signature string) bool
	// EncodeToken returns the cookie value for id.
	EncodeToken(id string) string
	// DecodeToken splits a cookie value; ok is false when malformed.
	DecodeToken(value string) (id, signature string, ok bool)
}

var (
	// ErrUserNotFound is returned by UserRepository lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by UserRepository.Create on a duplicate username.
	ErrUserExists = errors.New("user already exists")
	// ErrLoginThrottled is returned by LoginLimiter.Check when an attempt is over budget.
	ErrLoginThrottled = errors.New("login attempts exceeded")
)

// UserRepository persists credential records.
type UserRepository interface {
	Create(ctx context.Context, u domainauth.User) (domainauth.User, error)
	GetByUsername(ctx context.Context, username string) (domainauth.User, error)
	GetByID(ctx context.Context, id string) (domainauth.User, error)
}

// PasswordHasher derives and verifies salted password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// LoginAttempt identifies a login attempt for throttling.
type LoginAttempt struct {
	Username string
	ClientIP string
}

// LoginLimiter throttles repeated failed logins.
type LoginLimiter interface {
	// Check returns ErrLoginThrottled when the attempt is over budget.
	Check(ctx context.Context, a LoginAttempt) error
	// Fail records a failed attempt.
	Fail(ctx context.Context, a LoginAttempt) error
	// Reset clears counters after a successful login.
	Reset(ctx context.Context, a LoginAttempt) error
}
