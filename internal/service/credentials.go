package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/movielib/internal/ports"
	"golang.org/x/sync/semaphore"
)

// DefaultHashWorkers bounds concurrent key derivations when no size is configured.
const DefaultHashWorkers = 4

// CredentialServiceOptions groups dependencies for CredentialService.
type CredentialServiceOptions struct {
	Hasher  ports.PasswordHasher // Required
	Workers int                  // Optional: concurrent derivations (default DefaultHashWorkers)
	Logger  *slog.Logger         // Optional
}

// CredentialService runs password hashing on a bounded pool so a burst of
// logins cannot monopolise every CPU serving other requests.
type CredentialService struct {
	hasher ports.PasswordHasher
	slots  *semaphore.Weighted
	logger *slog.Logger
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(opts CredentialServiceOptions) (*CredentialService, error) {
	if opts.Hasher == nil {
		return nil, errors.New("PasswordHasher is required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultHashWorkers
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CredentialService{
		hasher: opts.Hasher,
		slots:  semaphore.NewWeighted(int64(workers)),
		logger: logger.With("component", "credential_service"),
	}, nil
}

// Hash derives a salted digest for password once a worker slot is free.
func (s *CredentialService) Hash(ctx context.Context, password string) (string, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer s.slots.Release(1)

	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.ErrorContext(ctx, "password hash failed", "error", err)
		return "", fmt.Errorf("hash password: %w", err)
	}
	return digest, nil
}

// Verify checks password against stored. A malformed stored value is a
// mismatch, not an error; the only error is a cancelled wait for a slot.
func (s *CredentialService) Verify(ctx context.Context, password, stored string) (bool, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer s.slots.Release(1)

	return s.hasher.Verify(password, stored), nil
}
