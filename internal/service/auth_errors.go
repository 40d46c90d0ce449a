package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/target/movielib/internal/errors"
	"github.com/target/movielib/internal/ports"
)

var (
	// ErrInvalidCredentials is the single failure returned for unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound is returned when a session principal no longer exists.
	ErrUserNotFound = ports.ErrUserNotFound
	// ErrTooManyAttempts is returned when the login throttle rejects an attempt.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrStoreUnavailable wraps failures of a backing store or the hashing pool.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports rejected registration input.
type ValidationError struct {
	Details []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Details) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) add(detail string) {
	e.Details = append(e.Details, detail)
}

func (e *ValidationError) orNil() error {
	if len(e.Details) == 0 {
		return nil
	}
	return e
}

// unavailableError keeps the cause for logs while matching ErrStoreUnavailable.
type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string { return e.op + ": " + e.err.Error() }

func (e *unavailableError) Unwrap() []error { return []error{ErrStoreUnavailable, e.err} }

func unavailable(op string, err error) error {
	return &unavailableError{op: op, err: err}
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isStoreOutage reports whether a repository error means the backing store
// could not answer, as opposed to rejecting the operation.
func isStoreOutage(err error) bool {
	return apperrors.IsUnavailable(err) ||
		apperrors.IsTimeout(err) ||
		apperrors.IsCanceled(err) ||
		isContextCancellation(err)
}

// repositoryError maps a user repository failure: outages match
// ErrStoreUnavailable, everything else is wrapped with op and surfaces as internal.
func repositoryError(op string, err error) error {
	if isStoreOutage(err) {
		return unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
