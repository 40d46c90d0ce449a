package data

import apperrors "github.com/target/movielib/internal/errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrDBNotConfigured is returned when a repository or migration runs without a database handle.
	// It carries the unavailable code so callers treat it like an unreachable database.
	ErrDBNotConfigured error = &apperrors.AppError{Code: apperrors.ErrCodeUnavailable, Message: "database not configured"}
)
