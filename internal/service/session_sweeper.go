package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/movielib/internal/ports"
)

// DefaultSweepInterval is used when no sweep interval is configured.
const DefaultSweepInterval = time.Hour

// SessionSweeperOptions groups dependencies for SessionSweeper.
type SessionSweeperOptions struct {
	Store    ports.SessionStore // Required
	Interval time.Duration      // Optional: default DefaultSweepInterval
	Logger   *slog.Logger       // Optional
	Now      func() time.Time   // Optional: clock override for tests
}

// SessionSweeper periodically reclaims expired session records. Reads
// already ignore expired records, so a skipped or late sweep only costs memory.
type SessionSweeper struct {
	store    ports.SessionStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionSweeper constructs a SessionSweeper.
func NewSessionSweeper(opts SessionSweeperOptions) (*SessionSweeper, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionSweeper{
		store:    opts.Store,
		interval: interval,
		logger:   logger.With("component", "session_sweeper"),
		now:      now,
	}, nil
}

// Run sweeps on every tick until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled).
func (s *SessionSweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting session sweeper", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and returns the number of removed records.
// Failures are logged; the next tick tries again.
func (s *SessionSweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		if !isContextCancellation(err) {
			s.logger.WarnContext(ctx, "session sweep failed", "error", err)
		}
		return removed
	}
	if removed > 0 {
		s.logger.DebugContext(ctx, "swept expired sessions", "count", removed)
	}
	return removed
}
