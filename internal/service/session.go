package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/movielib/internal/data/cryptoutil"
	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/ports"
)

// DefaultSessionMaxAge is used when no max age is configured.
const DefaultSessionMaxAge = 24 * time.Hour

// Resolution describes how a request's session cookie was resolved.
type Resolution int

const (
	// NoCookie means the request carried no session cookie.
	NoCookie Resolution = iota
	// ValidCookie means the cookie verified and named a live session.
	ValidCookie
	// InvalidOrExpiredCookie covers malformed, forged, unknown and expired cookies.
	InvalidOrExpiredCookie
)

func (r Resolution) String() string {
	switch r {
	case NoCookie:
		return "no_cookie"
	case ValidCookie:
		return "valid"
	case InvalidOrExpiredCookie:
		return "invalid_or_expired"
	default:
		return "unknown"
	}
}

// CookieSpec is the session cookie a response must carry.
// A zero MaxAge with an empty Value clears the cookie.
type CookieSpec struct {
	Value  string
	MaxAge time.Duration
}

// Clearing reports whether the cookie removes the session on the client.
func (c CookieSpec) Clearing() bool { return c.Value == "" }

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store  ports.SessionStore  // Required
	Signer ports.SessionSigner // Required
	MaxAge time.Duration       // Optional: default DefaultSessionMaxAge
	Logger *slog.Logger        // Optional
}

// SessionService resolves session cookies into request views and writes
// views back to the store.
type SessionService struct {
	store  ports.SessionStore
	signer ports.SessionSigner
	maxAge time.Duration
	logger *slog.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}
	if opts.Signer == nil {
		return nil, errors.New("SessionSigner is required")
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionService{
		store:  opts.Store,
		signer: opts.Signer,
		maxAge: maxAge,
		logger: logger.With("component", "session_service"),
	}, nil
}

// MaxAge returns the lifetime given to persisted sessions.
func (s *SessionService) MaxAge() time.Duration { return s.maxAge }

// Resolve turns a raw cookie value into a session view. It never fails:
// every problem resolves to a fresh, unbound view.
func (s *SessionService) Resolve(ctx context.Context, cookieValue string) (*domainauth.SessionView, Resolution) {
	if cookieValue == "" {
		return &domainauth.SessionView{}, NoCookie
	}

	id, sig, ok := s.signer.DecodeToken(cookieValue)
	if !ok || !cryptoutil.ValidSessionID(id) {
		s.logger.DebugContext(ctx, "discarding malformed session cookie")
		return &domainauth.SessionView{}, InvalidOrExpiredCookie
	}
	if !s.signer.Verify(id, sig) {
		s.logger.DebugContext(ctx, "discarding session cookie with bad signature", "session", shortID(id))
		return &domainauth.SessionView{}, InvalidOrExpiredCookie
	}

	rec, found, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "session lookup failed", "session", shortID(id), "error", err)
		return &domainauth.SessionView{}, InvalidOrExpiredCookie
	}
	if !found {
		if delErr := s.store.Delete(ctx, id); delErr != nil {
			s.logger.WarnContext(ctx, "stale session cleanup failed", "session", shortID(id), "error", delErr)
		}
		return &domainauth.SessionView{}, InvalidOrExpiredCookie
	}

	return &domainauth.SessionView{ID: id, State: rec.State}, ValidCookie
}

// Persist writes the view's state under its id, binding a new id first if
// the view has none. The returned cookie must only be sent when err is nil.
func (s *SessionService) Persist(ctx context.Context, view *domainauth.SessionView) (CookieSpec, error) {
	if view == nil {
		return CookieSpec{}, errors.New("session view is required")
	}
	if !view.Bound() {
		id, err := s.signer.GenerateID()
		if err != nil {
			return CookieSpec{}, fmt.Errorf("persist session: %w", err)
		}
		view.ID = id
	}

	if err := s.store.Set(ctx, view.ID, view.State, s.maxAge); err != nil {
		return CookieSpec{}, fmt.Errorf("persist session: %w", err)
	}

	return CookieSpec{Value: s.signer.EncodeToken(view.ID), MaxAge: s.maxAge}, nil
}

// Renew drops the view's current id so the next Persist mints a new one.
// The old record is deleted; the state is kept.
func (s *SessionService) Renew(ctx context.Context, view *domainauth.SessionView) error {
	if !view.Bound() {
		return nil
	}
	old := view.ID
	view.ID = ""
	if err := s.store.Delete(ctx, old); err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

// Destroy deletes the bound session and clears the view. The clearing
// cookie is returned even when the store delete fails.
func (s *SessionService) Destroy(ctx context.Context, view *domainauth.SessionView) (CookieSpec, error) {
	if view == nil {
		return CookieSpec{}, nil
	}
	var err error
	if view.Bound() {
		if delErr := s.store.Delete(ctx, view.ID); delErr != nil {
			err = fmt.Errorf("destroy session: %w", delErr)
		}
	}
	view.Reset()
	return CookieSpec{}, err
}

// shortID truncates a session id for logs.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
