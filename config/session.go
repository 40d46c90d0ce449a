package config

import (
	"strings"
	"time"
)

// SessionConfig contains session cookie and store configuration.
type SessionConfig struct {
	// Secret keys the cookie signatures. When empty a random secret is
	// generated at start and sessions do not survive a restart.
	Secret string `env:"SESSION_SECRET"`

	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"movielib_session"`

	// MaxAge is both the cookie Max-Age and the store TTL.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	// SweepInterval is how often expired records are reclaimed.
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "movielib_session"
	}
	if s.MaxAge <= 0 {
		s.MaxAge = 24 * time.Hour
	}
	// cookies carry Max-Age in whole seconds
	if s.MaxAge < time.Second {
		s.MaxAge = time.Second
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = time.Hour
	}
}
