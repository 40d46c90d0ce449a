package config

import (
	"fmt"
	"strings"
	"time"
)

// UserStore selects the user repository backend.
type UserStore string

const (
	// UserStorePostgres keeps users in the PostgreSQL users table.
	UserStorePostgres UserStore = "postgres"
	// UserStoreMemory keeps users in process memory (development only).
	UserStoreMemory UserStore = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for UserStore.
func (u *UserStore) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "postgres", "memory":
		*u = UserStore(v)
		return nil
	default:
		return fmt.Errorf("invalid UserStore: %q (valid options: postgres, memory)", v)
	}
}

const (
	minHashIterations = 10000
	minHashWorkers    = 1
)

// AuthConfig contains credential and login configuration.
type AuthConfig struct {
	// UserStore selects where accounts are persisted.
	UserStore UserStore `env:"AUTH_USER_STORE" envDefault:"postgres"`

	// HashWorkers bounds concurrent password derivations.
	HashWorkers int `env:"AUTH_HASH_WORKERS" envDefault:"4"`

	// HashIterations is the PBKDF2 iteration count. Values below 10000 are raised.
	HashIterations int `env:"AUTH_HASH_ITERATIONS" envDefault:"10000"`

	LoginThrottle LoginThrottleConfig
}

// LoginThrottleConfig controls Redis-backed failed-login counting.
type LoginThrottleConfig struct {
	Enabled     bool          `env:"AUTH_LOGIN_THROTTLE_ENABLED" envDefault:"true"`
	MaxAttempts int           `env:"AUTH_LOGIN_MAX_ATTEMPTS"     envDefault:"10"`
	Cooldown    time.Duration `env:"AUTH_LOGIN_COOLDOWN"         envDefault:"15m"`
	// ThrottleIP additionally counts failures per client address.
	ThrottleIP bool `env:"AUTH_LOGIN_THROTTLE_IP" envDefault:"true"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.UserStore == "" {
		a.UserStore = UserStorePostgres
	}
	if a.HashWorkers < minHashWorkers {
		a.HashWorkers = minHashWorkers
	}
	if a.HashIterations < minHashIterations {
		a.HashIterations = minHashIterations
	}
	if a.LoginThrottle.MaxAttempts <= 0 {
		a.LoginThrottle.MaxAttempts = 10
	}
	if a.LoginThrottle.Cooldown <= 0 {
		a.LoginThrottle.Cooldown = 15 * time.Minute
	}
}
