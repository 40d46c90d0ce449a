// Package redis provides Redis-based adapters for the movielib system.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/movielib/internal/ports"
)

var (
	_ ports.LoginLimiter = (*LoginLimiter)(nil)
	_ ports.LoginLimiter = NoopLoginLimiter{}
)

// ErrUnavailable wraps Redis failures surfaced by the limiter.
var ErrUnavailable = errors.New("redis unavailable")

const (
	DefaultLoginMaxAttempts = 10
	DefaultLoginCooldown    = 15 * time.Minute
	defaultKeyPrefix        = "movielib:login:"
)

// LoginLimiterOptions configures a LoginLimiter.
type LoginLimiterOptions struct {
	// MaxAttempts is the number of failures allowed inside one cooldown window.
	MaxAttempts int
	// Cooldown is the fixed window length; counters expire after it.
	Cooldown time.Duration
	// ThrottleIP also counts failures per client IP.
	ThrottleIP bool
	// Prefix namespaces keys. Defaults to "movielib:login:".
	Prefix string
}

// LoginLimiter counts failed logins per username and per client IP with
// fixed-window Redis counters.
type LoginLimiter struct {
	client redis.UniversalClient
	opts   LoginLimiterOptions
}

// NewLoginLimiter creates a LoginLimiter backed by client.
func NewLoginLimiter(client redis.UniversalClient, opts LoginLimiterOptions) *LoginLimiter {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultLoginMaxAttempts
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultLoginCooldown
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultKeyPrefix
	}
	return &LoginLimiter{client: client, opts: opts}
}

// Check returns ports.ErrLoginThrottled once either counter reached MaxAttempts.
func (l *LoginLimiter) Check(ctx context.Context, a ports.LoginAttempt) error {
	for _, key := range l.keys(a) {
		count, err := l.client.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count >= int64(l.opts.MaxAttempts) {
			return ports.ErrLoginThrottled
		}
	}
	return nil
}

// Fail records a failed attempt against every counter for a.
func (l *LoginLimiter) Fail(ctx context.Context, a ports.LoginAttempt) error {
	for _, key := range l.keys(a) {
		if err := l.incrementWithTTL(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the counters for a after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, a ports.LoginAttempt) error {
	keys := l.keys(a)
	if len(keys) == 0 {
		return nil
	}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// incrementWithTTL sets the expiry only on the first hit so the window is fixed.
func (l *LoginLimiter) incrementWithTTL(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.opts.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (l *LoginLimiter) keys(a ports.LoginAttempt) []string {
	keys := make([]string, 0, 2)
	if u := strings.ToLower(strings.TrimSpace(a.Username)); u != "" {
		keys = append(keys, l.opts.Prefix+"user:"+u)
	}
	if l.opts.ThrottleIP && a.ClientIP != "" {
		keys = append(keys, l.opts.Prefix+"ip:"+a.ClientIP)
	}
	return keys
}

// NoopLoginLimiter never throttles. Used when Redis is disabled.
type NoopLoginLimiter struct{}

func (NoopLoginLimiter) Check(context.Context, ports.LoginAttempt) error { return nil }
func (NoopLoginLimiter) Fail(context.Context, ports.LoginAttempt) error  { return nil }
func (NoopLoginLimiter) Reset(context.Context, ports.LoginAttempt) error { return nil }
