package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 1000

// ThrottleEntry is one failed-login counter as stored in Redis.
type ThrottleEntry struct {
	Kind     string // "user" or "ip"
	Subject  string
	Failures int64
	TTL      time.Duration
	Locked   bool
}

// Entries lists every counter under the limiter prefix, sorted by key.
// Counters that expire during the scan are skipped.
func (l *LoginLimiter) Entries(ctx context.Context) ([]ThrottleEntry, error) {
	keys, err := l.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ThrottleEntry, 0, len(keys))
	for _, key := range keys {
		count, err := l.client.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		kind, subject, _ := strings.Cut(strings.TrimPrefix(key, l.opts.Prefix), ":")
		entries = append(entries, ThrottleEntry{
			Kind:     kind,
			Subject:  subject,
			Failures: count,
			TTL:      ttl,
			Locked:   count >= int64(l.opts.MaxAttempts),
		})
	}
	return entries, nil
}

// Clear deletes every counter under the limiter prefix and returns how many were removed.
func (l *LoginLimiter) Clear(ctx context.Context) (int64, error) {
	keys, err := l.scanKeys(ctx)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	n, err := l.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

func (l *LoginLimiter) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := l.client.Scan(ctx, 0, l.opts.Prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sort.Strings(keys)
	return keys, nil
}
