package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/movielib/internal/ports"
	"github.com/target/movielib/internal/testutil"
)

func TestLoginLimiter_Entries(t *testing.T) {
	client, mr := testutil.SetupMiniRedis(t)
	limiter := NewLoginLimiter(client, LoginLimiterOptions{MaxAttempts: 2, Cooldown: time.Minute, ThrottleIP: true})
	ctx := context.Background()

	require.NoError(t, limiter.Fail(ctx, ports.LoginAttempt{Username: "alice", ClientIP: "::1"}))
	require.NoError(t, limiter.Fail(ctx, ports.LoginAttempt{Username: "alice", ClientIP: "::1"}))
	require.NoError(t, limiter.Fail(ctx, ports.LoginAttempt{Username: "bob"}))
	require.NoError(t, mr.Set("unrelated", "1"))

	entries, err := limiter.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, ThrottleEntry{Kind: "ip", Subject: "::1", Failures: 2, TTL: time.Minute, Locked: true}, entries[0])
	assert.Equal(t, ThrottleEntry{Kind: "user", Subject: "alice", Failures: 2, TTL: time.Minute, Locked: true}, entries[1])
	assert.Equal(t, ThrottleEntry{Kind: "user", Subject: "bob", Failures: 1, TTL: time.Minute, Locked: false}, entries[2])
}

func TestLoginLimiter_Clear(t *testing.T) {
	client, mr := testutil.SetupMiniRedis(t)
	limiter := NewLoginLimiter(client, LoginLimiterOptions{MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	n, err := limiter.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, limiter.Fail(ctx, ports.LoginAttempt{Username: "alice"}))
	require.NoError(t, limiter.Fail(ctx, ports.LoginAttempt{Username: "bob"}))
	require.NoError(t, mr.Set("unrelated", "1"))
	require.ErrorIs(t, limiter.Check(ctx, ports.LoginAttempt{Username: "alice"}), ports.ErrLoginThrottled)

	n, err = limiter.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, limiter.Check(ctx, ports.LoginAttempt{Username: "alice"}))
	assert.True(t, mr.Exists("unrelated"))
}

func TestLoginLimiter_EntriesRedisDown(t *testing.T) {
	client, mr := testutil.SetupMiniRedis(t)
	limiter := NewLoginLimiter(client, LoginLimiterOptions{})
	mr.Close()

	_, err := limiter.Entries(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}
