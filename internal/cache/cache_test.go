package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "AttendTrack/storage/redis"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, redisstore.NewKeyBuilder("test"), time.Hour), mr
}

func TestRefreshTokenLifecycle(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.ValidateRefreshTokenExists(ctx, 7, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetRefreshToken(ctx, 7, "tok-1"))
	assert.True(t, mr.Exists("test:token:refresh:7"))
	assert.Equal(t, time.Hour, mr.TTL("test:token:refresh:7"))

	ok, err = c.ValidateRefreshTokenExists(ctx, 7, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// 新令牌覆盖旧令牌
	require.NoError(t, c.SetRefreshToken(ctx, 7, "tok-2"))
	ok, err = c.ValidateRefreshTokenExists(ctx, 7, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.DeleteRefreshToken(ctx, 7))
	ok, err = c.ValidateRefreshTokenExists(ctx, 7, "tok-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryLock(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "backfill:2024-03-01", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "backfill:2024-03-01", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "backfill:2024-03-01"))
	ok, err = c.TryLock(ctx, "backfill:2024-03-01", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMessageMarkers(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.TryMarkMessageProcessing(ctx, "m1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryMarkMessageProcessing(ctx, "m1", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.MarkMessageProcessed(ctx, "m1", 0))
	v, err := mr.Get("test:message:processed:m1")
	require.NoError(t, err)
	assert.Equal(t, "completed", v)

	require.NoError(t, c.UnmarkMessageProcessing(ctx, "m1"))
	ok, err = c.TryMarkMessageProcessing(ctx, "m1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 2, 10*time.Second)
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	assert.ErrorIs(t, cb.Call(func() error { called = true; return nil }), ErrBreakerOpen)
	assert.False(t, called)

	now = now.Add(11 * time.Second)
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 1, time.Second)
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	_ = cb.Call(func() error { return boom })
	assert.Equal(t, StateOpen, cb.GetState())

	now = now.Add(2 * time.Second)
	_ = cb.Call(func() error { return boom })
	assert.Equal(t, StateOpen, cb.GetState())
}
