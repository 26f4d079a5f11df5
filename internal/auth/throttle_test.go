package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newThrottle(t *testing.T, max int) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginThrottle(client, max, 15*time.Minute, zap.NewNop()), mr
}

func TestLoginThrottleBlocksAfterMaxAttempts(t *testing.T) {
	throttle, _ := newThrottle(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.Attempt(ctx, "Ana@Example.com "))
	}
	assert.False(t, throttle.Attempt(ctx, "ana@example.com"))
	assert.True(t, throttle.Attempt(ctx, "bob@example.com"))
}

func TestLoginThrottleConcurrentBurst(t *testing.T) {
	throttle, _ := newThrottle(t, 3)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if throttle.Attempt(ctx, "ana@example.com") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(3), allowed.Load())
}

func TestLoginThrottleCounterCarriesWindow(t *testing.T) {
	throttle, mr := newThrottle(t, 1)
	ctx := context.Background()

	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))
	ttl := mr.TTL(throttleKey("ana@example.com"))
	assert.Equal(t, 15*time.Minute, ttl)

	// Later attempts must not extend the window.
	mr.FastForward(10 * time.Minute)
	assert.False(t, throttle.Attempt(ctx, "ana@example.com"))
	assert.Equal(t, 5*time.Minute, mr.TTL(throttleKey("ana@example.com")))

	mr.FastForward(6 * time.Minute)
	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))
}

func TestLoginThrottleReset(t *testing.T) {
	throttle, _ := newThrottle(t, 1)
	ctx := context.Background()

	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))
	throttle.Reset(ctx, "ana@example.com")
	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))
}

func TestLoginThrottleFailsOpen(t *testing.T) {
	throttle, mr := newThrottle(t, 1)
	ctx := context.Background()

	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))
	mr.Close()
	assert.True(t, throttle.Attempt(ctx, "ana@example.com"))

	var disabled *LoginThrottle
	assert.True(t, disabled.Attempt(ctx, "ana@example.com"))
	disabled.Reset(ctx, "ana@example.com")
}
