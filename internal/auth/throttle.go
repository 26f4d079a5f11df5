package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const throttleKeyPrefix = "portal:login:attempts:"

// LoginThrottle counts login attempts per email in Redis. A Redis outage
// never blocks a login.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginThrottle returns a throttle; a nil client or non-positive maxAttempts disables it.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

func throttleKey(email string) string {
	return throttleKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Attempt counts one login attempt for email and reports whether it may
// proceed. The counter is created with its window TTL in the same
// transaction as the increment, so concurrent attempts each see a distinct
// count and a counter never outlives its window.
func (t *LoginThrottle) Attempt(ctx context.Context, email string) bool {
	if !t.enabled() {
		return true
	}
	key := throttleKey(email)

	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, t.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		t.logger.Warn("login throttle update failed", zap.Error(err))
		return true
	}
	return incr.Val() <= int64(t.maxAttempts)
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if !t.enabled() {
		return
	}
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}
