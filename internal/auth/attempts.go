package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// AttemptTracker throttles repeated failed logins for the same account key.
type AttemptTracker interface {
	// Check returns domain.ErrTooManyAttempts once the key is locked out.
	Check(ctx context.Context, key string) error
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisAttemptTracker counts failures in a fixed window stored in Redis.
type RedisAttemptTracker struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisAttemptTracker builds a tracker. A non-positive limit disables throttling.
func NewRedisAttemptTracker(client *redis.Client, limit int, window time.Duration) *RedisAttemptTracker {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisAttemptTracker{client: client, limit: limit, window: window}
}

func (t *RedisAttemptTracker) Check(ctx context.Context, key string) error {
	if t.limit <= 0 {
		return nil
	}
	count, err := t.client.Get(ctx, attemptKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read login attempts: %w", err)
	}
	if count >= t.limit {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (t *RedisAttemptTracker) RecordFailure(ctx context.Context, key string) error {
	if t.limit <= 0 {
		return nil
	}
	redisKey := attemptKey(key)
	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, t.window).Err(); err != nil {
			return fmt.Errorf("expire login attempts: %w", err)
		}
	}
	return nil
}

func (t *RedisAttemptTracker) Reset(ctx context.Context, key string) error {
	if t.limit <= 0 {
		return nil
	}
	return t.client.Del(ctx, attemptKey(key)).Err()
}

func attemptKey(key string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(key))
}

// NoopAttemptTracker never throttles. Used when Redis is not configured.
type NoopAttemptTracker struct{}

func (NoopAttemptTracker) Check(context.Context, string) error         { return nil }
func (NoopAttemptTracker) RecordFailure(context.Context, string) error { return nil }
func (NoopAttemptTracker) Reset(context.Context, string) error         { return nil }
