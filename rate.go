package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// likeLimiter is a fixed-window counter guarding SubmitLike against
// scripted swiping. A nil client disables the limiter.
type likeLimiter struct {
	client *redis.Client
	window time.Duration
	max    int64
}

func newLikeLimiter(client *redis.Client, window time.Duration, max int64) *likeLimiter {
	return &likeLimiter{client: client, window: window, max: max}
}

// Allow increments the caller's window and reports whether the like may
// proceed.
func (l *likeLimiter) Allow(ctx context.Context, userID int) (bool, error) {
	if l == nil || l.client == nil || l.max <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("likes:rate:%d", userID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("set rate key ttl: %w", err)
		}
	}
	return count <= l.max, nil
}
