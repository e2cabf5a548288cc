package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowLimiter is a fixed-window counter shared by every API instance.
// It satisfies ratelimit.Limiter.
type WindowLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewWindowLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + ":" + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	// The first hit in a window starts the window.
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis limiter: %w", err)
		}
	}
	return n <= l.limit, nil
}
