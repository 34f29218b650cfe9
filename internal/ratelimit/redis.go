package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter counts requests in fixed windows shared by every server
// instance pointing at the same redis.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter parses a redis:// URL and allows max requests per window per key.
func NewRedisLimiter(redisURL string, max int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		max:    int64(max),
		window: window,
		prefix: "cleancook:ratelimit:",
		now:    time.Now,
	}, nil
}

// Ping checks the connection.
func (rl *RedisLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

// Close releases the redis connection pool.
func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}

func (rl *RedisLimiter) windowKey(key string) string {
	start := rl.now().Truncate(rl.window).Unix()
	return fmt.Sprintf("%s%s:%d", rl.prefix, key, start)
}

// Allow increments key's counter for the current window. The window key
// expires on its own once the window is over.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.windowKey(key)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, rl.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= rl.max, nil
}
