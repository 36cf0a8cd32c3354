package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"market_chat/pkg/logger"
)

const rateLimitKeyPrefix = "ratelimit:"

type RateLimitRepository interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

// Increment counts one hit and returns the count so far in the window, which
// starts with the first hit. Callers compare the returned count against their
// limit; INCR is atomic, so concurrent hits never share a count.
func (r *rateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	key = rateLimitKeyPrefix + key

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		r.log.Error("Failed to increment rate limit", "key", key, "error", err)
		return 0, err
	}

	if count == 1 {
		if err := r.redis.Expire(ctx, key, window).Err(); err != nil {
			r.log.Warn("Failed to set rate limit window", "key", key, "error", err)
		}
	}

	return count, nil
}
