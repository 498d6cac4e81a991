package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("Redis client not available")

// RateLimiter caps how many votes one client may cast on one URL inside a
// fixed window.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter returns a limiter allowing limit votes per window. A nil
// client yields a limiter that allows everything.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &RateLimiter{rdb: rdb, limit: int64(limit), window: window}
}

// Allow records one vote attempt by client on url and reports whether it is
// within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, client, url string) (bool, error) {
	if rl == nil || rl.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate:vote:%s:%s", client, urlHash(url))

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}

	// A key without a TTL is either new or left behind by a failed EXPIRE.
	if ttl.Val() < 0 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			return false, err
		}
	}

	return incr.Val() <= rl.limit, nil
}
