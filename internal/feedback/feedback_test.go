package feedback

import (
	"context"
	"testing"
	"time"

	"credcheck/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	rl := NewRateLimiter(rdb, 2, time.Minute)
	ctx := context.Background()
	url := "https://news.example/story"

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "10.0.0.1", url)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := rl.Allow(ctx, "10.0.0.1", url)
	require.NoError(t, err)
	assert.False(t, ok)

	// Separate budgets per client and per URL.
	ok, _ = rl.Allow(ctx, "10.0.0.2", url)
	assert.True(t, ok)
	ok, _ = rl.Allow(ctx, "10.0.0.1", "https://news.example/other")
	assert.True(t, ok)

	key := "rate:vote:10.0.0.1:" + urlHash(url)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, "10.0.0.1", url)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_RestoresMissingExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	rl := NewRateLimiter(rdb, 5, time.Minute)
	url := "https://news.example/story"
	key := "rate:vote:10.0.0.1:" + urlHash(url)

	// Counter left without a TTL, as after an EXPIRE that never landed.
	require.NoError(t, mr.Set(key, "3"))
	require.Zero(t, mr.TTL(key))

	ok, err := rl.Allow(context.Background(), "10.0.0.1", url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4", mustGet(t, mr, key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists(key))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRateLimiter_WithoutRedisAllows(t *testing.T) {
	ok, err := NewRateLimiter(nil, 1, time.Second).Allow(context.Background(), "c", "u")
	require.NoError(t, err)
	assert.True(t, ok)

	var nilLimiter *RateLimiter
	ok, err = nilLimiter.Allow(context.Background(), "c", "u")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(nil, 0, 0)
	assert.Equal(t, int64(10), rl.limit)
	assert.Equal(t, 10*time.Minute, rl.window)
}

func TestVoteCounter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	counter := NewVoteCounter(rdb)
	ctx := context.Background()
	url := "https://news.example/story"

	require.NoError(t, counter.Record(ctx, url, models.VoteTrustworthy))
	require.NoError(t, counter.Record(ctx, url, models.VoteTrustworthy))
	require.NoError(t, counter.Record(ctx, url, models.VoteMisleading))
	mr.HSet(countsKey(url), "bogus", "7")

	tally, err := counter.Tally(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, url, tally.URL)
	assert.Equal(t, int64(2), tally.Counts[models.VoteTrustworthy])
	assert.Equal(t, int64(1), tally.Counts[models.VoteMisleading])
	assert.Equal(t, int64(0), tally.Counts[models.VoteNotSure])
	assert.Equal(t, int64(3), tally.Total)

	empty, err := counter.Tally(ctx, "https://news.example/unseen")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
}

func TestVoteCounter_WithoutRedis(t *testing.T) {
	counter := NewVoteCounter(nil)
	assert.ErrorIs(t, counter.Record(context.Background(), "u", models.VoteNotSure), ErrRedisUnavailable)
	_, err := counter.Tally(context.Background(), "u")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}
