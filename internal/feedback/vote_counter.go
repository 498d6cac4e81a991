package feedback

import (
	"context"
	"fmt"
	"strconv"

	"credcheck/models"

	"github.com/redis/go-redis/v9"
)

// VoteCounter keeps live per-URL vote counts in a Redis hash. It backs the
// tally endpoint when no database is configured.
type VoteCounter struct {
	rdb *redis.Client
}

func NewVoteCounter(rdb *redis.Client) *VoteCounter {
	return &VoteCounter{rdb: rdb}
}

func countsKey(url string) string {
	return "votes:" + urlHash(url)
}

// Record increments the counter for vote on url.
func (c *VoteCounter) Record(ctx context.Context, url string, vote models.VoteType) error {
	if c == nil || c.rdb == nil {
		return ErrRedisUnavailable
	}
	if err := c.rdb.HIncrBy(ctx, countsKey(url), string(vote), 1).Err(); err != nil {
		return fmt.Errorf("failed to record vote count: %w", err)
	}
	return nil
}

// Tally returns the counts recorded for url.
func (c *VoteCounter) Tally(ctx context.Context, url string) (models.VoteTally, error) {
	if c == nil || c.rdb == nil {
		return models.VoteTally{}, ErrRedisUnavailable
	}
	raw, err := c.rdb.HGetAll(ctx, countsKey(url)).Result()
	if err != nil {
		return models.VoteTally{}, fmt.Errorf("failed to read vote counts: %w", err)
	}

	tally := models.VoteTally{
		URL: url,
		Counts: map[models.VoteType]int64{
			models.VoteTrustworthy: 0,
			models.VoteMisleading:  0,
			models.VoteNotSure:     0,
		},
	}
	for field, value := range raw {
		vote := models.VoteType(field)
		if !vote.Valid() {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		tally.Counts[vote] = n
		tally.Total += n
	}
	return tally, nil
}
