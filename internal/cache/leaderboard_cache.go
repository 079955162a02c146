package cache

import (
	"chessrush/internal/model"
	"context"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "lb:solved"

// LeaderboardCache handles Redis ZSET operations for the solved-puzzle leaderboard
type LeaderboardCache interface {
	IncrementSolved(ctx context.Context, playerID string) (int, error)
	GetTop(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, playerID string) (int64, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) IncrementSolved(ctx context.Context, playerID string) (int, error) {
	score, err := c.client.ZIncrBy(ctx, leaderboardKey, 1, playerID).Result()
	if err != nil {
		return 0, err
	}
	return int(score), nil
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = model.LeaderboardEntry{
			PlayerID: z.Member.(string),
			Solved:   int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
