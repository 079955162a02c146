package cache

import (
	"chessrush/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExplorerCache handles Redis operations for raw explorer responses
type ExplorerCache interface {
	Get(ctx context.Context, fen string, q model.ExplorerQuery) (*model.ExplorerResponse, error)
	Set(ctx context.Context, fen string, q model.ExplorerQuery, resp *model.ExplorerResponse) error
}

type explorerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExplorerCache creates a new explorer cache
func NewExplorerCache(client *redis.Client, ttl time.Duration) ExplorerCache {
	return &explorerCache{
		client: client,
		ttl:    ttl,
	}
}

// ExplorerKey builds the cache key for a position and query
func ExplorerKey(fen string, q model.ExplorerQuery) string {
	ratings := make([]string, len(q.Ratings))
	for i, r := range q.Ratings {
		ratings[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("explorer:%d:%s:%s:%s",
		q.Moves, strings.Join(q.Speeds, ","), strings.Join(ratings, ","), fen)
}

func (c *explorerCache) Get(ctx context.Context, fen string, q model.ExplorerQuery) (*model.ExplorerResponse, error) {
	data, err := c.client.Get(ctx, ExplorerKey(fen, q)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp model.ExplorerResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *explorerCache) Set(ctx context.Context, fen string, q model.ExplorerQuery, resp *model.ExplorerResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ExplorerKey(fen, q), data, c.ttl).Err()
}
