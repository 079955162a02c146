package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// EvalCache handles Redis operations for engine move evaluations
type EvalCache interface {
	// GetLoss returns ok == false on a miss
	GetLoss(ctx context.Context, fen, uci string) (loss float64, ok bool, err error)
	SetLoss(ctx context.Context, fen, uci string, loss float64) error
}

type evalCache struct {
	client *redis.Client
	ttl    time.Duration
	depth  int
}

// NewEvalCache creates a new evaluation cache. Entries are keyed by search
// depth so a deeper engine setting does not reuse shallower results.
func NewEvalCache(client *redis.Client, depth int, ttl time.Duration) EvalCache {
	return &evalCache{
		client: client,
		ttl:    ttl,
		depth:  depth,
	}
}

// EvalKey builds the cache key for one move evaluation
func EvalKey(depth int, fen, uci string) string {
	return fmt.Sprintf("eval:%d:%s:%s", depth, fen, uci)
}

func (c *evalCache) GetLoss(ctx context.Context, fen, uci string) (float64, bool, error) {
	data, err := c.client.Get(ctx, EvalKey(c.depth, fen, uci)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	loss, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, false, err
	}
	return loss, true, nil
}

func (c *evalCache) SetLoss(ctx context.Context, fen, uci string, loss float64) error {
	return c.client.Set(ctx, EvalKey(c.depth, fen, uci), strconv.FormatFloat(loss, 'f', -1, 64), c.ttl).Err()
}
