package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCountCache keeps per-author post counts. Each author has a generation
// counter; counts are stored under the generation they were computed in, and
// every write for that author moves the counter on.
type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
	genTTL time.Duration
}

func NewRedisCountCache(client *redis.Client) *RedisCountCache {
	return &RedisCountCache{
		client: client,
		ttl:    10 * time.Minute,
		// must outlive any count key, or a reset generation could revive one
		genTTL: 24 * time.Hour,
	}
}

func genKey(authorID string) string {
	return fmt.Sprintf("posts:count:%s:gen", authorID)
}

func countKey(authorID string, gen int64) string {
	return fmt.Sprintf("posts:count:%s:%d", authorID, gen)
}

func (c *RedisCountCache) Get(ctx context.Context, authorID string) (int64, int64, bool, error) {
	gen, err := c.client.Get(ctx, genKey(authorID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, false, err
	}

	n, err := c.client.Get(ctx, countKey(authorID, gen)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, gen, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return n, gen, true, nil
}

func (c *RedisCountCache) Set(ctx context.Context, authorID string, gen, count int64) error {
	return c.client.Set(ctx, countKey(authorID, gen), count, c.ttl).Err()
}

// Invalidate moves the author to a new generation. Counts computed before it
// may still be Set, but only under the old generation.
func (c *RedisCountCache) Invalidate(ctx context.Context, authorID string) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, genKey(authorID))
	pipe.Expire(ctx, genKey(authorID), c.genTTL)
	_, err := pipe.Exec(ctx)
	return err
}
