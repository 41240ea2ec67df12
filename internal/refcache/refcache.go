package refcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/salescribe/callscribe/internal/embed"
)

// Cache stores reference voice embeddings per user in Redis, so repeat runs
// for the same salesperson skip the encoder round-trip. The cache is an
// optimization only: with a nil client every lookup is a miss and every
// store is a no-op.
type Cache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// New wraps a Redis client. prefix namespaces the keys; ttl bounds how long
// a cached embedding is trusted (a user may re-record their voice sample).
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{redis: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(userID string) string { return c.prefix + userID }

// Get looks up a user's cached reference embedding. A miss is (nil, false,
// nil); Redis errors are returned but callers treat them as misses.
func (c *Cache) Get(ctx context.Context, userID string) (embed.Vector, bool, error) {
	if c == nil || c.redis == nil || userID == "" {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
	defer cancel()

	val, err := c.redis.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", c.key(userID), err)
	}
	var vec embed.Vector
	if err := json.Unmarshal([]byte(val), &vec); err != nil {
		return nil, false, fmt.Errorf("corrupt cached embedding for %s: %w", userID, err)
	}
	return vec, true, nil
}

// Put stores a user's reference embedding.
func (c *Cache) Put(ctx context.Context, userID string, vec embed.Vector) error {
	if c == nil || c.redis == nil || userID == "" || len(vec) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
	defer cancel()

	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", c.key(userID), err)
	}
	return nil
}
