package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKey = "dashboard:summary"

// Cache stores the serialised dashboard summary in redis with a TTL.
// Cache trouble is never fatal; callers fall back to recomputing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get loads the cached summary, returning false on a miss or any redis
// or decoding problem.
func (c *Cache) Get(ctx context.Context) (*Summary, bool) {
	raw, err := c.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		return nil, false
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// Set stores the summary for the configured TTL.
func (c *Cache) Set(ctx context.Context, summary *Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, raw, c.ttl).Err()
}

// Invalidate drops the cached summary so the next read recomputes.
func (c *Cache) Invalidate(ctx context.Context) error {
	err := c.client.Del(ctx, summaryKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
