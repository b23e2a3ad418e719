package access

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps resolved effective permission sets in Redis so the gate does
// not hit Postgres on every request. Entries are short-lived and every
// access-record write invalidates the key, so staleness is bounded by the TTL
// only when an invalidation is missed.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(userID string) string {
	return "access:perm:" + userID
}

// Get returns the cached set and whether it was present.
func (c *Cache) Get(ctx context.Context, userID string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var perms []string
	if err := json.Unmarshal(payload, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

// Set stores the resolved set.
func (c *Cache) Set(ctx context.Context, userID string, perms []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), payload, c.ttl).Err()
}

// Invalidate drops the cached entry for a user.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, c.key(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
