package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdentifierCache caches external identifier → vehicle id lookups with a short
// TTL. Only positive lookups are stored, so a freshly registered vehicle is
// visible within one TTL at worst. Staleness delays ingestion, it never
// corrupts it.
type IdentifierCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdentifierCache returns a redis-backed identifier cache.
func NewIdentifierCache(client *redis.Client, ttl time.Duration) *IdentifierCache {
	return &IdentifierCache{client: client, ttl: ttl}
}

func (c *IdentifierCache) key(identifier string) string {
	return fmt.Sprintf("vehicles:identifier:%s", identifier)
}

// Get returns the cached vehicle id for an identifier, or found=false on miss.
func (c *IdentifierCache) Get(ctx context.Context, identifier string) (int64, bool, error) {
	result, err := c.client.Get(ctx, c.key(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Set caches an identifier → vehicle id mapping.
func (c *IdentifierCache) Set(ctx context.Context, identifier string, vehicleID int64) error {
	return c.client.Set(ctx, c.key(identifier), strconv.FormatInt(vehicleID, 10), c.ttl).Err()
}
