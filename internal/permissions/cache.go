package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "perm:version"

// Cache holds short-lived snapshots of assembled user permission sets
// in Redis, keyed by a global version that any successful reconcile
// bumps. Navigation guards read through it so route checks do not hit
// Postgres on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client degrades to
// pass-through loading.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchSet loads a user's cached set or populates it via the loader.
func (c *Cache) FetchSet(ctx context.Context, tenantID, userID int64, loader func(context.Context) (UserSet, error)) (UserSet, error) {
	if loader == nil {
		return UserSet{}, errors.New("permissions: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return loader(ctx)
	}
	key := fmt.Sprintf("perm:set:%d:%d:%d", tenantID, userID, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var set UserSet
		if err := json.Unmarshal(payload, &set); err == nil {
			return set, nil
		}
	} else if err != redis.Nil {
		return loader(ctx)
	}

	set, err := loader(ctx)
	if err != nil {
		return UserSet{}, err
	}
	if raw, err := json.Marshal(set); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return set, nil
}

// Bump invalidates every cached set by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
