package tracking

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

const snapshotCachePrefix = "trucktracker:"

// SnapshotCache shares encoded snapshots between push sessions with the same filters
type SnapshotCache struct {
	cache *cache.Cache[string]
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &SnapshotCache{
		cache: cache.New[string](redisStore),
	}
}

// Get returns false on a miss or any cache failure
func (c *SnapshotCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.cache.Get(ctx, snapshotCachePrefix+key)
	if err != nil || value == "" {
		return nil, false
	}

	return []byte(value), true
}

func (c *SnapshotCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.cache.Set(ctx, snapshotCachePrefix+key, string(payload))
}
