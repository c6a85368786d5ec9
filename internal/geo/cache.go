package geo

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedResolver caches centroid lookups in Redis. ZIP centroids are
// effectively immutable, so the TTL exists only to bound memory; cache
// failures fall through to the wrapped resolver.
type CachedResolver struct {
	next    Resolver
	client  *redis.Client
	baseTTL time.Duration
}

func NewCachedResolver(next Resolver, client *redis.Client) *CachedResolver {
	return &CachedResolver{
		next:    next,
		client:  client,
		baseTTL: 24 * time.Hour,
	}
}

func cacheKey(zip string) string {
	return "geo:zip:" + zip
}

func (c *CachedResolver) Resolve(ctx context.Context, zip string) (Point, error) {
	key := cacheKey(zip)

	// cache trouble is never a resolution failure; any miss or error falls
	// through to the wrapped resolver
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var p Point
		if err2 := json.Unmarshal(data, &p); err2 == nil {
			return p, nil
		}
	}

	p, err := c.next.Resolve(ctx, zip)
	if err != nil {
		return Point{}, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		jitter := time.Duration(rand.Intn(60)) * time.Minute
		// a failed write only costs the next lookup a round trip
		c.client.Set(ctx, key, encoded, c.baseTTL+jitter)
	}
	return p, nil
}
