package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ListCache keeps serialized wallpaper listings in Redis. Entries are keyed
// under a namespace version; invalidation bumps the version so every cached
// listing goes stale at once.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewListCache constructs a ListCache.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

const cacheVersionKey = "gallery:ver"

// GetOrBuild returns the cached listing for key, building it at most once
// per process when missing. Redis failures fall through to the builder.
func (c *ListCache) GetOrBuild(ctx context.Context, key string, build func(context.Context) ([]Wallpaper, error)) ([]Wallpaper, error) {
	fullKey, err := c.versionedKey(ctx, key)
	if err == nil {
		if payload, err := c.client.Get(ctx, fullKey).Bytes(); err == nil {
			var wallpapers []Wallpaper
			if err := json.Unmarshal(payload, &wallpapers); err == nil {
				return wallpapers, nil
			}
		}
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		wallpapers, err := build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if fullKey != "" {
			if payload, err := json.Marshal(wallpapers); err == nil {
				_ = c.client.Set(context.WithoutCancel(ctx), fullKey, payload, c.ttl).Err()
			}
		}
		return wallpapers, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Wallpaper), nil
	}
}

// Invalidate bumps the namespace version, orphaning every cached listing.
// Orphaned keys expire with their TTL.
func (c *ListCache) Invalidate(ctx context.Context) {
	_ = c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *ListCache) versionedKey(ctx context.Context, key string) (string, error) {
	version, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("gallery:list:v%d:%s", version, key), nil
}
