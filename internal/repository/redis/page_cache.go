package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const (
	pageCachePrefix   = "posts:page"
	pageVersionPrefix = "posts:ver"
	DefaultPageTTL    = 20 * time.Second
)

const ScopeIndex = "index"

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Listing page cache lookups by result",
	}, []string{"result"})
)

func GroupScope(slug string) string       { return "group:" + slug }
func ProfileScope(username string) string { return "profile:" + username }

// PageCache caches rendered listing pages under (scope, version, page).
// Bumping a scope version hides every page cached for that scope; stale keys
// then expire on their own TTL.
// A nil Client disables caching.
type PageCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{Client: client, TTL: ttl}
}

func (c *PageCache) enabled() bool {
	return c != nil && c.Client != nil
}

func (c *PageCache) versionKey(scope string) string {
	return fmt.Sprintf("%s:%s", pageVersionPrefix, scope)
}

func (c *PageCache) pageKey(scope string, version int64, page int) string {
	return fmt.Sprintf("%s:%s:v%d:%d", pageCachePrefix, scope, version, page)
}

func (c *PageCache) version(ctx context.Context, scope string) (int64, error) {
	v, err := c.Client.Get(ctx, c.versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Lookup loads the cached page into dst. The returned version must be handed
// back to Store so that a page computed before an invalidation is never
// stored under the new version.
func (c *PageCache) Lookup(ctx context.Context, scope string, page int, dst any) (version int64, hit bool, err error) {
	if !c.enabled() {
		return 0, false, nil
	}
	version, err = c.version(ctx, scope)
	if err != nil {
		return 0, false, err
	}
	raw, err := c.Client.Get(ctx, c.pageKey(scope, version, page)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues("miss").Inc()
		return version, false, nil
	}
	if err != nil {
		return version, false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// unreadable entry: drop it and treat as a miss
		_ = c.Client.Del(ctx, c.pageKey(scope, version, page)).Err()
		cacheLookups.WithLabelValues("miss").Inc()
		return version, false, nil
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return version, true, nil
}

// Store caches value for the scope version obtained from Lookup.
func (c *PageCache) Store(ctx context.Context, scope string, version int64, page int, value any) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.pageKey(scope, version, page), raw, c.TTL).Err()
}

// Invalidate hides every cached page of the given scopes.
func (c *PageCache) Invalidate(ctx context.Context, scopes ...string) error {
	if !c.enabled() || len(scopes) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, scope := range scopes {
			p.Incr(ctx, c.versionKey(scope))
		}
		return nil
	})
	return err
}

// Clear drops every page cache key.
func (c *PageCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	for _, pattern := range []string{pageCachePrefix + ":*", pageVersionPrefix + ":*"} {
		iter := c.Client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.Client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}
