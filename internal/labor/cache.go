package labor

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reconciliation:version"

// Cache keeps company reconciliation summaries in Redis behind a global
// version counter. Invalidation bumps the version instead of deleting keys,
// so stale entries simply age out via TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
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
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

func (c *Cache) summaryKey(ctx context.Context, companyID int64) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	parts := []string{"reconciliation", "summary", strconv.FormatInt(companyID, 10), strconv.FormatInt(ver, 10)}
	return strings.Join(parts, ":"), nil
}

// FetchSummary loads the cached summary for a company or populates it using
// the loader.
func (c *Cache) FetchSummary(ctx context.Context, companyID int64, loader func(context.Context) (*CompanyReconciliationSummary, error)) (*CompanyReconciliationSummary, error) {
	if loader == nil {
		return nil, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.summaryKey(ctx, companyID)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var summary CompanyReconciliationSummary
		if err := json.Unmarshal(payload, &summary); err != nil {
			return nil, err
		}
		return &summary, nil
	}
	if err != redis.Nil {
		return nil, err
	}
	summary, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

// Bump invalidates every cached summary by incrementing the global version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
