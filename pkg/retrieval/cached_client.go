package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/store"
)

// CachedClient decorates a Client with a Redis read-through cache for
// recommendation queries. Information queries depend on conversation history
// and never hit the cache. Cache failures degrade to the wrapped client.
type CachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
	log   logger.ILogger
}

var _ Client = &CachedClient{}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, log logger.ILogger) *CachedClient {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedClient) Retrieve(ctx context.Context, req Request) (*Response, error) {
	if req.Mode != store.ModeRecommendation || c.rdb == nil {
		return c.inner.Retrieve(ctx, req)
	}

	key := cacheKey(req.Message)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var resp Response
		if err := json.Unmarshal([]byte(raw), &resp); err == nil && resp.Results != nil {
			return &resp, nil
		}
		// Corrupt entry; drop it and fall through.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.log.Warn("RetrievalCache", "Cache lookup failed", map[string]interface{}{"error": err.Error()})
	}

	resp, err := c.inner.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("RetrievalCache", "Cache store failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return resp, nil
}

func cacheKey(message string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(message))))
	return fmt.Sprintf("retrieval:rec:%s", hex.EncodeToString(sum[:8]))
}
