package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"admin-gateway-service/internal/models"
)

// PageCache caches decoded upstream list pages per tenant. A nil Redis client
// disables caching entirely; every method becomes a no-op miss.
type PageCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &PageCache{redis: client, ttl: ttl}
}

func listKey(tenantID, resource string, page, limit int, search string) string {
	return fmt.Sprintf("tesseract:admin:%s:%s:list:p%d:l%d:q%s", tenantID, resource, page, limit, search)
}

// GetPage returns a cached page, or nil on miss.
func (c *PageCache) GetPage(ctx context.Context, tenantID, resource string, page, limit int, search string) *models.PageEnvelope {
	if c.redis == nil {
		return nil
	}
	val, err := c.redis.Get(ctx, listKey(tenantID, resource, page, limit, search)).Result()
	if err != nil {
		return nil
	}
	var envelope models.PageEnvelope
	if err := json.Unmarshal([]byte(val), &envelope); err != nil {
		return nil
	}
	return &envelope
}

// SetPage stores one list page. Failures are swallowed; the cache is an
// optimization, never a dependency.
func (c *PageCache) SetPage(ctx context.Context, tenantID, resource string, page, limit int, search string, envelope *models.PageEnvelope) {
	if c.redis == nil || envelope == nil {
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	c.redis.Set(ctx, listKey(tenantID, resource, page, limit, search), data, c.ttl)
}

// Invalidate drops every cached page of one resource for a tenant. Called
// after any mutation so the next list reflects the upstream state.
func (c *PageCache) Invalidate(ctx context.Context, tenantID, resource string) {
	if c.redis == nil {
		return
	}
	pattern := fmt.Sprintf("tesseract:admin:%s:%s:list:*", tenantID, resource)
	keys, _ := c.redis.Keys(ctx, pattern).Result()
	if len(keys) > 0 {
		c.redis.Del(ctx, keys...)
	}
}
