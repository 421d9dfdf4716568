package questions

import (
	"context"
	"sync"
	"time"

	"github.com/p-n-ai/core-knowledge/internal/platform/cache"
	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// Cache keeps generated questions per unit and keyword.
type Cache interface {
	Get(ctx context.Context, unit, keyword string) (string, bool, error)
	Set(ctx context.Context, unit, keyword, question string) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]string)}
}

func cacheKey(unit, keyword string) string {
	return unit + "|" + vocab.Normalize(keyword)
}

func (m *MemoryCache) Get(_ context.Context, unit, keyword string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.items[cacheKey(unit, keyword)]
	return q, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, unit, keyword, question string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[cacheKey(unit, keyword)] = question
	return nil
}

// Len returns the number of cached questions.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// RedisCache stores questions in Redis/Dragonfly.
type RedisCache struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewRedisCache wraps a connected cache client.
func NewRedisCache(c *cache.Cache, ttl time.Duration) *RedisCache {
	return &RedisCache{c: c, ttl: ttl}
}

func (r *RedisCache) key(unit, keyword string) string {
	return r.c.Key("question", unit, vocab.Normalize(keyword))
}

func (r *RedisCache) Get(ctx context.Context, unit, keyword string) (string, bool, error) {
	return r.c.Get(ctx, r.key(unit, keyword))
}

func (r *RedisCache) Set(ctx context.Context, unit, keyword, question string) error {
	return r.c.Set(ctx, r.key(unit, keyword), question, r.ttl)
}
