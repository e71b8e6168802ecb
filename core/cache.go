package core

import (
	"sync"
	"sync/atomic"
	"time"
)

type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats are simple counters for cache behavior.
// These are intended for diagnostics and monitoring.
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// MemoryCache is a size-bounded TTL map. It backs the session cache and the
// per-client controller registry.
type MemoryCache[V any] struct {
	cache   map[string]*cachedRecord[V]
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	onEvict func(key string, value V)

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type cachedRecord[V any] struct {
	value    V
	cachedAt time.Time
}

// InMemoryCache is the session cache used when no shared cache is configured.
type InMemoryCache = MemoryCache[*Session]

var _ CacheWithStats = (*InMemoryCache)(nil)

func NewInMemoryCache(c CacheConfig) *InMemoryCache {
	return NewMemoryCache[*Session](c)
}

func NewMemoryCache[V any](c CacheConfig) *MemoryCache[V] {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &MemoryCache[V]{
		cache:   make(map[string]*cachedRecord[V]),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// OnEvict registers fn to run for entries dropped by expiry or size pressure.
// It is not called for explicit Delete or Clear.
func (c *MemoryCache[V]) OnEvict(fn func(key string, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

func (c *MemoryCache[V]) Get(key string) (V, error) {
	var zero V

	c.mu.RLock()
	record, exists := c.cache[key]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return zero, ErrCacheNotFound
	}

	if time.Since(record.cachedAt) > c.ttl {
		// expired
		atomic.AddInt64(&c.misses, 1)
		c.evict(key, record)
		return zero, ErrCacheNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return record.value, nil
}

func (c *MemoryCache[V]) Set(key string, value V) error {
	var evicted []evictedEntry[V]

	c.mu.Lock()
	// Simple eviction if full
	if _, replacing := c.cache[key]; !replacing && len(c.cache) >= c.maxSize {
		for k, r := range c.cache {
			delete(c.cache, k)
			atomic.AddInt64(&c.evictions, 1)
			evicted = append(evicted, evictedEntry[V]{key: k, value: r.value})
			break
		}
	}

	c.cache[key] = &cachedRecord[V]{
		value:    value,
		cachedAt: time.Now(),
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	atomic.AddInt64(&c.sets, 1)
	if onEvict != nil {
		for _, e := range evicted {
			onEvict(e.key, e.value)
		}
	}
	return nil
}

func (c *MemoryCache[V]) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, existed := c.cache[key]; existed {
		delete(c.cache, key)
		atomic.AddInt64(&c.deletes, 1)
	}
	return nil
}

func (c *MemoryCache[V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cachedRecord[V])
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (c *MemoryCache[V]) Sweep() int {
	var expired []evictedEntry[V]

	c.mu.Lock()
	for k, r := range c.cache {
		if time.Since(r.cachedAt) > c.ttl {
			delete(c.cache, k)
			expired = append(expired, evictedEntry[V]{key: k, value: r.value})
		}
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	atomic.AddInt64(&c.evictions, int64(len(expired)))
	if onEvict != nil {
		for _, e := range expired {
			onEvict(e.key, e.value)
		}
	}
	return len(expired)
}

func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *MemoryCache[V]) Stats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}

type evictedEntry[V any] struct {
	key   string
	value V
}

func (c *MemoryCache[V]) evict(key string, record *cachedRecord[V]) {
	c.mu.Lock()
	current, ok := c.cache[key]
	if !ok || current != record {
		// replaced or removed since the read
		c.mu.Unlock()
		return
	}
	delete(c.cache, key)
	onEvict := c.onEvict
	c.mu.Unlock()

	atomic.AddInt64(&c.evictions, 1)
	if onEvict != nil {
		onEvict(key, record.value)
	}
}
