package coach

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LookupCache caches exercise-video lookup results: a small local LRU in
// front of an optional Redis tier shared between app instances. Lookup
// results are plain URLs keyed by lowercased exercise name, so a stale
// entry is harmless and TTLs can be generous.
type LookupCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration

	rdb    *redis.Client
	logger *zap.Logger
}

type lookupEntry struct {
	key       string
	url       string
	expiresAt time.Time
}

const lookupKeyPrefix = "reddyfit:lookup:"

// NewLookupCache creates a cache. rdb may be nil for local-only caching.
func NewLookupCache(rdb *redis.Client, maxSize int, ttl time.Duration, logger *zap.Logger) *LookupCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		rdb:     rdb,
		logger:  logger,
	}
}

// Get returns the cached URL for an exercise name, if any.
func (c *LookupCache) Get(ctx context.Context, exercise string) (string, bool) {
	if c == nil {
		return "", false
	}
	key := normalizeKey(exercise)

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*lookupEntry)
		if time.Now().Before(entry.expiresAt) {
			c.order.MoveToFront(elem)
			c.mu.Unlock()
			return entry.url, true
		}
		c.order.Remove(elem)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.rdb == nil {
		return "", false
	}
	url, err := c.rdb.Get(ctx, lookupKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("redis lookup failed", zap.Error(err))
		}
		return "", false
	}
	c.setLocal(key, url)
	return url, true
}

// Set stores a lookup result in both tiers. Redis failures are logged and
// ignored; the cache is advisory.
func (c *LookupCache) Set(ctx context.Context, exercise, url string) {
	if c == nil || url == "" {
		return
	}
	key := normalizeKey(exercise)
	c.setLocal(key, url)

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, lookupKeyPrefix+key, url, c.ttl).Err(); err != nil {
			c.logger.Debug("redis store failed", zap.Error(err))
		}
	}
}

func (c *LookupCache) setLocal(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*lookupEntry)
		entry.url = url
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lookupEntry).key)
	}

	c.entries[key] = c.order.PushFront(&lookupEntry{
		key:       key,
		url:       url,
		expiresAt: time.Now().Add(c.ttl),
	})
}

func normalizeKey(exercise string) string {
	return strings.ToLower(strings.TrimSpace(exercise))
}
