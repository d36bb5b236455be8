package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type ImageSearcher interface {
	SearchImage(ctx context.Context, query string) (string, error)
}

type CacheItem struct {
	URL       string
	ExpiresAt time.Time
}

// ImageCache memoizes image lookups per query. Weather data is never cached;
// only this decoration is.
type ImageCache struct {
	source          ImageSearcher
	mu              sync.RWMutex
	items           map[string]CacheItem
	clock           clockwork.Clock
	metrics         *observability.Metrics
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

func NewImageCache(source ImageSearcher, defaultDuration time.Duration, maxSize int, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *ImageCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &ImageCache{
		source:          source,
		items:           make(map[string]CacheItem),
		clock:           clock,
		metrics:         metrics,
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// SearchImage serves from the cache or asks the underlying source.
// Failures are not cached.
func (c *ImageCache) SearchImage(ctx context.Context, query string) (string, error) {
	key := cacheKey(query)
	if url, ok := c.Get(key); ok {
		c.metrics.ImageCache.WithLabelValues("hit").Inc()
		return url, nil
	}
	c.metrics.ImageCache.WithLabelValues("miss").Inc()

	url, err := c.source.SearchImage(ctx, query)
	if err != nil {
		return "", err
	}
	c.Set(key, url)
	return url, nil
}

func (c *ImageCache) Set(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.clock.Now().Add(c.defaultDuration)
	c.items[key] = CacheItem{URL: url, ExpiresAt: expiresAt}

	c.logger.Debug("Image cached",
		zap.String("query", key),
		zap.Time("expires_at", expiresAt))
}

func (c *ImageCache) Get(key string) (string, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}

	if c.clock.Now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}

	return item.URL, true
}

func (c *ImageCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest image from cache", zap.String("query", oldestKey))
	}
}

// StartCleanup runs the expiry sweep until Stop is called.
func (c *ImageCache) StartCleanup() {
	go func() {
		ticker := c.clock.NewTicker(c.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				c.cleanup()
			case <-c.stopCleanup:
				return
			}
		}
	}()
}

func (c *ImageCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items", zap.Int("count", expiredCount))
	}
}

func (c *ImageCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *ImageCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"image_items":      len(c.items),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
