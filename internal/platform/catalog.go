package platform

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lab-ranker/internal/logger"
	"github.com/yourusername/lab-ranker/internal/market"
	"github.com/yourusername/lab-ranker/internal/metrics"
)

// refreshedKey marks when the fetched market list was last stored.
const refreshedKey = "\x00refreshed"

// MarketFetcher lists the markets the platform trades
type MarketFetcher interface {
	GetMarkets(ctx context.Context) ([]string, error)
}

// MarketCatalog caches the platform market list. Static markets never
// expire; fetched markets expire after the catalog TTL.
type MarketCatalog struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	static    map[string]struct{}
	hitCount  uint64
	missCount uint64
	log       *logger.PlatformLogger
}

// NewMarketCatalog creates an empty catalog
func NewMarketCatalog(ttl, cleanupInterval time.Duration, log *logrus.Logger) *MarketCatalog {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &MarketCatalog{
		cache:  cache.New(ttl, cleanupInterval),
		ttl:    ttl,
		static: make(map[string]struct{}),
		log:    logger.NewPlatformLogger(log),
	}
}

// Seed adds markets that never expire. Every tag must be canonical.
func (c *MarketCatalog) Seed(tags []string) error {
	for _, tag := range tags {
		if err := market.Validate(tag); err != nil {
			return fmt.Errorf("static market %q: %w", tag, err)
		}
	}
	c.mu.Lock()
	for _, tag := range tags {
		c.static[tag] = struct{}{}
		c.cache.Set(tag, struct{}{}, cache.NoExpiration)
	}
	c.mu.Unlock()
	metrics.UpdateCatalogSize(c.Count())
	return nil
}

// Refresh fetches the market list unless the cached one is still fresh
func (c *MarketCatalog) Refresh(ctx context.Context, fetcher MarketFetcher) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, fresh := c.cache.Get(refreshedKey); fresh {
		c.hitCount++
		metrics.RecordCatalogLookup(true)
		c.log.LogCatalogRefresh(c.Count(), true)
		return nil
	}
	c.missCount++
	metrics.RecordCatalogLookup(false)

	tags, err := fetcher.GetMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh market catalog: %w", err)
	}
	for _, tag := range tags {
		// Static entries keep their NoExpiration
		if _, ok := c.static[tag]; ok {
			continue
		}
		c.cache.Set(tag, struct{}{}, c.ttl)
	}
	c.cache.Set(refreshedKey, time.Now().UTC(), c.ttl)

	n := c.Count()
	metrics.UpdateCatalogSize(n)
	c.log.LogCatalogRefresh(n, false)
	return nil
}

// Contains reports whether tag is a known market
func (c *MarketCatalog) Contains(tag string) bool {
	if tag == refreshedKey {
		return false
	}
	_, found := c.cache.Get(tag)
	return found
}

// Snapshot returns the markets known right now. A run normalizes against a
// snapshot so expiry mid-run cannot change dispositions.
func (c *MarketCatalog) Snapshot() MarketSet {
	items := c.cache.Items()
	set := make(MarketSet, len(items))
	for key := range items {
		if key == refreshedKey {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// Count returns the number of unexpired markets
func (c *MarketCatalog) Count() int {
	n := 0
	for key := range c.cache.Items() {
		if key != refreshedKey {
			n++
		}
	}
	return n
}

// Invalidate forces the next Refresh to fetch
func (c *MarketCatalog) Invalidate() {
	c.cache.Delete(refreshedKey)
}

// Stats returns refresh hit and miss counts
func (c *MarketCatalog) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hitCount, c.missCount
}

// MarketSet is an immutable set of canonical market tags
type MarketSet map[string]struct{}

// NewMarketSet builds a set from tags
func NewMarketSet(tags ...string) MarketSet {
	set := make(MarketSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Contains reports whether tag is in the set
func (s MarketSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Len returns the set size
func (s MarketSet) Len() int {
	return len(s)
}
