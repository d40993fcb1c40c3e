package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ListingLoader enumerates the bucket under a prefix.
type ListingLoader func(ctx context.Context, prefix string) (ServerListing, error)

// cachedListing is a listing with its build time.
type cachedListing struct {
	listing ServerListing
	built   time.Time
}

// ListingCache holds recent remote listings keyed by prefix.
// Concurrent misses for the same prefix share one load.
type ListingCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cachedListing
	sf      singleflight.Group
	now     func() time.Time
}

// NewListingCache creates a cache. A zero TTL disables caching.
func NewListingCache(ttl time.Duration) *ListingCache {
	return &ListingCache{
		ttl:     ttl,
		entries: make(map[string]cachedListing),
		now:     time.Now,
	}
}

func (c *ListingCache) fresh(prefix string) (ServerListing, bool) {
	if c.ttl <= 0 {
		return ServerListing{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[prefix]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.built) > c.ttl {
		return ServerListing{}, false
	}
	return entry.listing, true
}

// Get returns a cached listing for prefix or loads a new one.
// Incomplete listings are returned but never stored. The shared load is detached
// from any single caller's cancellation; each caller stops waiting when its own
// ctx ends.
func (c *ListingCache) Get(ctx context.Context, prefix string, load ListingLoader) (ServerListing, error) {
	if listing, ok := c.fresh(prefix); ok {
		return listing, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(prefix, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if listing, ok := c.fresh(prefix); ok {
			return listing, nil
		}

		listing, err := load(loadCtx, prefix)
		if err != nil {
			return nil, err
		}
		if listing.Complete && c.ttl > 0 {
			c.mu.Lock()
			c.entries[prefix] = cachedListing{listing: listing, built: c.now()}
			c.mu.Unlock()
		}
		return listing, nil
	})

	select {
	case <-ctx.Done():
		return ServerListing{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ServerListing{}, res.Err
		}
		return res.Val.(ServerListing), nil
	}
}

// Invalidate drops the listing for prefix.
func (c *ListingCache) Invalidate(prefix string) {
	c.mu.Lock()
	delete(c.entries, prefix)
	c.mu.Unlock()
}
