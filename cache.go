package postapi

import (
	"sync"
	"time"
)

// FeedCache is an in-memory cache of the published posts backing the RSS
// feed and sitemap, with TTL. Write handlers call Invalidate after every
// store mutation.
type FeedCache struct {
	mu      sync.RWMutex
	posts   []Post
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewFeedCache creates a FeedCache backed by the given Store.
func NewFeedCache(s *Store, ttl time.Duration) *FeedCache {
	return &FeedCache{store: s, ttl: ttl}
}

func (c *FeedCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *FeedCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// ensureLoaded returns the cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *FeedCache) ensureLoaded() ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	result, err := c.store.List(ListFilter{
		Status:  StatusPublished,
		Limit:   maxPageSize,
		OrderBy: "publishedAt",
		Order:   "desc",
	})
	if err != nil {
		return nil, err
	}
	c.posts = result.Items
	c.fetched = time.Now()
	return c.posts, nil
}

// Posts returns up to limit published posts, newest first.
func (c *FeedCache) Posts(limit int) ([]Post, error) {
	posts, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}
