package catalog

import (
	"sync"
	"time"

	"github.com/cinedesk/cinedesk/internal/core"
)

// maxCachedPages bounds the cache; the entry closest to expiry is evicted first.
const maxCachedPages = 64

type cachedPage struct {
	page    *core.Page
	expires time.Time
}

// pageCache keeps recently fetched movie pages keyed by request path.
// Entries are shared, callers must not mutate a returned page.
type pageCache struct {
	mu    sync.Mutex
	pages map[string]cachedPage
	ttl   time.Duration
	now   func() time.Time
}

func newPageCache(ttl time.Duration) *pageCache {
	return &pageCache{
		pages: make(map[string]cachedPage),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *pageCache) Get(path string) (*core.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp, ok := c.pages[path]
	if !ok {
		return nil, false
	}
	if c.now().After(cp.expires) {
		delete(c.pages, path)
		return nil, false
	}
	return cp.page, true
}

func (c *pageCache) Set(path string, page *core.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.pages[path]; !exists && len(c.pages) >= maxCachedPages {
		c.evict(now)
	}
	c.pages[path] = cachedPage{page: page, expires: now.Add(c.ttl)}
}

// evict drops expired pages, or the oldest one when none has expired.
// Callers hold mu.
func (c *pageCache) evict(now time.Time) {
	var (
		oldest    string
		oldestExp time.Time
	)
	for path, cp := range c.pages {
		if now.After(cp.expires) {
			delete(c.pages, path)
			continue
		}
		if oldest == "" || cp.expires.Before(oldestExp) {
			oldest, oldestExp = path, cp.expires
		}
	}
	if len(c.pages) >= maxCachedPages {
		delete(c.pages, oldest)
	}
}

// Clear drops every page, e.g. after an upload changed the catalog.
func (c *pageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pages)
}

func (c *pageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
