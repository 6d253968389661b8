package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/cinedesk/cinedesk/internal/core"
)

// fakeClock is advanced by hand so expiry tests never sleep.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClockedCache(ttl time.Duration) (*pageCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newPageCache(ttl)
	c.now = clock.now
	return c, clock
}

func TestPageCache_HitAndMiss(t *testing.T) {
	c, _ := newClockedCache(time.Minute)
	page := &core.Page{NumPages: 3, CurrentPage: 1}

	if _, ok := c.Get("/api/movies/?page=1&"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("/api/movies/?page=1&", page)

	got, ok := c.Get("/api/movies/?page=1&")
	if !ok || got != page {
		t.Fatalf("expected cached page, got %v %v", got, ok)
	}
	if _, ok := c.Get("/api/movies/?page=2&"); ok {
		t.Error("different path should miss")
	}
}

func TestPageCache_Expiry(t *testing.T) {
	c, clock := newClockedCache(time.Minute)
	c.Set("k", &core.Page{})

	clock.advance(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be valid exactly at its ttl")
	}

	clock.advance(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, len = %d", c.Len())
	}
}

func TestPageCache_Bounded(t *testing.T) {
	c, clock := newClockedCache(time.Hour)
	for i := range maxCachedPages {
		c.Set(fmt.Sprintf("p%d", i), &core.Page{CurrentPage: i + 1})
		clock.advance(time.Second)
	}

	c.Set("newest", &core.Page{})
	if c.Len() != maxCachedPages {
		t.Fatalf("len = %d, want %d", c.Len(), maxCachedPages)
	}
	if _, ok := c.Get("p0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("p1"); !ok {
		t.Error("second oldest entry should survive")
	}

	c.Set("p1", &core.Page{})
	if c.Len() != maxCachedPages {
		t.Errorf("overwriting an entry must not evict, len = %d", c.Len())
	}
}

func TestPageCache_EvictPrefersExpired(t *testing.T) {
	c, clock := newClockedCache(time.Minute)
	for i := range maxCachedPages {
		c.Set(fmt.Sprintf("p%d", i), &core.Page{})
	}
	clock.advance(2 * time.Minute)

	c.Set("fresh", &core.Page{})
	if c.Len() != 1 {
		t.Errorf("expired entries should be swept, len = %d", c.Len())
	}
}

func TestPageCache_Clear(t *testing.T) {
	c, _ := newClockedCache(time.Minute)
	c.Set("a", &core.Page{})
	c.Set("b", &core.Page{})
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, len = %d", c.Len())
	}
}
