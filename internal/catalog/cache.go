package catalog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// Entry is the unit of storage of the catalog cache. Entries are immutable once
// published; writers build a new one and swap it in.
type Entry struct {
	Products   []model.CatalogProduct
	CapturedAt time.Time
	Complete   bool
}

// ValidFor reports whether the entry can serve a request for `requested`
// products at time now.
func (e *Entry) ValidFor(now time.Time, ttl time.Duration, requested int) bool {
	if e == nil {
		return false
	}
	if now.Sub(e.CapturedAt) >= ttl {
		return false
	}
	return len(e.Products) >= requested || e.Complete
}

type CacheOption func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// Cache is an in-process, TTL-bounded store of the latest broad catalog fetch.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	entry atomic.Pointer[Entry]
	gen   atomic.Uint64
	mu    sync.Mutex // serializes writers
}

func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns up to `requested` products when the current entry is valid for
// that request.
func (c *Cache) Get(requested int) ([]model.CatalogProduct, bool) {
	e := c.entry.Load()
	if !e.ValidFor(c.now(), c.ttl, requested) {
		return nil, false
	}
	n := len(e.Products)
	if requested > 0 && requested < n {
		n = requested
	}
	out := make([]model.CatalogProduct, n)
	copy(out, e.Products[:n])
	return out, true
}

// Snapshot returns the current entry, valid or not. Callers must treat it as read-only.
func (c *Cache) Snapshot() *Entry {
	return c.entry.Load()
}

// Begin registers a new writer and returns its token. Any later Begin or
// Invalidate supersedes it.
func (c *Cache) Begin() uint64 {
	return c.gen.Add(1)
}

// Commit publishes a new entry if token is still the latest writer. It reports
// whether the entry was stored.
func (c *Cache) Commit(token uint64, products []model.CatalogProduct, complete bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() != token {
		return false
	}
	c.store(products, complete, c.now())
	return true
}

// Set replaces the entry unconditionally.
func (c *Cache) Set(products []model.CatalogProduct, complete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Add(1)
	c.store(products, complete, c.now())
}

// Invalidate drops the entry and supersedes any in-flight writer.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Add(1)
	c.entry.Store(nil)
}

// Patch applies reducer to a copy of the cached products and republishes them
// with the original timestamp and completeness. It reports false when there is
// nothing cached.
func (c *Cache) Patch(reducer func([]model.CatalogProduct) []model.CatalogProduct) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.entry.Load()
	if cur == nil {
		return false
	}
	in := make([]model.CatalogProduct, len(cur.Products))
	copy(in, cur.Products)
	c.store(reducer(in), cur.Complete, cur.CapturedAt)
	return true
}

func (c *Cache) store(products []model.CatalogProduct, complete bool, at time.Time) {
	c.entry.Store(&Entry{
		Products:   products,
		CapturedAt: at,
		Complete:   complete,
	})
}
