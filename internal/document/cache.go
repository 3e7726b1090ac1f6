package document

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds how many parsed documents stay resident.
const DefaultCapacity = 16

// CacheConfig configures a Cache. The zero value gets sensible defaults, and
// OpenFunc is injectable so tests can count or fake parses.
type CacheConfig struct {
	Capacity int
	OpenFunc func(path string) (*Handle, error)
	Logger   *slog.Logger
}

// Cache keeps up to Capacity most-recently-used handles keyed by canonical
// path. Concurrent acquires of the same uncached path coalesce into a single
// parse; eviction closes the handle. A failed parse is never cached.
type Cache struct {
	open    func(path string) (*Handle, error)
	logger  *slog.Logger
	group   singleflight.Group
	handles *lru.Cache[string, *Handle]
}

// NewCache creates a cache with the given configuration.
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.OpenFunc == nil {
		cfg.OpenFunc = Open
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Cache{
		open:   cfg.OpenFunc,
		logger: cfg.Logger,
	}
	handles, err := lru.NewWithEvict[string, *Handle](cfg.Capacity, func(path string, h *Handle) {
		cfg.Logger.Debug("evicting document handle", "path", path, "id", h.ID())
		h.Close()
	})
	if err != nil {
		return nil, err
	}
	c.handles = handles
	return c, nil
}

// Acquire returns the handle for path, parsing the document on first access.
// The path is canonicalized first so relative and absolute variants share one
// handle. A caller whose context is cancelled stops waiting, but a parse
// already in flight completes and lands in the cache for future callers.
func (c *Cache) Acquire(ctx context.Context, path string) (*Handle, error) {
	key, err := Canonicalize(path)
	if err != nil {
		return nil, err
	}

	if h, ok := c.handles.Get(key); ok {
		return h, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Re-check: an earlier flight may have populated the cache between
		// our miss and this call.
		if h, ok := c.handles.Get(key); ok {
			return h, nil
		}
		h, err := c.open(key)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("opened document", "path", key, "id", h.ID(), "pages", h.PageCount())
		c.handles.Add(key, h)
		return h, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of resident handles.
func (c *Cache) Len() int { return c.handles.Len() }

// Close evicts every handle.
func (c *Cache) Close() { c.handles.Purge() }
