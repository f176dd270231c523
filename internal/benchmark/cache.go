package benchmark

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
)

// DefaultTTL is how long a fetched sequence stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is a cached sequence and when it was fetched.
type Entry struct {
	Points   []Point
	CachedAt time.Time
}

// Fresh reports whether the entry is still inside its validity window.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return !e.CachedAt.IsZero() && now.Sub(e.CachedAt) < ttl
}

// Fetcher returns all bracket groupings for a hero and position in one call.
type Fetcher interface {
	FetchHeroBenchmarks(ctx context.Context, heroID int, position string) (map[Grouping][]Point, error)
}

// Persister is a second cache tier that survives process restarts.
type Persister interface {
	LoadBenchmark(ctx context.Context, key Key) (*Entry, error)
	SaveBenchmarks(ctx context.Context, heroID int, position string, entries map[Grouping]Entry) error
}

type CacheConfig struct {
	Fetcher   Fetcher
	Persister Persister
	TTL       time.Duration
	Now       func() time.Time
	Logger    *logging.Logger
}

// Cache is a read-through benchmark cache: memory, then Persister, then Fetcher.
// Concurrent misses for the same hero and position share one fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	fetcher   Fetcher
	persister Persister
	ttl       time.Duration
	now       func() time.Time
	logger    *logging.Logger
	flight    singleflight.Group
}

func NewCache(cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{
		entries:   make(map[Key]Entry),
		fetcher:   cfg.Fetcher,
		persister: cfg.Persister,
		ttl:       ttl,
		now:       now,
		logger:    logger,
	}
}

// Get returns the sequence for key, fetching it on a miss or after expiry.
// Failures are marked apperr.ErrBenchmarkUnavailable.
func (c *Cache) Get(ctx context.Context, key Key) ([]Point, error) {
	if e, ok := c.Peek(key); ok {
		c.logger.DebugContext(ctx, "benchmark cache hit", "key", key.String(), "tier", "memory")
		return e.Points, nil
	}

	if c.persister != nil {
		e, err := c.persister.LoadBenchmark(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "benchmark persister read failed", "key", key.String(), "error", err)
		} else if e != nil && e.Fresh(c.now(), c.ttl) {
			c.store(key, *e)
			c.logger.DebugContext(ctx, "benchmark cache hit", "key", key.String(), "tier", "persisted")
			return e.Points, nil
		}
	}

	c.logger.DebugContext(ctx, "benchmark cache miss", "key", key.String())
	if err := c.populate(ctx, key.HeroID, key.Position); err != nil {
		return nil, err
	}
	e, ok := c.Peek(key)
	if !ok {
		return nil, apperr.BenchmarkUnavailable(nil, "no benchmark data for %s", key)
	}
	return e.Points, nil
}

// Refresh fetches all groupings for a hero and position regardless of freshness.
func (c *Cache) Refresh(ctx context.Context, heroID int, position string) error {
	return c.populate(ctx, heroID, position)
}

// Peek returns a fresh in-memory entry without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !e.Fresh(c.now(), c.ttl) {
		return Entry{}, false
	}
	return e, true
}

// Purge drops every in-memory entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[Key]Entry)
	c.mu.Unlock()
}

// Len returns the number of in-memory entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) store(key Key, e Entry) {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *Cache) populate(ctx context.Context, heroID int, position string) error {
	if c.fetcher == nil {
		return apperr.BenchmarkUnavailable(nil, "no benchmark source configured for hero %d %s", heroID, position)
	}

	flightKey := Key{HeroID: heroID, Position: position}.flightKey()
	_, err, shared := c.flight.Do(flightKey, func() (any, error) {
		groups, err := c.fetcher.FetchHeroBenchmarks(ctx, heroID, position)
		if err != nil {
			return nil, err
		}

		cachedAt := c.now()
		entries := make(map[Grouping]Entry, len(groups))
		for g, points := range groups {
			e := Entry{Points: points, CachedAt: cachedAt}
			entries[g] = e
			c.store(Key{HeroID: heroID, Position: position, Grouping: g}, e)
		}

		if c.persister != nil {
			if err := c.persister.SaveBenchmarks(ctx, heroID, position, entries); err != nil {
				c.logger.WarnContext(ctx, "benchmark persister write failed", "hero_id", heroID, "position", position, "error", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "benchmark fetch failed", "hero_id", heroID, "position", position, "shared", shared, "error", err)
		return apperr.BenchmarkUnavailable(err, "fetch benchmarks for hero %d %s", heroID, position)
	}
	return nil
}

// Resolve returns the at-or-before point for minute from the cached sequence.
func Resolve(ctx context.Context, c *Cache, key Key, minute int) (*Point, error) {
	points, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	p := AtOrBefore(points, minute)
	if p == nil {
		return nil, apperr.BenchmarkUnavailable(nil, "no benchmark points for %s", key)
	}
	return p, nil
}
