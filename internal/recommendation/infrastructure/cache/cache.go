package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Default TTLs per variant.
const (
	DefaultAdvancedTTL = 5 * time.Minute
	DefaultBasicTTL    = 2 * time.Minute
)

// Stats is a point-in-time view of cache usage.
type Stats struct {
	TotalEntries int     `json:"total_entries"`
	HitRate      float64 `json:"hit_rate"`
	MemoryUsage  int64   `json:"memory_usage"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
}

// Cache holds recommendation payloads keyed by user and variant. Entries
// are stale once their TTL elapses or the caller's fingerprint changes.
type Cache struct {
	store  Store
	ttls   map[Variant]time.Duration
	now    func() time.Time
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL sets the default TTL of a variant.
func WithTTL(variant Variant, ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttls[variant] = ttl
		}
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache on store. A nil store uses a MemoryStore.
func New(store Store, opts ...Option) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{
		store: store,
		ttls: map[Variant]time.Duration{
			VariantAdvanced: DefaultAdvancedTTL,
			VariantBasic:    DefaultBasicTTL,
		},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the default TTL of a variant.
func (c *Cache) TTL(variant Variant) time.Duration {
	if ttl, ok := c.ttls[variant]; ok {
		return ttl
	}
	return DefaultAdvancedTTL
}

// lookup loads a live entry, evicting it when expired or corrupt.
func (c *Cache) lookup(ctx context.Context, key string, variant Variant) (*Entry, bool) {
	entry, err := c.store.Load(ctx, key, variant)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil, false
	case errors.Is(err, domain.ErrCorruptEntry):
		c.logger.WarnContext(ctx, "evicting corrupt cache entry",
			"key", key,
			"variant", variant,
			"error", err,
		)
		c.evict(ctx, key, variant)
		return nil, false
	default:
		c.logger.WarnContext(ctx, "cache load failed",
			"key", key,
			"variant", variant,
			"error", err,
		)
		return nil, false
	}

	if _, err := payloadKind(entry.Payload); err != nil {
		c.logger.WarnContext(ctx, "evicting cache entry with unexpected payload",
			"key", key,
			"variant", variant,
			"error", err,
		)
		c.evict(ctx, key, variant)
		return nil, false
	}

	if entry.IsExpired(c.now()) {
		c.evict(ctx, key, variant)
		return nil, false
	}
	return entry, true
}

func (c *Cache) evict(ctx context.Context, key string, variant Variant) {
	if err := c.store.Delete(ctx, key, variant); err != nil {
		c.logger.WarnContext(ctx, "cache delete failed",
			"key", key,
			"variant", variant,
			"error", err,
		)
	}
}

func (c *Cache) record(entry *Entry, ok bool) (*Entry, bool) {
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return entry, ok
}

// Get returns the live entry for (key, variant). Absent, expired and corrupt
// entries count as misses.
func (c *Cache) Get(ctx context.Context, key string, variant Variant) (*Entry, bool) {
	return c.record(c.lookup(ctx, key, variant))
}

// GetFresh is Get that also treats a fingerprint mismatch as a miss and
// evicts the stale entry.
func (c *Cache) GetFresh(ctx context.Context, key string, variant Variant, fingerprint uint64) (*Entry, bool) {
	entry, ok := c.lookup(ctx, key, variant)
	if ok && entry.Fingerprint != fingerprint {
		c.evict(ctx, key, variant)
		return c.record(nil, false)
	}
	return c.record(entry, ok)
}

// Set stores payload for (key, variant), replacing any existing entry. A
// non-positive ttl uses the variant default.
func (c *Cache) Set(ctx context.Context, key string, payload any, fingerprint uint64, variant Variant, ttl time.Duration) error {
	if _, err := payloadKind(payload); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.TTL(variant)
	}

	var size int64
	if data, err := json.Marshal(payload); err == nil {
		size = int64(len(data))
	}

	return c.store.Save(ctx, &Entry{
		Key:         key,
		Variant:     variant,
		Payload:     payload,
		Fingerprint: fingerprint,
		CreatedAt:   c.now(),
		TTL:         ttl,
		Size:        size,
	})
}

// Has reports whether a live entry exists. It does not affect hit counters.
func (c *Cache) Has(ctx context.Context, key string, variant Variant) bool {
	_, ok := c.lookup(ctx, key, variant)
	return ok
}

// HasChanged reports whether there is no live entry or its fingerprint
// differs from fingerprint.
func (c *Cache) HasChanged(ctx context.Context, key string, fingerprint uint64, variant Variant) bool {
	entry, ok := c.lookup(ctx, key, variant)
	return !ok || entry.Fingerprint != fingerprint
}

// Invalidate removes the given variants of key, or every variant when none
// are given.
func (c *Cache) Invalidate(ctx context.Context, key string, variants ...Variant) error {
	if len(variants) == 0 {
		variants = AllVariants
	}
	var errs []error
	for _, v := range variants {
		if err := c.store.Delete(ctx, key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cleanup evicts expired entries and returns how many were removed.
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	entries, err := c.store.Entries(ctx)
	if err != nil {
		return 0, err
	}
	now := c.now()
	removed := 0
	for _, e := range entries {
		if e.IsExpired(now) {
			if err := c.store.Delete(ctx, e.Key, e.Variant); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Stats reports live entries, hit rate as a percentage and an estimate of
// the memory held by payloads.
func (c *Cache) Stats(ctx context.Context) Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	stats := Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = math.Round(float64(hits)/float64(total)*10000) / 100
	}

	entries, err := c.store.Entries(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "cache stats unavailable", "error", err)
		return stats
	}
	now := c.now()
	for _, e := range entries {
		if e.IsExpired(now) {
			continue
		}
		stats.TotalEntries++
		stats.MemoryUsage += e.Size + int64(len(e.Key)+len(e.Variant))
	}
	return stats
}
