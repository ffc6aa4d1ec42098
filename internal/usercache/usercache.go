// Package usercache persists handle→user-id lookups so repeat cycles
// stay off the provider's strictest rate limit. A go-cache layer keeps
// lookups hot in memory; the JSON file carries them across invocations.
package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"compintel/internal/ports"
)

// DefaultTTL matches how long provider user ids can be assumed stable.
const DefaultTTL = 30 * 24 * time.Hour

type entry struct {
	UserID   string `json:"user_id"`
	CachedAt string `json:"cached_at"`
}

// Cache wraps an upstream lookup with a memory-plus-file cache. Expired
// entries leave the file only through an explicit CleanupExpired call.
type Cache struct {
	path   string
	ttl    time.Duration
	mem    *gocache.Cache
	lookup ports.UserLookup
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.UserLookup = (*Cache)(nil)

// New loads the cache file and primes the in-memory layer with each
// entry's remaining lifetime.
func New(path string, ttl time.Duration, lookup ports.UserLookup, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		path:   path,
		ttl:    ttl,
		mem:    gocache.New(ttl, 0),
		lookup: lookup,
		logger: logger,
		now:    time.Now,
	}
	c.prime()
	return c
}

// LookupID returns the cached id when fresh, otherwise asks the
// upstream lookup once. Any upstream failure comes back as
// ErrUnavailable so the caller skips the handle this cycle instead of
// failing the run.
func (c *Cache) LookupID(ctx context.Context, handle string) (string, error) {
	if v, ok := c.mem.Get(handle); ok {
		if id, ok := v.(string); ok {
			c.debug("using cached user id", "handle", handle)
			return id, nil
		}
	}

	if c.lookup == nil {
		return "", ports.ErrUnavailable
	}

	id, err := c.lookup.LookupID(ctx, handle)
	if err != nil {
		if errors.Is(err, ports.ErrRateLimited) {
			c.warn("user lookup rate limited, deferring to next cycle", "handle", handle)
		} else {
			c.warn("user lookup failed", "handle", handle, "error", err)
		}
		return "", ports.ErrUnavailable
	}

	c.store(handle, id)
	return id, nil
}

// Cached reports whether handle has a fresh entry.
func (c *Cache) Cached(handle string) bool {
	_, ok := c.mem.Get(handle)
	return ok
}

// Size returns the number of cached entries, counting any expired ones
// not yet cleaned up.
func (c *Cache) Size() int { return c.mem.ItemCount() }

// CleanupExpired rewrites the file keeping only fresh entries and
// reports how many were dropped. Expiry never runs on its own.
func (c *Cache) CleanupExpired() int {
	c.mem.DeleteExpired()

	entries := c.loadFile()
	kept := make(map[string]entry, len(entries))
	for handle, e := range entries {
		if c.fresh(e) {
			kept[handle] = e
		}
	}
	removed := len(entries) - len(kept)
	if removed > 0 {
		c.saveFile(kept)
	}
	return removed
}

func (c *Cache) prime() {
	for handle, e := range c.loadFile() {
		cachedAt, err := time.Parse(time.RFC3339, e.CachedAt)
		if err != nil {
			continue
		}
		remaining := c.ttl - c.now().Sub(cachedAt)
		if remaining <= 0 {
			continue
		}
		c.mem.Set(handle, e.UserID, remaining)
	}
}

func (c *Cache) store(handle, id string) {
	c.mem.Set(handle, id, gocache.DefaultExpiration)

	entries := c.loadFile()
	entries[handle] = entry{UserID: id, CachedAt: c.now().Format(time.RFC3339)}
	c.saveFile(entries)
	c.debug("cached user id", "handle", handle)
}

func (c *Cache) fresh(e entry) bool {
	cachedAt, err := time.Parse(time.RFC3339, e.CachedAt)
	if err != nil {
		return false
	}
	return c.now().Before(cachedAt.Add(c.ttl))
}

func (c *Cache) loadFile() map[string]entry {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return map[string]entry{}
	}
	var entries map[string]entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.warn("user cache unreadable, starting empty", "path", c.path, "error", err)
		return map[string]entry{}
	}
	if entries == nil {
		entries = map[string]entry{}
	}
	return entries
}

func (c *Cache) saveFile(entries map[string]entry) {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		c.warn("cannot encode user cache", "error", err)
		return
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		c.warn("cannot save user cache", "path", c.path, "error", err)
	}
}

func (c *Cache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Cache) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
