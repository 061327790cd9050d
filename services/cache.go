package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionCache is a TTL cache for owner-scoped resources (settings
// documents, plan lists) with stale-while-revalidate reads.
//
// One instance is shared by every session for the process lifetime; the
// owner id baked into every key is the structural guard against serving one
// owner's data under another owner's session. The auth boundary calls
// InvalidateOwner on login so a fresh session never inherits earlier reads.
// A value older than the TTL is logically empty for correctness decisions
// but may still be rendered while a refresh is in flight; entries past the
// retention horizon are evicted by a background janitor.
type SessionCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	entries  map[CacheKey]cacheEntry
	inflight map[CacheKey]struct{}
	log      *logrus.Logger
	stop     chan struct{}
}

// CacheKey identifies one cached resource for one owner. The owner id is
// part of the key, not a convention: a hit under the wrong owner is a data
// leak, not a staleness bug.
type CacheKey struct {
	OwnerID string
	Kind    string // e.g. "settings:health_profile", "meal_plans"
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// CachedValue annotates a hit with its age so callers can decide whether it
// is fresh enough for correctness or only good for immediate rendering.
type CachedValue struct {
	Value any
	Age   time.Duration
	Stale bool
}

type FetchFunc func(ctx context.Context) (any, error)

const DefaultCacheTTL = 5 * time.Minute

// cacheRetentionFactor bounds how long a stale entry stays useful as
// last-known-good render material. Past ttl*factor the janitor drops it, so
// a departed user's data does not live in memory indefinitely.
const cacheRetentionFactor = 10

func NewSessionCache(ttl time.Duration, log *logrus.Logger) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &SessionCache{
		ttl:      ttl,
		entries:  make(map[CacheKey]cacheEntry),
		inflight: make(map[CacheKey]struct{}),
		log:      log,
		stop:     make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *SessionCache) janitor() {
	t := time.NewTicker(c.ttl)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.evictExpired(cacheRetentionFactor * c.ttl)
		}
	}
}

func (c *SessionCache) evictExpired(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.storedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Close stops the janitor. The router's instance lives for the process;
// Close exists for tests and embedded uses.
func (c *SessionCache) Close() {
	close(c.stop)
}

// Get returns the cached value for key, if any. Stale entries are still
// returned (Stale=true) so the UI can render last-known-good content while
// a refresh runs.
func (c *SessionCache) Get(key CacheKey) (CachedValue, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CachedValue{}, false
	}
	age := time.Since(entry.storedAt)
	return CachedValue{Value: entry.value, Age: age, Stale: age > c.ttl}, true
}

// Set stores value under key with the current timestamp.
func (c *SessionCache) Set(key CacheKey, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// Invalidate drops one entry. Write operations call this (or Set) so a
// subsequent read cannot race ahead of a stale copy.
func (c *SessionCache) Invalidate(key CacheKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateOwner drops every entry belonging to one owner. Called at the
// auth boundary: a fresh login must not inherit entries cached before it.
func (c *SessionCache) InvalidateOwner(ownerID string) {
	c.mu.Lock()
	for key := range c.entries {
		if key.OwnerID == ownerID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear empties the cache entirely.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[CacheKey]cacheEntry)
	c.mu.Unlock()
}

// GetOrRefresh implements the read path of stale-while-revalidate:
//
//   - cache hit (fresh or stale): return it immediately and kick off a
//     background refresh, unless one is already in flight for this key;
//   - cache miss: fetch synchronously and store the result.
//
// A failed background refresh leaves the cached value in place; last-known
// -good beats nothing. Only a miss propagates the fetch error.
func (c *SessionCache) GetOrRefresh(ctx context.Context, key CacheKey, fetch FetchFunc) (CachedValue, error) {
	if cached, ok := c.Get(key); ok {
		c.refreshAsync(ctx, key, fetch)
		return cached, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return CachedValue{}, err
	}
	c.Set(key, value)
	return CachedValue{Value: value}, nil
}

func (c *SessionCache) refreshAsync(ctx context.Context, key CacheKey, fetch FetchFunc) {
	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		value, err := fetch(ctx)
		if err != nil {
			// keep serving the stale value; surface a warning only
			if c.log != nil {
				c.log.WithFields(logrus.Fields{
					"owner": key.OwnerID,
					"kind":  key.Kind,
					"error": err.Error(),
				}).Warn("cache refresh failed, keeping cached value")
			}
			return
		}
		c.Set(key, value)
	}()
}
