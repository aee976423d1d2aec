package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/StakeBot_Go/internal/repository"
)

// CacheSchemaVersion is the current version of the cache schema.
// Increment when the cached data structure changes to auto-invalidate
// old entries.
const CacheSchemaVersion = "1.0"

// cachedSessionEntry wraps a session with version metadata for cache
// invalidation
type cachedSessionEntry struct {
	Version  string
	Session  *repository.Session
	CachedAt time.Time
}

// sessionCache provides an in-memory LRU cache for session proofs with
// time-based expiration, keeping validated sessions off the hot path to
// the store.
type sessionCache struct {
	lru *expirable.LRU[string, *cachedSessionEntry]
}

func newSessionCache(size int, ttl time.Duration) *sessionCache {
	return &sessionCache{
		lru: expirable.NewLRU[string, *cachedSessionEntry](size, nil, ttl),
	}
}

// Get retrieves a session from the cache. Returns (session, true) only
// when found, unexpired, and the schema version matches.
func (c *sessionCache) Get(key string) (*repository.Session, bool) {
	entry, found := c.lru.Get(key)
	if !found {
		return nil, false
	}

	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(key)
		return nil, false
	}
	if time.Now().After(entry.Session.Expires) {
		c.lru.Remove(key)
		return nil, false
	}

	return entry.Session, true
}

// Set stores a session in the cache with the current schema version
func (c *sessionCache) Set(key string, sess *repository.Session) {
	c.lru.Add(key, &cachedSessionEntry{
		Version:  CacheSchemaVersion,
		Session:  sess,
		CachedAt: time.Now(),
	})
}

// Invalidate removes a session from the cache
func (c *sessionCache) Invalidate(key string) {
	c.lru.Remove(key)
}
