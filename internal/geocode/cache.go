package geocode

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultCacheTTL is how long a resolved address stays valid.
const DefaultCacheTTL = 30 * 24 * time.Hour

// LookupResult classifies a cache lookup for metrics.
type LookupResult string

const (
	LookupHit     LookupResult = "hit"
	LookupMiss    LookupResult = "miss"
	LookupExpired LookupResult = "expired"
)

type cacheEntry struct {
	coords    domain.Coordinates
	createdAt time.Time
}

// Cache maps normalized addresses to resolved coordinates for a fixed TTL.
// Expired entries are evicted lazily by the lookup that finds them.
// It is in-memory only and safe for concurrent use.
type Cache struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates an empty cache. A non-positive ttl selects DefaultCacheTTL;
// a nil clock selects the real clock.
func NewCache(ttl time.Duration, clock clockwork.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached coordinates for address if present and younger than the TTL.
func (c *Cache) Get(address string) (domain.Coordinates, bool) {
	coords, result := c.Lookup(address)
	return coords, result == LookupHit
}

// Lookup is Get with the reason for a miss.
func (c *Cache) Lookup(address string) (domain.Coordinates, LookupResult) {
	key := cacheKey(address)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.Coordinates{}, LookupMiss
	}
	if c.clock.Since(e.createdAt) < c.ttl {
		return e.coords, LookupHit
	}

	c.mu.Lock()
	// A concurrent Set may have refreshed the entry since we read it.
	if cur, ok := c.entries[key]; ok && cur.createdAt.Equal(e.createdAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return domain.Coordinates{}, LookupExpired
}

// Set stores coordinates for address, replacing any existing entry.
func (c *Cache) Set(address string, coords domain.Coordinates) {
	key := cacheKey(address)
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[key] = cacheEntry{coords: coords, createdAt: now}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cacheKey case-folds and trims the address, then hashes it.
func cacheKey(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}
