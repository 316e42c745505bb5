package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memoizer stores encoded responses keyed by request signature. The query
// core never sees it; it only saves repeated file reads.
type Memoizer interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	// DeleteExpired drops expired entries and returns how many were removed.
	DeleteExpired() int
	Purge()
	Stats() Stats
}

// Stats summarizes memoizer contents.
type Stats struct {
	Entries     int        `json:"entries"`
	SizeBytes   int        `json:"size_bytes"`
	Hits        uint64     `json:"hits"`
	Misses      uint64     `json:"misses"`
	OldestEntry *time.Time `json:"oldest_entry"`
}

// Key derives a memoization key from a request's method, path and query.
// Query parameters are encoded sorted by name, so their order does not
// matter.
func Key(method, path string, query url.Values) string {
	sum := sha256.Sum256([]byte(method + " " + path + "?" + query.Encode()))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	body     []byte
	storedAt time.Time
}

// TTLMemo is a concurrency-safe Memoizer whose entries expire after a fixed
// time-to-live.
type TTLMemo struct {
	mu    sync.RWMutex
	cache *ttlcache.Cache[string, entry]
	ttl   time.Duration
}

// NewTTLMemo creates a TTLMemo. Expired entries are never served; they are
// reclaimed by DeleteExpired.
func NewTTLMemo(ttl time.Duration) *TTLMemo {
	return &TTLMemo{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, entry](ttl),
			ttlcache.WithDisableTouchOnHit[string, entry](),
		),
		ttl: ttl,
	}
}

func (m *TTLMemo) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item := m.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value().body, true
}

func (m *TTLMemo) Set(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	m.cache.Set(key, entry{body: stored, storedAt: time.Now()}, ttlcache.DefaultTTL)
}

func (m *TTLMemo) DeleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Len already ignores expired items, so count the evictions instead.
	before := m.cache.Metrics().Evictions
	m.cache.DeleteExpired()
	return int(m.cache.Metrics().Evictions - before)
}

func (m *TTLMemo) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.DeleteAll()
}

func (m *TTLMemo) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.cache.Metrics()
	stats := Stats{
		Hits:   cm.Hits,
		Misses: cm.Misses,
	}
	for _, item := range m.cache.Items() {
		if item.IsExpired() {
			continue
		}
		v := item.Value()
		stats.Entries++
		stats.SizeBytes += len(v.body)
		if stats.OldestEntry == nil || v.storedAt.Before(*stats.OldestEntry) {
			t := v.storedAt
			stats.OldestEntry = &t
		}
	}
	return stats
}

// Nop never stores anything. It is used when response caching is disabled.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte)        {}
func (Nop) DeleteExpired() int        { return 0 }
func (Nop) Purge()                    {}
func (Nop) Stats() Stats              { return Stats{} }

// New returns a TTLMemo, or Nop when ttl is not positive.
func New(ttl time.Duration) Memoizer {
	if ttl <= 0 {
		return Nop{}
	}
	return NewTTLMemo(ttl)
}
