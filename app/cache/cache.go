package cache

import (
	"log"
	"sync"
	"sync/atomic"

	"contactimport/app/interfaces"
)

// Cache provides LRU caching of pipeline stage results keyed by file
// fingerprint and parse options. It is purely an optimization: every result
// is identical with the cache disabled, so the session controller can run
// without one.

// Stage names used in cache keys.
const (
	StageParse    = "parse"
	StageAnalyze  = "analyze"
	StageClassify = "classify"
)

// DefaultMaxSize is the default cache size limit (64MB).
const DefaultMaxSize = 64 * 1024 * 1024

// Entry holds one cached stage result. Exactly one of the payload fields is
// set, matching the stage in the key.
type Entry struct {
	Grid     *interfaces.Grid
	Analysis *interfaces.StructuralAnalysis
	Mappings []interfaces.ColumnMapping

	size int64
}

// Cache is safe for concurrent use by independent import sessions.
type Cache struct {
	mu          sync.Mutex
	storage     map[string]*Entry
	lru         *LRUList
	maxSize     int64
	currentSize int64

	// Performance counters
	hits   int64
	misses int64
}

// New creates a cache with the given size limit in bytes.
func New(maxSize int64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		storage: make(map[string]*Entry),
		lru:     NewLRUList(),
		maxSize: maxSize,
	}
}

// Get retrieves a cache entry and marks it as recently used.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.storage[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	c.lru.MoveToFront(key)
	return entry, true
}

// Store inserts a stage result, evicting least recently used entries when
// the size limit is exceeded. Entries larger than the whole cache are
// skipped rather than evicting everything else.
func (c *Cache) Store(key string, entry *Entry) {
	entry.size = entrySize(entry)
	if entry.size > c.maxSize {
		log.Printf("[CACHE_SKIP] Entry too large for cache: %s (%d bytes > %d limit)",
			key, entry.size, c.maxSize)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.storage[key]; exists {
		c.currentSize -= old.size
	}

	c.storage[key] = entry
	c.currentSize += entry.size
	c.lru.AddToFront(key)

	for c.currentSize > c.maxSize {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		if evicted, exists := c.storage[oldest]; exists {
			c.currentSize -= evicted.size
			delete(c.storage, oldest)
		}
	}
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage = make(map[string]*Entry)
	c.lru = NewLRUList()
	c.currentSize = 0
}

// entrySize estimates the memory footprint of an entry's payload.
func entrySize(e *Entry) int64 {
	var size int64 = 64 // struct overhead

	if e.Grid != nil {
		for _, h := range e.Grid.Header {
			size += int64(len(h))
		}
		for _, row := range e.Grid.Rows {
			for _, cell := range row {
				size += int64(len(cell)) + 16
			}
		}
	}
	if e.Analysis != nil {
		for _, issue := range e.Analysis.Issues {
			size += int64(len(issue.Message)) + 32
		}
	}
	for _, m := range e.Mappings {
		size += int64(len(m.OriginalHeader)+len(m.TargetField)) + 64
		for _, ex := range m.Examples {
			size += int64(len(ex))
		}
	}

	return size
}
