package cache

import (
	"fmt"
	"time"

	"rette/internal/core"
)

// SummaryCache memoizes derived paid/remaining pairs. Keys carry the store
// version, so any mutation makes earlier entries unreachable and staleness
// cannot outlive the next read.
type SummaryCache struct {
	lru *LRUCache[core.Summary]
}

func NewSummaryCache(maxSize int, ttl time.Duration) *SummaryCache {
	return &SummaryCache{lru: NewLRUCache[core.Summary](maxSize, ttl)}
}

// Key builds the version-qualified lookup key for one student and period.
func (c *SummaryCache) Key(studentID string, month, year int, version uint64) string {
	return fmt.Sprintf("%s:%d-%d:v%d", studentID, month, year, version)
}

func (c *SummaryCache) Get(key string) (core.Summary, bool) {
	return c.lru.Get(key)
}

func (c *SummaryCache) Set(key string, s core.Summary) {
	c.lru.Set(key, s)
}

// CleanExpired lets the cache manager sweep stale-version entries that will
// never be read again.
func (c *SummaryCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *SummaryCache) Size() int {
	return c.lru.Size()
}
