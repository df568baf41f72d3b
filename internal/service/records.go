package service

import (
	"sort"
	"sync"

	"marketpulse/internal/domain"
)

// RecordCache is the latest-wins per-symbol store of derived records. A new
// record fully replaces the prior one; partial fields are never merged.
// UpdatedAt is monotonically non-decreasing per symbol: stale records are
// dropped, not applied.
type RecordCache struct {
	mu      sync.RWMutex
	records map[string]domain.MarketRecord
}

// NewRecordCache creates an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{records: make(map[string]domain.MarketRecord)}
}

// Upsert applies records, skipping any older than what is already stored.
func (c *RecordCache) Upsert(records ...domain.MarketRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range records {
		if existing, ok := c.records[rec.Symbol]; ok && existing.UpdatedAt.After(rec.UpdatedAt) {
			continue
		}
		c.records[rec.Symbol] = rec
	}
}

// Get returns the latest record for a symbol.
func (c *RecordCache) Get(symbol string) (domain.MarketRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[symbol]
	return rec, ok
}

// All returns every record sorted by symbol for consistent ordering.
func (c *RecordCache) All() []domain.MarketRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.MarketRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of cached symbols.
func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
