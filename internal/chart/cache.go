package chart

import "github.com/m-ruiz/codex-usage-tui/internal/models"

// DataCache memoizes the last successfully retrieved dataset per window
// key. Bounded by the fixed key set; no TTL, no proactive invalidation. An
// entry is only ever replaced by a newer successful retrieval, so the
// custom slot is overwritten, never accumulated.
type DataCache struct {
	entries map[models.WindowKey]*models.Dataset
}

// NewDataCache creates an empty cache.
func NewDataCache() *DataCache {
	return &DataCache{entries: make(map[models.WindowKey]*models.Dataset, len(models.WindowKeys()))}
}

// Get returns the cached dataset for a key, or nil.
func (c *DataCache) Get(key models.WindowKey) *models.Dataset {
	return c.entries[key]
}

// Has reports whether the key holds a dataset.
func (c *DataCache) Has(key models.WindowKey) bool {
	return c.entries[key] != nil
}

// Put stores a dataset for a key, replacing any prior entry. Unknown keys
// are ignored so the cache stays bounded.
func (c *DataCache) Put(key models.WindowKey, ds *models.Dataset) {
	if !key.Valid() || ds == nil {
		return
	}
	c.entries[key] = ds
}
