package dashclient

import (
	"sync"
	"time"
)

// Document is the client-side view of one uploaded document, matching the
// wire shape of the documents endpoints.
type Document struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	FileType        string    `json:"file_type"`
	FileSize        int64     `json:"file_size"`
	UploadDate      time.Time `json:"upload_date"`
	Processed       bool      `json:"processed"`
	ProcessingError *string   `json:"processing_error"`
	PageCount       int       `json:"page_count,omitempty"`
}

// Pending reports whether the document has not reached a terminal state.
func (d *Document) Pending() bool {
	return !d.Processed && d.ProcessingError == nil
}

// DocumentCache holds the documents the dashboard currently shows and merges
// push updates into them. Apply is idempotent and order-tolerant across
// documents: updates for different documents commute, and replaying an
// update changes nothing.
type DocumentCache struct {
	mu         sync.RWMutex
	docs       map[int64]Document
	statsStale bool
}

func NewDocumentCache() *DocumentCache {
	return &DocumentCache{docs: map[int64]Document{}}
}

// SetDocuments replaces the cached set, typically from a list refetch.
// A full refetch is authoritative, so the stats-stale flag clears.
func (c *DocumentCache) SetDocuments(docs []Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[int64]Document, len(docs))
	for _, doc := range docs {
		c.docs[doc.ID] = doc
	}
	c.statsStale = false
}

// Apply merges one status update. Only the processed flag and processing
// error change; every other field keeps its cached value. An update for a
// document the cache does not hold is a no-op: the next list refetch will
// bring the full row. Within one document the latest applied update wins.
func (c *DocumentCache) Apply(update StatusUpdate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[update.DocumentID]
	if !ok {
		return false
	}
	doc.Processed = update.Processed
	doc.ProcessingError = update.ProcessingError
	c.docs[update.DocumentID] = doc
	c.statsStale = true
	return true
}

// Get returns a copy of one cached document.
func (c *DocumentCache) Get(id int64) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	return doc, ok
}

// Snapshot returns a copy of every cached document.
func (c *DocumentCache) Snapshot() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Document, 0, len(c.docs))
	for _, doc := range c.docs {
		out = append(out, doc)
	}
	return out
}

// Len reports how many documents the cache holds.
func (c *DocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// StatsStale reports whether derived aggregates need recomputing because a
// status update landed since the last refetch.
func (c *DocumentCache) StatsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsStale
}

// MarkStatsFresh clears the stale flag after aggregates were recomputed.
func (c *DocumentCache) MarkStatsFresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statsStale = false
}

// Counts derives the dashboard counters from the cached documents.
func (c *DocumentCache) Counts() (total, processed, pending, failed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		total++
		switch {
		case doc.ProcessingError != nil:
			failed++
		case doc.Processed:
			processed++
		default:
			pending++
		}
	}
	return total, processed, pending, failed
}
