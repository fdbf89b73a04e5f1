// Package cache persists rendered documents keyed by canonical URL,
// with TTL expiry and single-flight coalescing of concurrent renders.
package cache

import "time"

// Entry is one stored document. A write is atomic from the reader's
// perspective; readers never observe a partial entry.
type Entry struct {
	Content    string
	StoredAt   int64 // unix seconds
	TTLSeconds int
}

// Valid reports whether the entry is still live at the given instant.
// Expired entries are treated exactly like absent ones.
func (e Entry) Valid(now time.Time) bool {
	expiry := time.Unix(e.StoredAt, 0).Add(time.Duration(e.TTLSeconds) * time.Second)
	return now.Before(expiry)
}

// Store is the fallible persistence backend. Implementations must
// allow concurrent readers and serialize writes per key.
type Store interface {
	// Get returns the entry for key, with ok=false when absent.
	Get(key string) (Entry, bool, error)
	// Put stores the entry, overwriting any previous value.
	Put(key string, ent Entry) error
	// Delete removes the entry; deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists all stored keys, expired ones included.
	Keys() ([]string, error)
	Close() error
}
