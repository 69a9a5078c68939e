// Package dedupe tracks submission ids for idempotent writes.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records seen submission ids so a retried write is applied once.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not. The check and the record happen atomically.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the submission can be retried. Used when a
	// recorded submission could not be applied.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in a map and evicts the oldest one once maxSize
// is reached. The ring holds ids in insertion order; slots of unrecorded ids
// are left as tombstones and skipped on eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, -1 in unbounded mode
	ring    []string
	live    []bool
	head    int // oldest slot
	count   int // occupied slots, tombstones included
	maxSize int
}

// NewInMemoryDeduper creates a deduper. A max size of zero or less keeps
// every id forever.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
		d.live = make([]bool, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	for d.count == d.maxSize {
		d.evictOldest()
	}
	slot := (d.head + d.count) % d.maxSize
	d.ring[slot] = id
	d.live[slot] = true
	d.seen[id] = slot
	d.count++
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.live[slot] = false
		d.ring[slot] = ""
	}
}

// evictOldest frees the oldest slot. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.live[d.head] {
		delete(d.seen, d.ring[d.head])
	}
	d.ring[d.head] = ""
	d.live[d.head] = false
	d.head = (d.head + 1) % d.maxSize
	d.count--
}

// Size returns the number of recorded ids.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
