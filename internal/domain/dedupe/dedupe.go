// Package dedupe tracks which submissions are already known so a repeated
// request maps back to the analysis it started.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper maps idempotency keys to analysis ids.
type Deduper interface {
	// Claim records id under key unless the key is already held. It returns
	// the id holding the key and whether the key was already present.
	Claim(ctx context.Context, key, id string) (string, bool)

	// Release forgets key so the submission can be retried. Used when a
	// claimed job could not be enqueued.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key string
	id  string
}

// inMemoryDeduper keeps keys in insertion order. In bounded mode the oldest
// key is evicted once maxSize is reached; maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory Deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(*entry).id, true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushFront(&entry{key: key, id: id})
	d.size.Add(1)
	return id, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*entry).key)
	d.size.Add(-1)
}

// Size returns the number of keys held.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
