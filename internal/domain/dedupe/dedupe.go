// Package dedupe tracks keys already seen within a batch so that repeated
// (project, sprint) pairs are processed at most once.
package dedupe

import "sync"

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. Safe for concurrent use.
	SeenAndRecord(key string) bool

	Size() int
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	hint int
}

// NewInMemoryDeduper creates an unbounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.hint)
	return d
}

// Seed returns a deduper that already holds keys.
func Seed(keys []string, opts ...Option) Deduper {
	d := NewInMemoryDeduper(append([]Option{WithCapacity(len(keys))}, opts...)...)
	for _, k := range keys {
		d.SeenAndRecord(k)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
