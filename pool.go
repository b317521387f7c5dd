// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"weak"
)

// Pool is a thread-safe pool of Arena instances. It exists for consumers
// that need arenas across many goroutines: each task acquires its own
// exclusively-owned arena, so the arenas themselves stay lock-free.
//
// Pooled arenas are held through weak pointers, so the GC may collect an
// idle arena at any time; before handing one out the pool upgrades the weak
// pointer to a strong one, and Release turns it back into a weak pointer.
// This lets the GC size the pool to the available memory on its own.
//
// The pool also records the peak usage of released arenas per key, so a
// freshly created arena for a known key starts with a head block sized to
// that key's typical demand instead of growing into it.
type Pool struct {
	pool  []weak.Pointer[PoolItem]
	sizes map[uint64]*poolItemSize
	mu    sync.Mutex
}

// poolItemSize tracks the recent memory demand of arenas released under one key.
type poolItemSize struct {
	count      int
	totalBytes int
}

// PoolItem wraps a pooled Arena together with the key it was acquired under.
type PoolItem struct {
	Arena Arena
	Key   uint64
}

// defaultPoolArenaSize is the head block capacity for keys the pool has not
// seen before.
const defaultPoolArenaSize = 1024 * 1024

// NewArenaPool creates an empty Pool.
func NewArenaPool() *Pool {
	return &Pool{
		sizes: make(map[uint64]*poolItemSize),
	}
}

// Acquire returns an arena from the pool, creating one when none is
// available. The key identifies the use case and drives the sizing of
// newly created arenas.
func (p *Pool) Acquire(key uint64) *PoolItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pool) > 0 {
		lastIdx := len(p.pool) - 1
		wp := p.pool[lastIdx]
		p.pool = p.pool[:lastIdx]

		if v := wp.Value(); v != nil {
			v.Key = key
			return v
		}
		// GC collected this one, try the next.
	}

	return &PoolItem{
		Arena: NewChainedArena(WithInitialCapacity(p.arenaSizeFor(key))),
		Key:   key,
	}
}

// Release resets the item's arena and returns it to the pool, recording its
// peak usage so future arenas for the same key are sized appropriately.
// The caller must not use the item, or any memory allocated from its arena,
// after Release.
func (p *Pool) Release(item *PoolItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release(item)
}

// ReleaseMany releases a batch of items under a single lock acquisition.
func (p *Pool) ReleaseMany(items []*PoolItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		p.release(item)
	}
}

// release must be called with p.mu held.
func (p *Pool) release(item *PoolItem) {
	peak := item.Arena.Peak()
	item.Arena.Reset()

	if size, ok := p.sizes[item.Key]; ok {
		// Keep a rolling window of the last 50 releases.
		if size.count == 50 {
			size.count = 1
			size.totalBytes = size.totalBytes / 50
		}
		size.count++
		size.totalBytes += peak
	} else {
		p.sizes[item.Key] = &poolItemSize{
			count:      1,
			totalBytes: peak,
		}
	}

	item.Key = 0
	p.pool = append(p.pool, weak.Make(item))
}

// arenaSizeFor returns the head block capacity for a new arena under the
// given key: the average peak of recent releases, or a 1MB default for
// unknown keys. Must be called with p.mu held.
func (p *Pool) arenaSizeFor(key uint64) int {
	if size, ok := p.sizes[key]; ok && size.count > 0 {
		if avg := size.totalBytes / size.count; avg > 0 {
			return avg
		}
	}
	return defaultPoolArenaSize
}
