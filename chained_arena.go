// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"
	"io"
	"unsafe"
)

const (
	// DefaultBlockSize is the capacity, in bytes, of the head block when no
	// initial capacity is configured. The floor keeps pathologically small
	// arenas from spawning a storm of tiny blocks.
	DefaultBlockSize = 128

	// Alignment is the boundary every allocation size is rounded up to.
	// Must be a power of two. Fixed per build; changing it changes the
	// layout of every arena in the binary.
	Alignment = 8
)

// MemoryProvider supplies backing memory for arena blocks. It must return a
// slice of exactly n bytes whose base address is a multiple of Alignment;
// the arena only ever requests sizes that are themselves multiples of
// Alignment, which is enough for the default provider since the Go runtime
// aligns such allocations to at least 8 bytes. Providers have no
// recoverable failure mode: the default provider lets the runtime abort on
// exhaustion, and a provider that returns short or misaligned memory causes
// a panic. An allocator that cannot allocate has no safe fallback path.
type MemoryProvider func(n uintptr) []byte

func defaultProvider(n uintptr) []byte {
	return make([]byte, n)
}

// block is the unit the chain is built from. Its capacity is fixed at
// creation; only used changes, by allocation or reset.
type block struct {
	buf  []byte  // backing memory, len(buf) is the capacity
	used uintptr // bytes handed out, never exceeds len(buf)
}

func newBlock(provide MemoryProvider, capacity uintptr) *block {
	buf := provide(capacity)
	if uintptr(len(buf)) < capacity {
		panic(fmt.Sprintf("arena: memory provider returned %d bytes, need %d", len(buf), capacity))
	}
	// Bump offsets are multiples of Alignment, so every returned address
	// inherits the alignment of the base. Enforce it here rather than per
	// allocation.
	if base := uintptr(unsafe.Pointer(unsafe.SliceData(buf))); base%Alignment != 0 {
		panic("arena: memory provider returned misaligned memory")
	}
	return &block{buf: buf[:capacity]}
}

// alloc reserves size bytes at the block's bump offset. size must already
// be aligned and non-zero.
func (b *block) alloc(size uintptr) (unsafe.Pointer, bool) {
	if b.used+size > uintptr(len(b.buf)) {
		return nil, false
	}
	ptr := unsafe.Pointer(&b.buf[b.used])
	b.used += size

	// Zero the span so reused memory after a Reset behaves like fresh
	// memory. The loop compiles to a runtime.memclrNoHeapPointers call.
	s := unsafe.Slice((*byte)(ptr), size)
	for i := range s {
		s[i] = 0
	}
	return ptr, true
}

type chainedArena struct {
	blocks  []*block // chain order, index 0 is the head
	initial uintptr  // configured head block capacity
	peak    uintptr  // high-water mark of total used bytes
	provide MemoryProvider
}

// ChainedArenaOption represents a configuration option for a chained arena.
type ChainedArenaOption func(*chainedArena)

// WithInitialCapacity sets the capacity of the arena's head block, rounded
// up to a multiple of Alignment. A value of zero (or a negative one) keeps
// DefaultBlockSize.
func WithInitialCapacity(n int) ChainedArenaOption {
	return func(a *chainedArena) {
		if n > 0 {
			a.initial = uintptr(n)
		}
	}
}

// WithMemoryProvider sets the function used to acquire block memory.
func WithMemoryProvider(provide MemoryProvider) ChainedArenaOption {
	return func(a *chainedArena) {
		if provide != nil {
			a.provide = provide
		}
	}
}

// NewChainedArena creates an arena with a single empty block. Without
// options the head block has DefaultBlockSize bytes of capacity and memory
// comes from the Go runtime.
func NewChainedArena(opts ...ChainedArenaOption) Arena {
	a := &chainedArena{
		initial: DefaultBlockSize,
		provide: defaultProvider,
	}
	for _, opt := range opts {
		opt(a)
	}
	// Block capacities are always multiples of Alignment. For the default
	// provider this keeps make from handing the head block a tiny-allocator
	// object with less than Alignment-byte base alignment.
	a.initial = alignSize(a.initial)
	a.blocks = append(a.blocks, newBlock(a.provide, a.initial))
	return a
}

// alignSize rounds n up to a multiple of Alignment.
func alignSize(n uintptr) uintptr {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// Alloc satisfies the Arena interface.
func (a *chainedArena) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if size > ^uintptr(0)-(Alignment-1) {
		// Rounding up would wrap to zero; no block can ever satisfy this.
		panic(fmt.Sprintf("arena: allocation of %d bytes overflows alignment", size))
	}
	size = alignSize(size)

	// First fit, walking from the head every time. Earlier blocks that are
	// too full are skipped, never back-filled later.
	for _, b := range a.blocks {
		if ptr, ok := b.alloc(size); ok {
			a.trackPeak()
			return ptr
		}
	}

	ptr, ok := a.grow(size).alloc(size)
	if !ok {
		// grow sizes the new block to at least the request
		panic("arena: failed to allocate from newly grown block")
	}
	a.trackPeak()
	return ptr
}

// grow appends a block of capacity 2*max(tail capacity, aligned request).
// Doubling from the current tail rather than the head keeps block sizes
// non-decreasing along the chain, amortizing future growth the way a
// growable buffer does. On an empty (freed) chain the tail capacity is
// zero and the new block is simply 2*aligned.
func (a *chainedArena) grow(aligned uintptr) *block {
	var capacity uintptr
	if n := len(a.blocks); n > 0 {
		capacity = uintptr(len(a.blocks[n-1].buf))
	}
	if aligned > capacity {
		capacity = aligned
	}
	b := newBlock(a.provide, capacity*2)
	a.blocks = append(a.blocks, b)
	return b
}

// Grow satisfies the Arena interface.
func (a *chainedArena) Grow(old unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	if newSize == 0 {
		return nil
	}
	if old == nil {
		return a.Alloc(newSize)
	}
	if newSize <= oldSize {
		// No shrink: the trailing bytes stay allocated until Reset or Free.
		return old
	}
	ptr := a.Alloc(newSize)
	copy(unsafe.Slice((*byte)(ptr), newSize), unsafe.Slice((*byte)(old), oldSize))
	// The old region is dead space now; arenas never reclaim it individually.
	return ptr
}

// Reset satisfies the Arena interface.
func (a *chainedArena) Reset() {
	for _, b := range a.blocks {
		b.used = 0
	}
}

// Free satisfies the Arena interface. Every block's backing memory is
// dropped and the chain is emptied; an Alloc after Free finds no block with
// room and takes the new-block path, so freed memory is never touched again.
func (a *chainedArena) Free() {
	for _, b := range a.blocks {
		b.buf = nil
		b.used = 0
	}
	a.blocks = nil
}

func (a *chainedArena) trackPeak() {
	if l := a.len(); l > a.peak {
		a.peak = l
	}
}

func (a *chainedArena) len() uintptr {
	var total uintptr
	for _, b := range a.blocks {
		total += b.used
	}
	return total
}

// Len returns the total number of bytes currently allocated in the arena.
func (a *chainedArena) Len() int {
	return int(a.len())
}

// Cap returns the total capacity of all blocks in the chain.
func (a *chainedArena) Cap() int {
	var total int
	for _, b := range a.blocks {
		total += len(b.buf)
	}
	return total
}

// Peak returns the high-water mark of Len across the arena's lifetime.
func (a *chainedArena) Peak() int {
	return int(a.peak)
}

// NumBlocks returns the number of blocks currently in the chain.
func (a *chainedArena) NumBlocks() int {
	return len(a.blocks)
}

// Dump satisfies the Arena interface.
func (a *chainedArena) Dump(w io.Writer) {
	if len(a.blocks) == 0 {
		fmt.Fprintln(w, "arena: empty")
		return
	}
	for i, b := range a.blocks {
		fmt.Fprintf(w, "block %d: cap=%d used=%d\n", i, len(b.buf), b.used)
	}
	fmt.Fprintf(w, "total: blocks=%d cap=%d used=%d\n", len(a.blocks), a.Cap(), a.Len())
}
