// SPDX-License-Identifier: Apache-2.0

// Package arena implements a region-based memory allocator: a chain of
// fixed-capacity blocks handing out memory via pointer-bump allocation.
// Individual allocations are never freed; the whole arena is reclaimed at
// once with Reset (keep the memory, reuse it) or Free (give it back).
package arena

import (
	"io"
	"unsafe"
)

// Arena is an interface that describes a memory allocation arena.
//
// An arena is owned by exactly one goroutine at a time. Concurrent calls to
// Alloc, Grow, Reset or Free on the same arena are a data race; consumers
// that need arenas across goroutines should use one arena per task (see
// Pool) rather than sharing one.
type Arena interface {
	// Alloc allocates size bytes and returns a pointer to them.
	// The size is rounded up to a multiple of Alignment, so the returned
	// address is suitably aligned for typical scalar and pointer types.
	// Alloc(0) returns nil. The returned memory is zeroed.
	Alloc(size uintptr) unsafe.Pointer

	// Grow reallocates a region previously returned by Alloc.
	// If newSize is zero it returns nil; if old is nil it behaves like
	// Alloc(newSize); if newSize <= oldSize it returns old unchanged.
	// Otherwise it allocates newSize fresh bytes, copies the first oldSize
	// bytes of old into them and returns the new pointer. The old region
	// becomes dead space until the next Reset or Free.
	Grow(old unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer

	// Reset resets the arena's state without releasing the underlying memory.
	// After invoking this method any pointer previously returned by Alloc
	// becomes immediately invalid. The arena can be reused for new allocations.
	Reset()

	// Free releases the arena's underlying memory back to the runtime.
	// The arena is left empty; a subsequent Alloc starts a fresh chain.
	Free()

	// Len returns the total number of bytes currently allocated in the arena.
	Len() int

	// Cap returns the total capacity (maximum bytes) that can be allocated
	// in the arena without growing it.
	Cap() int

	// Peak returns the peak number of bytes that have been allocated in the
	// arena. Unlike Len it is not reset by Reset, so it reflects the
	// high-water mark of a reused arena across its whole lifetime.
	Peak() int

	// NumBlocks returns the number of blocks currently in the chain.
	NumBlocks() int

	// Dump writes a one-line-per-block diagnostic rendering of the chain
	// to w. It never modifies the arena and is safe in every lifecycle
	// state, including after Free.
	Dump(w io.Writer)
}

// Allocate allocates memory for a value of type T using the provided Arena.
// If the arena is non-nil, it returns a *T pointer with memory allocated
// from the arena. If the passed arena is nil, it allocates memory using
// Go's built-in new function.
//
// Alignment must be at least the alignment of T; the default of 8 covers
// every scalar and pointer type on supported platforms.
func Allocate[T any](a Arena) *T {
	if a != nil {
		var x T
		if ptr := a.Alloc(unsafe.Sizeof(x)); ptr != nil {
			return (*T)(ptr)
		}
	}
	return new(T)
}
