// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a slice of type T with a given length and capacity,
// using the provided Arena for memory allocation.
// If the arena is non-nil, it returns a slice with memory allocated from the
// arena. Otherwise, it returns a slice using Go's built-in make function.
func AllocateSlice[T any](a Arena, len, cap int) []T {
	if a != nil {
		var x T
		bufSize := unsafe.Sizeof(x) * uintptr(cap)
		if ptr := (*T)(a.Alloc(bufSize)); ptr != nil {
			s := unsafe.Slice(ptr, cap)
			return s[:len]
		}
	}
	return make([]T, len, cap)
}

// SliceAppend appends elements to a slice of type T using a provided Arena
// for memory allocation if needed.
func SliceAppend[T any](a Arena, s []T, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

// growSlice ensures s has capacity for dataLen more elements, reallocating
// its backing array through the arena's Grow operation when it does not.
// Capacity doubles below growThreshold and grows by 1.25x above it.
func growSlice[T any](a Arena, s []T, dataLen int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s
	}

	var x T
	elem := unsafe.Sizeof(x)
	old := unsafe.Pointer(unsafe.SliceData(s))
	if ptr := a.Grow(old, elem*uintptr(cap(s)), elem*uintptr(newCap)); ptr != nil {
		return unsafe.Slice((*T)(ptr), newCap)[:len(s)]
	}

	// Zero-sized element or zero target capacity: nothing to move.
	s2 := make([]T, len(s), newCap)
	copy(s2, s)
	return s2
}
