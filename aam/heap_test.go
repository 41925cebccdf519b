// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aam

import "testing"

// verify is a small helper mirroring falloc_test.go's habit of
// re-checking structural invariants after every mutation.
func verify(t *testing.T, h *Heap) {
	t.Helper()
	if _, err := h.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestHeapReserveReleaseRoundTrip(t *testing.T) {
	h := NewHeap()
	verify(t, h)

	a, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	verify(t, h)

	words := h.Words(a, 4)
	for i := range words {
		words[i] = int64(i + 1)
	}

	if err := h.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	verify(t, h)
}

func TestHeapReleaseDoubleFreeRejected(t *testing.T) {
	h := NewHeap()
	a, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := h.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := h.Release(a); err == nil {
		t.Fatalf("second Release of the same block should fail")
	}
}

func TestHeapCoalescesAdjacentFreedBlocks(t *testing.T) {
	h := NewHeap()
	a, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve a: %v", err)
	}
	b, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve b: %v", err)
	}
	c, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve c: %v", err)
	}

	if err := h.Release(a); err != nil {
		t.Fatalf("Release a: %v", err)
	}
	if err := h.Release(c); err != nil {
		t.Fatalf("Release c: %v", err)
	}
	// c merged with the free tail and was truncated away, so releasing
	// the middle block coalesces it with freed a into a new tail, which
	// is truncated too; Verify's adjacent-free and chaining checks would
	// catch a coalescing bug.
	if err := h.Release(b); err != nil {
		t.Fatalf("Release b: %v", err)
	}
	verify(t, h)
}

func TestHeapGrowsWhenFreeListExhausted(t *testing.T) {
	h := NewHeap()
	before := h.Size()
	if _, err := h.Reserve(4096); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if h.Size() <= before {
		t.Fatalf("heap should have grown: before=%d after=%d", before, h.Size())
	}
	verify(t, h)
}

func TestHeapTruncatesFreeTail(t *testing.T) {
	h := NewHeap()
	a, err := h.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	size := h.Size()
	if err := h.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// A free block at the very end of the region is truncated away
	// rather than kept on the free list (spec.md §4.1's locked-trailer
	// invariant).
	if h.Size() >= size {
		t.Fatalf("tail release should shrink the heap: before=%d after=%d", size, h.Size())
	}
}
