// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The storage space management for the Abstract Array Machine.
//
// Grounded on cznic-exp/lldb's falloc.go: the same boundary-tagged,
// first-fit, coalescing-on-free allocator, but reworked from lldb's
// opaque-byte-content blocks (short/long/relocated tags over a Filer) to
// a word-addressed, in-memory heap whose block header directly carries
// an array's kind/valence/tally/refcount, per spec.

package aam

import (
	"github.com/cznic/mathutil"
)

/*

Heap block layout

Every block occupies an even number of words and has the form

	+------+----------+-------+-------+----------+---------+
	| size | refcount | flags | tally | payload...| trailer |
	+------+----------+-------+-------+----------+---------+

`refcount` doubles as the free tag: a value of freeTag (-1) means the
block is free, any value >= 0 is a live reference count. `flags` packs
the sorted bit and the element kind. `trailer` is the block's boundary
tag: for an allocated block it is non-negative (the last shape word, or
0 for a valence-0 atom); for a free block it is negative and equal to
the negated block address, letting release() detect a free left
neighbour in O(1) without walking (same trick as lldb's Allocator, see
falloc.go's leftNfo).

A free block additionally stores its {fwd, bck} free-list links in the
first two payload words (right after the header), mirroring lldb's
"short/long unused block" layout in falloc.go.

*/

const (
	wordBits      = 64
	headerWords   = 4 // size, refcount, flags, tally
	trailerWords  = 1
	minBlockWords = 8 // room for header + 2 free-list link words + trailer, rounded even
	freeTag       = -1

	// baseAddr reserves word 0 as the permanent nil handle; no real
	// block is ever allocated there.
	baseAddr = 8
)

// flags word packing: bit 0 is the sorted flag, bits 1..3 the Kind,
// the remaining bits the valence.
const (
	sortedBit  = 1
	kindShift  = 1
	kindMask   = 0x7
	valShift   = 4
)

func packFlags(sorted bool, kind Kind, valence int) int64 {
	var f int64
	if sorted {
		f |= sortedBit
	}
	f |= int64(kind&kindMask) << kindShift
	f |= int64(valence) << valShift
	return f
}

func unpackSorted(f int64) bool   { return f&sortedBit != 0 }
func unpackKind(f int64) Kind     { return Kind((f >> kindShift) & kindMask) }
func unpackValence(f int64) int64 { return f >> valShift }

// Heap is the contiguous, word-addressed region backing every array
// value. It is owned exclusively by a single mutator (see spec.md §5);
// none of its methods are safe for concurrent use.
type Heap struct {
	mem    []int64
	flHead int64 // head of the single doubly linked free list; 0 == empty

	// Interrupted, if set, is polled at long-running loop boundaries
	// (reserve/release/expand) exactly as spec.md §5 describes
	// check_interrupt. Returning true does not itself unwind anything;
	// callers translate it into an ErrWarning at the public boundary,
	// replacing the original's setjmp/longjmp per spec.md §9.
	Interrupted func() bool

	// VerifyOnRelease runs Verify after every Release when true. Debug
	// aid only, see spec.md §9's delayed-release Open Question.
	VerifyOnRelease bool
}

// NewHeap returns an empty, ready to use Heap.
func NewHeap() *Heap {
	return &Heap{mem: make([]int64, baseAddr)}
}

func (h *Heap) checkInterrupt() error {
	if h.Interrupted != nil && h.Interrupted() {
		return &RuntimeError{Kind: ErrWarning, Op: "Heap", Msg: "interrupted"}
	}
	return nil
}

// ---- raw field access -----------------------------------------------------

func (h *Heap) size(a int64) int64      { return h.mem[a] }
func (h *Heap) setSize(a, n int64)      { h.mem[a] = n }
func (h *Heap) rc(a int64) int64        { return h.mem[a+1] }
func (h *Heap) setRC(a, n int64)        { h.mem[a+1] = n }
func (h *Heap) flags(a int64) int64     { return h.mem[a+2] }
func (h *Heap) setFlags(a, f int64)     { h.mem[a+2] = f }
func (h *Heap) tally(a int64) int64     { return h.mem[a+3] }
func (h *Heap) setTally(a, n int64)     { h.mem[a+3] = n }
func (h *Heap) trailer(a int64) int64   { return h.mem[a+h.size(a)-1] }
func (h *Heap) setTrailer(a, v int64)   { h.mem[a+h.size(a)-1] = v }
func (h *Heap) isFree(a int64) bool     { return h.rc(a) == freeTag }
func (h *Heap) fwd(a int64) int64       { return h.mem[a+headerWords] }
func (h *Heap) setFwd(a, v int64)       { h.mem[a+headerWords] = v }
func (h *Heap) bck(a int64) int64       { return h.mem[a+headerWords+1] }
func (h *Heap) setBck(a, v int64)       { h.mem[a+headerWords+1] = v }

// payloadBase is the word offset of the first payload word (element data
// followed by shape words, see array.go).
func (h *Heap) payloadBase(a int64) int64 { return a + headerWords }

// Words returns a mutable slice view of the n payload words starting at
// a's payload base. The slice is only valid until the next call that may
// grow the heap (Reserve/expand) — callers must not cache it across
// those; see spec.md §9's "Raw pointer caching across growth" design
// note, which this package resolves by construction: no raw pointer ever
// crosses an allocation boundary, only a freshly resolved slice.
func (h *Heap) Words(a int64, n int64) []int64 {
	base := h.payloadBase(a)
	return h.mem[base : base+n]
}

// Size reports the total heap size in words (including the reserved
// base region and all sentinel bookkeeping).
func (h *Heap) Size() int64 { return int64(len(h.mem)) }

// ---- free list --------------------------------------------------------

// makeFree writes a's header/trailer/links so it reads as a free block
// of the given size, prev and next. Mirrors lldb's Allocator.makeFree.
func (h *Heap) makeFree(a, size, prev, next int64) {
	h.setSize(a, size)
	h.setRC(a, freeTag)
	h.setFlags(a, 0)
	h.setTally(a, 0)
	h.setFwd(a, next)
	h.setBck(a, prev)
	h.mem[a+size-1] = -a
	if prev != 0 {
		h.setFwd(prev, a)
	}
	if next != 0 {
		h.setBck(next, a)
	}
}

// linkFree pushes a newly freed block of size words onto the head of the
// free list. Ground: lldb falloc.go's link().
func (h *Heap) linkFree(a, size int64) {
	next := h.flHead
	h.makeFree(a, size, 0, next)
	h.flHead = a
}

// unlinkFree removes free block a (size words, known prev/next) from the
// free list. Ground: lldb falloc.go's unlink().
func (h *Heap) unlinkFree(a, prev, next int64) {
	switch {
	case prev == 0 && next == 0:
		h.flHead = 0
	case prev == 0 && next != 0:
		h.setBck(next, 0)
		h.flHead = next
	case prev != 0 && next == 0:
		h.setFwd(prev, 0)
	default:
		h.setFwd(prev, next)
		h.setBck(next, prev)
	}
}

// Reserve returns the address of a block of at least n usable payload
// words (i.e. able to hold n words after the header), allocating it from
// the free list (first-fit, scanned from the head) or by growing the
// heap if no block fits. The returned block has refcount 0, sorted
// false, tally 0, kind 0; the caller (array.go) finishes initialising it.
func (h *Heap) Reserve(n int64) (addr int64, err error) {
	if err = h.checkInterrupt(); err != nil {
		return
	}

	need := n + headerWords + trailerWords
	if need < minBlockWords {
		need = minBlockWords
	}
	need += need & 1 // round up to even

	for a := h.flHead; a != 0; a = h.fwd(a) {
		sz := h.size(a)
		if sz < need {
			continue
		}

		prev, next := h.bck(a), h.fwd(a)
		h.unlinkFree(a, prev, next)

		residue := sz - need
		if residue < minBlockWords {
			// Whole block taken, no fragment left (tested boundary
			// behaviour, spec.md §8).
			need = sz
		} else {
			h.linkFree(a+need, residue)
		}

		h.setSize(a, need)
		h.setRC(a, 0)
		h.setFlags(a, 0)
		h.setTally(a, 0)
		return a, nil
	}

	if err = h.expand(need); err != nil {
		return 0, err
	}
	return h.Reserve(n)
}

// expand grows the backing region by at least n words (plus slack) and
// links the new space as one free block. Ground: lldb falloc.go's grow
// path and spec.md §4.1's expand().
func (h *Heap) expand(n int64) error {
	if err := h.checkInterrupt(); err != nil {
		return err
	}

	cur := int64(len(h.mem))
	slack := mathutil.MinInt64(cur/5, mathutil.MaxInt64(cur, 1024)/2)
	grow := n + slack
	if grow < 1024 {
		grow = 1024
	}
	grow += grow & 1

	old := cur
	h.mem = append(h.mem, make([]int64, grow)...)
	h.linkFree(old, grow)
	return nil
}

// Release returns the block at addr to the free list, coalescing with
// adjacent free neighbours and truncating instead of leaving a free
// block at the end of the heap region (the "locked trailer" invariant of
// spec.md §4.1, realised behaviourally here exactly as lldb's free2 does
// via its isTail check, rather than as a materialised sentinel block —
// see DESIGN.md).
func (h *Heap) Release(addr int64) error {
	if err := h.checkInterrupt(); err != nil {
		return err
	}

	if addr < baseAddr || addr >= int64(len(h.mem)) {
		return &ErrINVAL{"Heap.Release: address out of range", addr}
	}
	if h.isFree(addr) {
		return &ErrINVAL{"Heap.Release: double free", addr}
	}

	size := h.size(addr)

	var leftAddr, leftSize, leftPrev, leftNext int64
	if addr > baseAddr {
		if t := h.mem[addr-1]; t < 0 {
			la := -t
			if h.isFree(la) {
				leftAddr, leftSize = la, h.size(la)
				leftPrev, leftNext = h.bck(la), h.fwd(la)
			}
		}
	}

	isTail := addr+size == int64(len(h.mem))
	var rightAddr, rightSize, rightPrev, rightNext int64
	if !isTail {
		ra := addr + size
		if h.isFree(ra) {
			rightAddr, rightSize = ra, h.size(ra)
			rightPrev, rightNext = h.bck(ra), h.fwd(ra)
		}
	}

	switch {
	case leftAddr == 0 && rightAddr == 0:
		if isTail {
			return h.truncate(addr)
		}
		h.linkFree(addr, size)
	case leftAddr == 0 && rightAddr != 0:
		h.unlinkFree(rightAddr, rightPrev, rightNext)
		if rightAddr+rightSize == int64(len(h.mem)) {
			return h.truncate(addr)
		}
		h.linkFree(addr, size+rightSize)
	case leftAddr != 0 && rightAddr == 0:
		h.unlinkFree(leftAddr, leftPrev, leftNext)
		if isTail {
			return h.truncate(leftAddr)
		}
		h.linkFree(leftAddr, leftSize+size)
	default:
		h.unlinkFree(leftAddr, leftPrev, leftNext)
		// Releasing left may have changed right's neighbours if they
		// were adjacent to left in the list; re-read (mirrors lldb's
		// free2 re-read of rp/rn after the left unlink).
		rightPrev, rightNext = h.bck(rightAddr), h.fwd(rightAddr)
		h.unlinkFree(rightAddr, rightPrev, rightNext)
		if rightAddr+rightSize == int64(len(h.mem)) {
			return h.truncate(leftAddr)
		}
		h.linkFree(leftAddr, leftSize+size+rightSize)
	}

	if h.VerifyOnRelease {
		if _, err := h.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// truncate drops the free tail block at addr (the only place a heap may
// shrink); never leaves a free block at the end of the region.
func (h *Heap) truncate(addr int64) error {
	h.mem = h.mem[:addr]
	return nil
}

// VerifyStats summarises a successful Verify, analogous to lldb's
// AllocStats.
type VerifyStats struct {
	TotalWords int64
	UsedWords  int64
	FreeWords  int64
	UsedBlocks int64
	FreeBlocks int64
}

// Verify walks the whole heap checking the structural invariants of
// spec.md §8: every offset belongs to exactly one block, no two free
// blocks are adjacent, and the free list chains exactly the blocks
// tagged free. It is an O(size) debug aid, never called on the hot path
// unless VerifyOnRelease is set.
func (h *Heap) Verify() (*VerifyStats, error) {
	st := &VerifyStats{TotalWords: int64(len(h.mem))}

	seen := make(map[int64]bool)
	prevFree := false
	for a := int64(baseAddr); a < int64(len(h.mem)); {
		sz := h.size(a)
		if sz < minBlockWords || a+sz > int64(len(h.mem)) {
			return nil, &ErrILSEQ{Type: ErrHeapSize, Off: a, Arg: sz}
		}
		if h.isFree(a) {
			if prevFree {
				return nil, &ErrILSEQ{Type: ErrAdjacentFree, Off: a}
			}
			st.FreeWords += sz
			st.FreeBlocks++
			prevFree = true
		} else {
			st.UsedWords += sz
			st.UsedBlocks++
			prevFree = false
		}
		seen[a] = true
		a += sz
	}

	var chained int64
	for a, p := h.flHead, int64(0); a != 0; a, p = h.fwd(a), a {
		if !seen[a] || !h.isFree(a) {
			return nil, &ErrILSEQ{Type: ErrFreeChaining, Off: a}
		}
		if h.bck(a) != p {
			return nil, &ErrILSEQ{Type: ErrFreeChaining, Off: a, Arg: p}
		}
		chained += h.size(a)
	}
	if chained != st.FreeWords {
		return nil, &ErrILSEQ{Type: ErrLostFreeBlock, Arg: st.FreeWords, Arg2: chained}
	}

	return st, nil
}
