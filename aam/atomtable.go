// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aam

// The atom table interns every phrase and fault value so that equal
// byte strings always yield the identical Handle (spec.md §3 invariant
// 5: "two phrases/faults with equal text are the same object"). It is
// itself stored as a Nested array living in the Heap, exactly as
// spec.md §3 requires for the stack and atom table, so it participates
// in the ordinary refcount/free machinery like any other array.
//
// Grounded on cznic-exp/dbm's open-addressed slice hashing (bits.go,
// slice.go) for the probe/rehash shape, with the hash function itself
// ported from the Aho/Sethi/Ullman shift-xor string hash absmach.c uses
// for its phrase table.

const (
	initialAtomTableSize = 64

	// linearAdj is the fixed probe step. It must be coprime with every
	// table size. Sizes start at initialAtomTableSize and grow as 2n+1
	// (see grow); taken mod 31 they cycle through 2, 5, 11, 23, 16 and
	// never reach 0, so the prime 31 divides none of them.
	linearAdj = 31
)

// tombstoneHandle marks a deleted slot, distinct from Invalid (a slot
// that was never occupied) so probing can keep scanning past it.
const tombstoneHandle = Handle(-1)

// AtomTable is the open-addressed phrase/fault intern table.
type AtomTable struct {
	rt         *Runtime
	table      Handle // KindNested array of slot handles
	size       int64
	used       int64
	tombstones int64
}

func newAtomTable(rt *Runtime) *AtomTable {
	at := &AtomTable{rt: rt, size: initialAtomTableSize}
	at.table = rt.Create(KindNested, []int64{at.size})
	rt.IncRef(at.table)
	return at
}

// phraseHash is the shift-xor string hash: absmach.c's Aho/Sethi/Ullman
// style accumulator, folded to a non-negative table index.
func phraseHash(s string) int64 {
	var h int64
	for i := 0; i < len(s); i++ {
		h = (h << 4) ^ (h >> 60) ^ int64(s[i])
	}
	if h < 0 {
		h = -h
	}
	return h
}

// atomText reads the byte string a phrase/fault atom holds.
func (rt *Runtime) atomText(h Handle) string {
	n := rt.Tally(h)
	buf := make([]byte, n)
	for i := int64(0); i < n; i++ {
		buf[i] = rt.FetchChar(h, i)
	}
	return string(buf)
}

// find returns the slot index holding text, and whether it was found.
// When not found, it returns the first free-or-tombstone slot a
// subsequent insert should use.
func (at *AtomTable) find(text string, kind Kind) (slot int64, found bool) {
	rt := at.rt
	h := phraseHash(text) % at.size
	firstTombstone := int64(-1)
	for probed := int64(0); probed < at.size; probed++ {
		idx := (h + probed*linearAdj) % at.size
		occ := rt.FetchSlot(at.table, idx)
		switch occ {
		case Invalid:
			if firstTombstone >= 0 {
				return firstTombstone, false
			}
			return idx, false
		case tombstoneHandle:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
		default:
			if rt.Kind(occ) == kind && rt.atomText(occ) == text {
				return idx, true
			}
		}
	}
	// Table is saturated with tombstones/entries; grow rehashes so this
	// should not happen, but fall back to the first tombstone found.
	return firstTombstone, false
}

// intern returns the interned atom for text/kind, creating it (and
// growing the table first if the load factor demands it) if absent.
func (at *AtomTable) intern(text string, kind Kind) Handle {
	if at.used+at.tombstones > at.size/2 {
		at.grow()
	}

	slot, found := at.find(text, kind)
	rt := at.rt
	if found {
		return rt.FetchSlot(at.table, slot)
	}

	atom := rt.createRawCharString(text)
	rt.H.setFlags(int64(atom), packFlags(false, kind, 0))

	prev := rt.FetchSlot(at.table, slot)
	if prev == tombstoneHandle {
		at.tombstones--
	}
	// The slot is written raw: the table holds no refcount on its atoms,
	// so an atom is freed (and removed) when its users release it.
	rt.H.mem[rt.H.payloadBase(int64(at.table))+slot] = int64(atom)
	at.used++
	return atom
}

// remove drops h's slot from the table, called from freeArray when a
// phrase/fault atom's refcount reaches zero.
func (at *AtomTable) remove(h Handle) {
	rt := at.rt
	text := rt.atomText(h)
	slot, found := at.find(text, rt.Kind(h))
	if !found {
		return
	}
	rt.H.mem[rt.H.payloadBase(int64(at.table))+slot] = int64(tombstoneHandle)
	at.used--
	at.tombstones++
}

// grow resizes the table to 2n+1 slots (see linearAdj) and reinserts
// every live atom, dropping tombstones (spec.md §3's "rehash on high load").
func (at *AtomTable) grow() {
	rt := at.rt
	oldTable, oldSize := at.table, at.size

	at.size = oldSize*2 + 1 // stays odd
	at.table = rt.Create(KindNested, []int64{at.size})
	rt.IncRef(at.table)
	at.used, at.tombstones = 0, 0

	oldBase := rt.H.payloadBase(int64(oldTable))
	for i := int64(0); i < oldSize; i++ {
		occ := rt.FetchSlot(oldTable, i)
		// Clear the old slot so DecRef(oldTable) below releases no atom.
		rt.H.mem[oldBase+i] = int64(Invalid)
		if occ == Invalid || occ == tombstoneHandle {
			continue
		}
		slot, _ := at.find(rt.atomText(occ), rt.Kind(occ))
		rt.H.mem[rt.H.payloadBase(int64(at.table))+slot] = int64(occ)
		at.used++
	}
	rt.DecRef(oldTable)
}

// MakePhrase interns s as a phrase atom.
func (rt *Runtime) MakePhrase(s string) Handle { return rt.Atoms.intern(s, KindPhrase) }

// MakeFault interns s as a fault atom, verbatim.
func (rt *Runtime) MakeFault(s string) Handle { return rt.Atoms.intern(s, KindFault) }

// BuildFault interns msg as a fault atom, prefixed with "?" (spec.md §6:
// build_fault(msg) "(prefixes ?)"), matching absmach.c's buildfault(),
// which writes '?' into gcharbuf before the message text.
func (rt *Runtime) BuildFault(msg string) Handle { return rt.MakeFault("?" + msg) }

// PhraseText returns the interned text of a phrase or fault atom.
func (rt *Runtime) PhraseText(h Handle) string {
	k := rt.Kind(h)
	if k != KindPhrase && k != KindFault {
		panic(&ErrINVAL{"aam: PhraseText: not a phrase or fault", k})
	}
	return rt.atomText(h)
}
