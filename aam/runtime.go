// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aam implements the Q'Nial Abstract Array Machine's core
// runtime: the heap (C1), the array object model (C2), the atom table
// (C3) and the value stack (C4). The three latter components are
// specified as arrays living in the heap, so they are kept in one
// package to avoid an import cycle; see SPEC_FULL.md §1.
package aam

// noInts bounds the range of preallocated small-integer singletons,
// mirroring the original's cached-integer-atom table.
const noInts = 256

// Options configures a Runtime at construction time, mirroring
// cznic-exp/dbm's Options struct pattern: a plain value passed to the
// constructor rather than package-level globals (spec.md §9's "Global
// mutable state" design note).
type Options struct {
	// Triggered mirrors the original's triggered flag. No code in this
	// module reads it: setting it has no effect, and faults are always
	// returned as values.
	Triggered bool

	// VerifyOnRelease wires Heap.VerifyOnRelease: every Release() call
	// is followed by a full structural Verify(). Expensive; for tests
	// and debugging only.
	VerifyOnRelease bool

	// Interrupted, if set, is polled by the Heap at loop boundaries; see
	// Heap.Interrupted.
	Interrupted func() bool
}

// Runtime is the single value a consumer owns in place of the original
// abstract machine's process-wide globals (spec.md §9). It bundles the
// Heap together with the atom table, the value stack, and the
// preallocated singletons every array construction may return instead
// of a fresh block.
type Runtime struct {
	H     *Heap
	Atoms *AtomTable
	Stack *Stack

	Options Options

	booted bool

	null      Handle
	trueAtom  Handle
	falseAtom Handle
	zeroReal  Handle
	blankChar Handle
	eoffault  Handle
	smallInts [noInts]Handle

	singletons map[Handle]bool
}

// NewRuntime builds a Runtime and performs the bootstrap sequence spec.md
// §3 describes: Heap, then the one real Null block, then the atom table
// and stack (themselves Nested arrays living in the heap Null already
// makes safe to allocate into), then the preallocated scalar singletons.
func NewRuntime(opts Options) *Runtime {
	rt := &Runtime{
		H:          NewHeap(),
		Options:    opts,
		singletons: make(map[Handle]bool),
	}
	rt.H.Interrupted = opts.Interrupted
	rt.H.VerifyOnRelease = opts.VerifyOnRelease

	// Bootstrap call: rt.booted is still false, so Create allocates a
	// real block instead of returning the (not yet existing) rt.null.
	rt.null = rt.Create(KindNested, []int64{0})
	rt.IncRef(rt.null)
	rt.singletons[rt.null] = true
	rt.booted = true

	rt.Atoms = newAtomTable(rt)
	rt.Stack = newStack(rt)

	// Eoffault is the one well-known fault singleton spec.md §3 invariant
	// 4 and §7 call for (the value eof propagation surfaces as). Other
	// well-known faults/phrases belong to the evaluator this package does
	// not implement (see SPEC_FULL.md §1's scope boundary).
	rt.eoffault = rt.BuildFault("EOF")
	rt.IncRef(rt.eoffault)
	rt.singletons[rt.eoffault] = true

	rt.trueAtom = rt.Create(KindBoolean, nil)
	rt.StoreBool(rt.trueAtom, 0, true)
	rt.IncRef(rt.trueAtom)
	rt.singletons[rt.trueAtom] = true

	rt.falseAtom = rt.Create(KindBoolean, nil)
	rt.StoreBool(rt.falseAtom, 0, false)
	rt.IncRef(rt.falseAtom)
	rt.singletons[rt.falseAtom] = true

	rt.zeroReal = rt.Create(KindReal, nil)
	rt.StoreReal(rt.zeroReal, 0, 0)
	rt.IncRef(rt.zeroReal)
	rt.singletons[rt.zeroReal] = true

	rt.blankChar = rt.Create(KindCharacter, nil)
	rt.StoreChar(rt.blankChar, 0, ' ')
	rt.IncRef(rt.blankChar)
	rt.singletons[rt.blankChar] = true

	for n := int64(0); n < noInts; n++ {
		h := rt.Create(KindInteger, nil)
		rt.StoreInt(h, 0, n)
		rt.IncRef(h)
		rt.smallInts[n] = h
		rt.singletons[h] = true
	}

	return rt
}

func (rt *Runtime) isSingleton(h Handle) bool { return rt.singletons[h] }

// Null returns the canonical empty-array singleton.
func (rt *Runtime) Null() Handle { return rt.null }

// True and False return the cached boolean singletons.
func (rt *Runtime) True() Handle  { return rt.trueAtom }
func (rt *Runtime) False() Handle { return rt.falseAtom }

// Eoffault returns the well-known fault singleton a blocked or exhausted
// input stream yields (spec.md §7).
func (rt *Runtime) Eoffault() Handle { return rt.eoffault }

// Verify runs the Heap's full structural-invariant check (spec.md §8),
// an opt-in debug aid never invoked on the hot path unless
// Options.VerifyOnRelease is set.
func (rt *Runtime) Verify() (*VerifyStats, error) { return rt.H.Verify() }

// ---- stack consumer API (SPEC_FULL.md §1, naming per spec.md §4.4) -------

// Push places v on top of the value stack.
func (rt *Runtime) Push(v Handle) { rt.Stack.Push(v) }

// Pop removes and returns the top of the value stack.
func (rt *Runtime) Pop() Handle { return rt.Stack.Pop() }

// TopOf returns the value at depth d from the top without removing it.
func (rt *Runtime) TopOf(d int64) Handle { return rt.Stack.Top(d) }

// SwapTop exchanges the top two stack values.
func (rt *Runtime) SwapTop() { rt.Stack.Swap() }

// MakeList pops the top n stack values into a fresh Nested array.
func (rt *Runtime) MakeList(n int64) Handle { return rt.Stack.MakeList(n) }

// ClearStack empties the value stack, freeing every value it held.
func (rt *Runtime) ClearStack() { rt.Stack.ClearStack() }

// StackLen reports the number of values on the value stack.
func (rt *Runtime) StackLen() int64 { return rt.Stack.Len() }
