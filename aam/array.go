// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aam

import "math"

// Kind discriminates the element type of an array. Nial reserves the
// term "atom" for any valence-0 array, regardless of Kind.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindInteger
	KindReal
	KindCharacter
	KindPhrase
	KindFault
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindCharacter:
		return "character"
	case KindPhrase:
		return "phrase"
	case KindFault:
		return "fault"
	case KindNested:
		return "nested"
	default:
		return "invalid"
	}
}

// Handle is a reference to an array value: the word address of its
// block in the Heap. The zero Handle is Invalid — it never refers to a
// live array, matching the "uninitialised nested slot" sentinel of
// spec.md §3 and the "nil handle" convention of the teacher's lldb
// (handle 0 == no block).
type Handle int64

// Invalid is the sentinel used to fill not-yet-initialised nested slots.
const Invalid Handle = 0

// wordBitsInt is wordBits as an int, used for packed-boolean math.
const wordBitsInt = wordBits

// boolWords returns the number of payload words needed to hold tally
// packed booleans.
func boolWords(tally int64) int64 { return (tally + wordBitsInt - 1) / wordBitsInt }

// charWords returns the number of payload words needed for tally
// characters plus the trailing NUL (spec.md §3), 8 bytes packed per
// word.
func charWords(tally int64) int64 { return (tally + 8) / 8 }

// dataWords returns the number of payload words the element data of an
// atom/array of the given kind and tally occupies (shape words are
// separate, see shapeBase).
func dataWords(kind Kind, tally int64) int64 {
	switch kind {
	case KindBoolean:
		return boolWords(tally)
	case KindInteger, KindReal, KindNested:
		return tally
	case KindCharacter, KindPhrase, KindFault:
		return charWords(tally)
	default:
		panic("aam: invalid kind")
	}
}

// ---- header decode ----------------------------------------------------

// Kind returns h's element kind.
func (rt *Runtime) Kind(h Handle) Kind { return unpackKind(rt.H.flags(int64(h))) }

// Valence returns h's number of axes.
func (rt *Runtime) Valence(h Handle) int64 { return unpackValence(rt.H.flags(int64(h))) }

// Tally returns h's element count.
func (rt *Runtime) Tally(h Handle) int64 { return rt.H.tally(int64(h)) }

// Sorted reports h's advisory sorted flag.
func (rt *Runtime) Sorted(h Handle) bool { return unpackSorted(rt.H.flags(int64(h))) }

// SetSorted updates h's advisory sorted flag. May be reset to false at
// any time, may only be set true when the caller has proved the order
// (spec.md §3 invariant 6).
func (rt *Runtime) SetSorted(h Handle, sorted bool) {
	a := int64(h)
	rt.H.setFlags(a, packFlags(sorted, rt.Kind(h), int(rt.Valence(h))))
}

// RefCount returns h's reference count.
func (rt *Runtime) RefCount(h Handle) int64 { return rt.H.rc(int64(h)) }

// shapeBase is the word offset of h's shape vector.
func (rt *Runtime) shapeBase(h Handle) int64 {
	return rt.H.payloadBase(int64(h)) + dataWords(rt.Kind(h), rt.Tally(h))
}

// Shape returns a copy of h's shape vector.
func (rt *Runtime) Shape(h Handle) []int64 {
	v := rt.Valence(h)
	if v == 0 {
		return nil
	}
	base := rt.shapeBase(h)
	shape := make([]int64, v)
	copy(shape, rt.H.mem[base:base+v])
	return shape
}

// EqualShape reports whether x and y have the same shape (valence and
// every dimension equal).
func (rt *Runtime) EqualShape(x, y Handle) bool {
	if rt.Valence(x) != rt.Valence(y) {
		return false
	}
	sx, sy := rt.Shape(x), rt.Shape(y)
	for i := range sx {
		if sx[i] != sy[i] {
			return false
		}
	}
	return true
}

// wordsFor computes the total payload words (data + shape) a block of
// the given kind/valence/shape needs.
func wordsFor(kind Kind, shape []int64) (tally int64, words int64) {
	tally = 1
	for _, d := range shape {
		tally *= d
	}
	if len(shape) == 0 {
		tally = 1
	}
	words = dataWords(kind, tally) + int64(len(shape))
	return
}

// Create allocates and initialises a new array container of the given
// kind, valence and shape. Nested slots are filled with Invalid so a
// long-jump out of a partially filled construction leaves the array
// safely freeable (spec.md §5). Returns the canonical Null singleton
// for any valence-1 empty array, except during the bootstrap call that
// creates Null itself.
func (rt *Runtime) Create(kind Kind, shape []int64) Handle {
	if len(shape) == 1 && shape[0] == 0 && rt.booted {
		return rt.null
	}
	return rt.createRaw(kind, shape)
}

// createRaw is Create without the canonical-Null shortcut, for callers
// that must always get a distinct, freshly allocated block of the
// requested kind — the Null bootstrap call itself, and the atom table's
// interning path, which immediately overwrites the block's Kind and
// must never risk doing that to the shared Null singleton.
func (rt *Runtime) createRaw(kind Kind, shape []int64) Handle {
	tally, words := wordsFor(kind, shape)

	a, err := rt.H.Reserve(words)
	if err != nil {
		rt.fatal(err)
	}

	rt.H.setFlags(a, packFlags(false, kind, len(shape)))
	rt.H.setTally(a, tally)

	if len(shape) > 0 {
		base := rt.H.payloadBase(a) + dataWords(kind, tally)
		for i, d := range shape {
			rt.H.mem[base+int64(i)] = d
		}
		rt.H.setTrailer(a, shape[len(shape)-1])
	} else {
		rt.H.setTrailer(a, 0)
	}

	h := Handle(a)
	switch kind {
	case KindNested:
		slots := rt.H.Words(a, tally)
		for i := range slots {
			slots[i] = int64(Invalid)
		}
	case KindCharacter:
		// Trailing NUL, reserved but not counted in tally.
		words := rt.H.Words(a, dataWords(kind, tally))
		if len(words) > 0 {
			words[len(words)-1] = 0
		}
	case KindBoolean:
		words := rt.H.Words(a, dataWords(kind, tally))
		for i := range words {
			words[i] = 0
		}
	}
	return h
}

// ---- singleton-aware atom constructors ---------------------------------

// CreateInt returns the integer atom n, reusing the preallocated
// singleton for n in [0, NOINTS) per spec.md §3 invariant 4.
func (rt *Runtime) CreateInt(n int64) Handle {
	if n >= 0 && n < noInts && rt.booted {
		return rt.smallInts[n]
	}
	h := rt.Create(KindInteger, nil)
	rt.StoreInt(h, 0, n)
	return h
}

// CreateBool returns the boolean atom b, reusing the True/False
// singletons.
func (rt *Runtime) CreateBool(b bool) Handle {
	if rt.booted {
		if b {
			return rt.trueAtom
		}
		return rt.falseAtom
	}
	h := rt.Create(KindBoolean, nil)
	rt.StoreBool(h, 0, b)
	return h
}

// CreateReal returns the real atom x, reusing the zero-real singleton.
func (rt *Runtime) CreateReal(x float64) Handle {
	if x == 0 && !math.Signbit(x) && rt.booted {
		return rt.zeroReal
	}
	h := rt.Create(KindReal, nil)
	rt.StoreReal(h, 0, x)
	return h
}

// CreateChar returns the character atom c, reusing the blank-character
// singleton.
func (rt *Runtime) CreateChar(c byte) Handle {
	if c == ' ' && rt.booted {
		return rt.blankChar
	}
	h := rt.Create(KindCharacter, nil)
	rt.StoreChar(h, 0, c)
	return h
}

// CreateCharString builds a 1-D character array from a Go string.
func (rt *Runtime) CreateCharString(s string) Handle {
	if len(s) == 0 {
		return rt.Create(KindCharacter, []int64{0})
	}
	if len(s) == 1 {
		return rt.CreateChar(s[0])
	}
	h := rt.Create(KindCharacter, []int64{int64(len(s))})
	for i := 0; i < len(s); i++ {
		rt.StoreChar(h, int64(i), s[i])
	}
	return h
}

// createRawCharString builds a character array for s without taking the
// CreateChar/CreateCharString singleton shortcuts, for callers (the atom
// table) that immediately overwrite the Kind to Phrase/Fault and must
// never risk mutating a shared singleton in place.
func (rt *Runtime) createRawCharString(s string) Handle {
	h := rt.createRaw(KindCharacter, []int64{int64(len(s))})
	for i := 0; i < len(s); i++ {
		rt.StoreChar(h, int64(i), s[i])
	}
	return h
}

// ---- typed element access ----------------------------------------------

func (rt *Runtime) checkIndex(h Handle, i int64, kind Kind) {
	if rt.Kind(h) != kind {
		panic(&ErrINVAL{"aam: kind mismatch", rt.Kind(h)})
	}
	if i < 0 || i >= rt.Tally(h) {
		panic(&ErrINVAL{"aam: index out of range", i})
	}
}

// checkCharIndex is checkIndex for the three byte-packed kinds that
// share the character encoding (Character, and Phrase/Fault atoms,
// which are interned character strings with their Kind overwritten —
// see atomtable.go's intern).
func (rt *Runtime) checkCharIndex(h Handle, i int64) {
	switch rt.Kind(h) {
	case KindCharacter, KindPhrase, KindFault:
	default:
		panic(&ErrINVAL{"aam: kind mismatch", rt.Kind(h)})
	}
	if i < 0 || i >= rt.Tally(h) {
		panic(&ErrINVAL{"aam: index out of range", i})
	}
}

// FetchInt returns element i of an integer array.
func (rt *Runtime) FetchInt(h Handle, i int64) int64 {
	rt.checkIndex(h, i, KindInteger)
	return rt.H.mem[rt.H.payloadBase(int64(h))+i]
}

// StoreInt sets element i of an integer array.
func (rt *Runtime) StoreInt(h Handle, i, v int64) {
	rt.checkIndex(h, i, KindInteger)
	rt.H.mem[rt.H.payloadBase(int64(h))+i] = v
}

// FetchReal returns element i of a real array.
func (rt *Runtime) FetchReal(h Handle, i int64) float64 {
	rt.checkIndex(h, i, KindReal)
	return math.Float64frombits(uint64(rt.H.mem[rt.H.payloadBase(int64(h))+i]))
}

// StoreReal sets element i of a real array.
func (rt *Runtime) StoreReal(h Handle, i int64, v float64) {
	rt.checkIndex(h, i, KindReal)
	rt.H.mem[rt.H.payloadBase(int64(h))+i] = int64(math.Float64bits(v))
}

// FetchBool returns element i of a boolean array. Packing: bit i of
// element k sits at position WORDBITS-1-(k mod WORDBITS) of word
// k/WORDBITS (msb-first within a word, element index increasing within
// the packed stream), per spec.md §3.
func (rt *Runtime) FetchBool(h Handle, i int64) bool {
	rt.checkIndex(h, i, KindBoolean)
	base := rt.H.payloadBase(int64(h))
	word := rt.H.mem[base+i/wordBitsInt]
	bit := uint(wordBitsInt - 1 - int(i%wordBitsInt))
	return word&(1<<bit) != 0
}

// StoreBool sets element i of a boolean array.
func (rt *Runtime) StoreBool(h Handle, i int64, v bool) {
	rt.checkIndex(h, i, KindBoolean)
	base := rt.H.payloadBase(int64(h))
	idx := base + i/wordBitsInt
	bit := uint(wordBitsInt - 1 - int(i%wordBitsInt))
	if v {
		rt.H.mem[idx] |= 1 << bit
	} else {
		rt.H.mem[idx] &^= 1 << bit
	}
}

// FetchChar returns element i of a character array.
func (rt *Runtime) FetchChar(h Handle, i int64) byte {
	rt.checkCharIndex(h, i)
	base := rt.H.payloadBase(int64(h))
	word := rt.H.mem[base+i/8]
	shift := uint(56 - 8*(i%8))
	return byte(word >> shift)
}

// StoreChar sets element i of a character array.
func (rt *Runtime) StoreChar(h Handle, i int64, c byte) {
	rt.checkCharIndex(h, i)
	base := rt.H.payloadBase(int64(h))
	idx := base + i/8
	shift := uint(56 - 8*(i%8))
	rt.H.mem[idx] = rt.H.mem[idx]&^(0xff<<shift) | int64(c)<<shift
}

// FetchSlot returns the raw handle stored at slot i of a nested array,
// which may be Invalid if the array is still under construction.
func (rt *Runtime) FetchSlot(h Handle, i int64) Handle {
	rt.checkIndex(h, i, KindNested)
	return Handle(rt.H.mem[rt.H.payloadBase(int64(h))+i])
}

// StoreIntoSlot stores child into slot i of nested array h, incrementing
// child's refcount and decrementing/freeing any previous occupant
// (spec.md §3's ownership-transfer lifecycle). It is an error to store
// into a slot of an array whose kind is not nested.
func (rt *Runtime) StoreIntoSlot(h Handle, i int64, child Handle) {
	rt.checkIndex(h, i, KindNested)
	idx := rt.H.payloadBase(int64(h)) + i
	old := Handle(rt.H.mem[idx])
	if old != Invalid {
		rt.DecRef(old)
	}
	if child != Invalid {
		rt.IncRef(child)
	}
	rt.H.mem[idx] = int64(child)
}

// ReplaceIntoSlot is an alias for StoreIntoSlot kept for parity with the
// §6 consumer API naming (replace_into_slot vs fetch_into_slot).
func (rt *Runtime) ReplaceIntoSlot(h Handle, i int64, child Handle) {
	rt.StoreIntoSlot(h, i, child)
}

// FetchAsArray returns x itself if it is atomic (valence 0); the slot at
// i if x is nested; or else a temporary scalar atom holding element i of
// a homogeneous array. Callers that receive a fresh temporary must
// balance it (Freeup, or let a subsequent StoreIntoSlot/Push absorb it).
func (rt *Runtime) FetchAsArray(x Handle, i int64) Handle {
	if rt.Valence(x) == 0 {
		return x
	}
	switch rt.Kind(x) {
	case KindNested:
		return rt.FetchSlot(x, i)
	case KindInteger:
		return rt.CreateInt(rt.FetchInt(x, i))
	case KindReal:
		return rt.CreateReal(rt.FetchReal(x, i))
	case KindBoolean:
		return rt.CreateBool(rt.FetchBool(x, i))
	case KindCharacter:
		return rt.CreateChar(rt.FetchChar(x, i))
	default:
		panic("aam: FetchAsArray on invalid kind")
	}
}

// Copy performs an element-typed bulk copy of n elements from src[sx:]
// to dst[sz:]. Homogeneous non-boolean kinds copy word-granular; boolean
// copies move whole words when both offsets are word-aligned, and fall
// back to a bit-sliced loop otherwise (spec.md §4.2).
func (rt *Runtime) Copy(dst Handle, sz int64, src Handle, sx int64, n int64) {
	kind := rt.Kind(src)
	if kind != rt.Kind(dst) {
		panic(&ErrINVAL{"aam: Copy kind mismatch", kind})
	}

	switch kind {
	case KindBoolean:
		rt.copyBool(dst, sz, src, sx, n)
	case KindNested:
		for i := int64(0); i < n; i++ {
			rt.StoreIntoSlot(dst, sz+i, rt.FetchSlot(src, sx+i))
		}
	case KindCharacter, KindPhrase, KindFault:
		for i := int64(0); i < n; i++ {
			rt.StoreChar(dst, sz+i, rt.FetchChar(src, sx+i))
		}
	case KindInteger:
		dbase, sbase := rt.H.payloadBase(int64(dst)), rt.H.payloadBase(int64(src))
		copy(rt.H.mem[dbase+sz:dbase+sz+n], rt.H.mem[sbase+sx:sbase+sx+n])
	case KindReal:
		dbase, sbase := rt.H.payloadBase(int64(dst)), rt.H.payloadBase(int64(src))
		copy(rt.H.mem[dbase+sz:dbase+sz+n], rt.H.mem[sbase+sx:sbase+sx+n])
	}
}

// copyBool implements the word-aligned/bit-sliced boolean copy of
// spec.md §4.2: word-aligned runs move whole words; unaligned runs read
// min(n, remaining_src_word_bits, remaining_dst_word_bits) bits per
// iteration, masking and shifting them into place.
func (rt *Runtime) copyBool(dst Handle, sz int64, src Handle, sx int64, n int64) {
	dbase, sbase := rt.H.payloadBase(int64(dst)), rt.H.payloadBase(int64(src))
	if sz%wordBitsInt == 0 && sx%wordBitsInt == 0 && n%wordBitsInt == 0 {
		dw, sw := dbase+sz/wordBitsInt, sbase+sx/wordBitsInt
		nw := n / wordBitsInt
		copy(rt.H.mem[dw:dw+nw], rt.H.mem[sw:sw+nw])
		return
	}

	for n > 0 {
		srem := wordBitsInt - sx%wordBitsInt
		drem := wordBitsInt - sz%wordBitsInt
		chunk := n
		if srem < chunk {
			chunk = srem
		}
		if drem < chunk {
			chunk = drem
		}

		sword := rt.H.mem[sbase+sx/wordBitsInt]
		sshift := uint(wordBitsInt - sx%wordBitsInt - chunk)
		mask := int64(1)<<uint(chunk) - 1
		bits := (sword >> sshift) & mask

		didx := dbase + sz/wordBitsInt
		dshift := uint(wordBitsInt - sz%wordBitsInt - chunk)
		rt.H.mem[didx] = rt.H.mem[didx]&^(mask<<dshift) | (bits << dshift)

		sx += chunk
		sz += chunk
		n -= chunk
	}
}

// HomoTest reports whether a nested array's items are all atoms of one
// common kind, i.e. whether Implode would succeed.
func (rt *Runtime) HomoTest(h Handle) bool {
	if rt.Kind(h) != KindNested {
		return false
	}
	tally := rt.Tally(h)
	if tally == 0 {
		return true
	}
	first := rt.FetchSlot(h, 0)
	kind := rt.Kind(first)
	if rt.Valence(first) != 0 {
		return false
	}
	for i := int64(1); i < tally; i++ {
		s := rt.FetchSlot(h, i)
		if rt.Valence(s) != 0 || rt.Kind(s) != kind {
			return false
		}
	}
	return true
}

// Implode converts a nested array whose items are all same-kind atoms
// into a homogeneous array of that kind. Panics if HomoTest(h) is false.
func (rt *Runtime) Implode(h Handle) Handle {
	if !rt.HomoTest(h) {
		panic(&ErrINVAL{"aam: Implode: not homogeneous", h})
	}
	tally := rt.Tally(h)
	if tally == 0 {
		return rt.Create(KindInteger, []int64{0})
	}
	kind := rt.Kind(rt.FetchSlot(h, 0))
	out := rt.Create(kind, []int64{tally})
	for i := int64(0); i < tally; i++ {
		item := rt.FetchSlot(h, i)
		switch kind {
		case KindInteger:
			rt.StoreInt(out, i, rt.FetchInt(item, 0))
		case KindReal:
			rt.StoreReal(out, i, rt.FetchReal(item, 0))
		case KindBoolean:
			rt.StoreBool(out, i, rt.FetchBool(item, 0))
		case KindCharacter:
			rt.StoreChar(out, i, rt.FetchChar(item, 0))
		case KindPhrase, KindFault:
			// Mixed phrase/fault atoms can't occur: HomoTest requires
			// one Kind, and phrase/fault tallies may differ, so the
			// homogeneous target here is nested-of-atoms left as is.
			return h
		}
	}
	return out
}

// Explode converts a homogeneous array into a nested array whose items
// are the individual atoms.
func (rt *Runtime) Explode(h Handle) Handle {
	if rt.Kind(h) == KindNested {
		return h
	}
	tally := rt.Tally(h)
	out := rt.Create(KindNested, []int64{tally})
	for i := int64(0); i < tally; i++ {
		rt.StoreIntoSlot(out, i, rt.FetchAsArray(h, i))
	}
	return out
}

// ---- reference counting -------------------------------------------------

// IncRef increments h's reference count.
func (rt *Runtime) IncRef(h Handle) {
	if h == Invalid {
		return
	}
	a := int64(h)
	rt.H.setRC(a, rt.H.rc(a)+1)
}

// DecRef decrements h's reference count and frees it when it reaches
// zero (spec.md §3's destruction lifecycle).
func (rt *Runtime) DecRef(h Handle) {
	if h == Invalid {
		return
	}
	a := int64(h)
	rc := rt.H.rc(a) - 1
	if rc <= 0 {
		// Clamp at 0: a refcount of -1 would read as the heap's free tag.
		rt.H.setRC(a, 0)
		rt.freeArray(h)
		return
	}
	rt.H.setRC(a, rc)
}

// Freeup is decref-and-free-if-zero, the name used by the §6 consumer
// API.
func (rt *Runtime) Freeup(h Handle) { rt.DecRef(h) }

// freeArray walks h's payload releasing children/atom-table entries and
// returns its block to the heap. INVALID slots are skipped so a
// partially constructed nested array remains safely freeable after an
// aborted construction (spec.md §5).
func (rt *Runtime) freeArray(h Handle) {
	if rt.isSingleton(h) {
		return
	}

	switch rt.Kind(h) {
	case KindNested:
		tally := rt.Tally(h)
		for i := int64(0); i < tally; i++ {
			child := rt.FetchSlot(h, i)
			if child != Invalid {
				rt.DecRef(child)
			}
		}
	case KindPhrase, KindFault:
		rt.Atoms.remove(h)
	}

	if err := rt.H.Release(int64(h)); err != nil {
		rt.fatal(err)
	}
}

// fatal panics with err if it is already a *RuntimeError (so an
// interrupt keeps its ErrWarning kind), and otherwise wraps it as an
// ErrFatal RuntimeError.
func (rt *Runtime) fatal(err error) {
	if re, ok := err.(*RuntimeError); ok {
		panic(re)
	}
	panic(&RuntimeError{Kind: ErrFatal, Op: "aam", Msg: err.Error()})
}
