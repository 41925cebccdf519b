// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aam

// Stack is a growable stack of array references, stored as a Nested
// array living in the Heap with an integer top index (spec.md §4.4).
// Growth copies slot words verbatim without touching refcounts, since
// the references themselves move but the balance of owned counts does
// not change.
type Stack struct {
	rt    *Runtime
	slots Handle // KindNested array, capacity = Tally(slots)
	top   int64  // number of occupied slots
}

const (
	initStackLimit  = 256
	stackGrowShift  = 1 // double on grow
)

func newStack(rt *Runtime) *Stack {
	s := &Stack{rt: rt}
	s.slots = rt.Create(KindNested, []int64{initStackLimit})
	rt.IncRef(s.slots)
	return s
}

// Len reports the number of values currently on the stack.
func (s *Stack) Len() int64 { return s.top }

// grow enlarges capacity to the larger of twice the old capacity and the
// old capacity plus initStackLimit, copying slot words verbatim and
// clearing the old slots so releasing the old array leaves the stacked
// values' refcounts unchanged (spec.md §4.4).
func (s *Stack) grow() {
	rt := s.rt
	oldCap := rt.Tally(s.slots)
	newCap := oldCap << stackGrowShift
	if newCap-oldCap < initStackLimit {
		newCap = oldCap + initStackLimit
	}

	newSlots := rt.Create(KindNested, []int64{newCap})
	rt.IncRef(newSlots)
	for i := int64(0); i < s.top; i++ {
		rt.H.mem[rt.H.payloadBase(int64(newSlots))+i] = rt.H.mem[rt.H.payloadBase(int64(s.slots))+i]
		rt.H.mem[rt.H.payloadBase(int64(s.slots))+i] = int64(Invalid)
	}
	rt.DecRef(s.slots)
	s.slots = newSlots
}

// Push places v on top of the stack; the stack slot takes a reference
// count of its own (spec.md §4.4's "write slot, increment refcount").
func (s *Stack) Push(v Handle) {
	rt := s.rt
	if s.top >= rt.Tally(s.slots) {
		s.grow()
	}
	rt.H.mem[rt.H.payloadBase(int64(s.slots))+s.top] = int64(v)
	rt.IncRef(v)
	s.top++
}

// Pop removes and returns the top value. The returned reference's
// refcount is left unchanged: the caller now owns the one count the
// stack held (spec.md §4.4).
func (s *Stack) Pop() Handle {
	if s.top == 0 {
		panic(&ErrPERM{"aam: Stack.Pop: underflow"})
	}
	rt := s.rt
	s.top--
	idx := rt.H.payloadBase(int64(s.slots)) + s.top
	v := Handle(rt.H.mem[idx])
	rt.H.mem[idx] = int64(Invalid)
	return v
}

// Top returns the value at depth d from the top (0 is the topmost)
// without removing it.
func (s *Stack) Top(d int64) Handle {
	if d < 0 || d >= s.top {
		panic(&ErrPERM{"aam: Stack.Top: out of range"})
	}
	rt := s.rt
	return Handle(rt.H.mem[rt.H.payloadBase(int64(s.slots))+s.top-1-d])
}

// Swap exchanges the top two values.
func (s *Stack) Swap() {
	if s.top < 2 {
		panic(&ErrPERM{"aam: Stack.Swap: underflow"})
	}
	rt := s.rt
	base := rt.H.payloadBase(int64(s.slots))
	i, j := base+s.top-1, base+s.top-2
	rt.H.mem[i], rt.H.mem[j] = rt.H.mem[j], rt.H.mem[i]
}

// MakeList pops the top n values and assembles them (in stack order,
// bottom to top) into a fresh Nested array, balancing the one reference
// count each held on the stack against the one the new slot takes.
func (s *Stack) MakeList(n int64) Handle {
	if n < 0 || n > s.top {
		panic(&ErrPERM{"aam: Stack.MakeList: underflow"})
	}
	rt := s.rt
	out := rt.Create(KindNested, []int64{n})
	for i := n - 1; i >= 0; i-- {
		v := s.Pop()
		rt.H.mem[rt.H.payloadBase(int64(out))+i] = int64(v)
		// Ownership of v's one refcount transfers from the stack slot
		// directly into out's slot: no IncRef/DecRef pair needed.
	}
	return out
}

// ClearStack pops and frees every value until the stack is empty.
func (s *Stack) ClearStack() {
	for s.top > 0 {
		rt := s.rt
		v := s.Pop()
		rt.DecRef(v)
	}
}
