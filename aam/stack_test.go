// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aam

import "testing"

func TestStackPushPopOrder(t *testing.T) {
	rt := NewRuntime(Options{})
	a, b, c := rt.CreateInt(1), rt.CreateInt(2), rt.CreateInt(3)
	rt.Push(a)
	rt.Push(b)
	rt.Push(c)
	if rt.StackLen() != 3 {
		t.Fatalf("StackLen = %d, want 3", rt.StackLen())
	}
	if got := rt.Pop(); got != c {
		t.Fatalf("Pop 1 = %v, want c", got)
	}
	if got := rt.Pop(); got != b {
		t.Fatalf("Pop 2 = %v, want b", got)
	}
	if got := rt.Pop(); got != a {
		t.Fatalf("Pop 3 = %v, want a", got)
	}
	if rt.StackLen() != 0 {
		t.Fatalf("StackLen after draining = %d, want 0", rt.StackLen())
	}
}

func TestStackPopUnderflowPanics(t *testing.T) {
	rt := NewRuntime(Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("Pop on an empty stack should panic")
		}
	}()
	rt.Pop()
}

func TestStackTopOfDoesNotRemove(t *testing.T) {
	rt := NewRuntime(Options{})
	a, b := rt.CreateInt(7), rt.CreateInt(8)
	rt.Push(a)
	rt.Push(b)
	if got := rt.TopOf(0); got != b {
		t.Fatalf("TopOf(0) = %v, want top-of-stack b", got)
	}
	if got := rt.TopOf(1); got != a {
		t.Fatalf("TopOf(1) = %v, want a", got)
	}
	if rt.StackLen() != 2 {
		t.Fatalf("TopOf must not remove values, StackLen = %d, want 2", rt.StackLen())
	}
}

func TestStackSwapTop(t *testing.T) {
	rt := NewRuntime(Options{})
	a, b := rt.CreateInt(1), rt.CreateInt(2)
	rt.Push(a)
	rt.Push(b)
	rt.SwapTop()
	if rt.TopOf(0) != a || rt.TopOf(1) != b {
		t.Fatalf("SwapTop did not exchange the top two values")
	}
}

func TestStackMakeListOrderAndRefcount(t *testing.T) {
	rt := NewRuntime(Options{})
	a, b, c := rt.CreateInt(10), rt.CreateInt(20), rt.CreateInt(30)
	rt.Push(a)
	rt.Push(b)
	rt.Push(c)

	list := rt.MakeList(3)
	if rt.StackLen() != 0 {
		t.Fatalf("MakeList should drain the popped values, StackLen = %d", rt.StackLen())
	}
	if rt.Tally(list) != 3 {
		t.Fatalf("MakeList tally = %d, want 3", rt.Tally(list))
	}
	want := []Handle{a, b, c}
	for i, w := range want {
		if got := rt.FetchSlot(list, int64(i)); got != w {
			t.Fatalf("MakeList slot %d = %v, want %v (bottom-to-top order)", i, got, w)
		}
	}
}

func TestStackGrowsBeyondInitialLimit(t *testing.T) {
	rt := NewRuntime(Options{})
	for i := int64(0); i < initStackLimit+10; i++ {
		rt.Push(rt.CreateInt(i))
	}
	if rt.StackLen() != initStackLimit+10 {
		t.Fatalf("StackLen = %d, want %d", rt.StackLen(), initStackLimit+10)
	}
	for i := int64(initStackLimit + 10 - 1); i >= 0; i-- {
		if got := rt.Pop(); rt.FetchInt(got, 0) != i {
			t.Fatalf("Pop after growth returned %d, want %d", rt.FetchInt(got, 0), i)
		}
	}
}

func TestClearStackFreesValues(t *testing.T) {
	rt := NewRuntime(Options{})
	h := rt.CreateCharString("stacked")
	rt.Push(h)
	if rt.RefCount(h) != 1 {
		t.Fatalf("Push should hold one refcount, got %d", rt.RefCount(h))
	}
	rt.ClearStack()
	if rt.StackLen() != 0 {
		t.Fatalf("ClearStack should empty the stack")
	}
	if _, err := rt.Verify(); err != nil {
		t.Fatalf("Verify after ClearStack: %v", err)
	}
}
