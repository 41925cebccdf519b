// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filer

import (
	"bytes"
	"testing"
)

func TestMemFilerWriteAt(t *testing.T) {
	f := NewMemFiler()

	if _, err := f.WriteAt([]byte{1}, 0); err != nil {
		t.Fatal(err)
	}
	if g, e := len(f.m), 1; g != e {
		t.Fatal(g, e)
	}

	if _, err := f.WriteAt([]byte{2}, pgSize); err != nil {
		t.Fatal(err)
	}
	if g, e := len(f.m), 2; g != e {
		t.Fatal(g, e)
	}

	if _, err := f.WriteAt(make([]byte, 2*pgSize), pgSize/2); err != nil {
		t.Fatal(err)
	}
	if g, e := len(f.m), 2; g != e {
		t.Logf("%#v", f.m)
		t.Fatal(g, e)
	}

	if err := f.Truncate(1); err != nil {
		t.Fatal(err)
	}
	if g, e := f.Size(), int64(1); g != e {
		t.Fatal(g, e)
	}
}

func TestMemFilerReadAt(t *testing.T) {
	f := NewMemFiler()
	want := []byte("hello, direct-access world")
	if _, err := f.WriteAt(want, 17); err != nil {
		t.Fatal(err)
	}

	got := make([]byte, len(want))
	n, err := f.ReadAt(got, 17)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(want) {
		t.Fatalf("n = %d, want %d", n, len(want))
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMemFilerPunchHole(t *testing.T) {
	f := NewMemFiler()
	if _, err := f.WriteAt(bytes.Repeat([]byte{1}, 3*pgSize), 0); err != nil {
		t.Fatal(err)
	}
	if err := f.PunchHole(pgSize, pgSize); err != nil {
		t.Fatal(err)
	}
	if g, e := len(f.m), 2; g != e {
		t.Fatal(g, e)
	}
	if g, e := f.Size(), int64(3*pgSize); g != e {
		t.Fatal(g, e)
	}
}

func TestMemFilerUpdateNesting(t *testing.T) {
	f := NewMemFiler()
	if err := f.EndUpdate(); err == nil {
		t.Fatal("expected unbalanced EndUpdate to fail")
	}
	f.BeginUpdate()
	if err := f.Close(); err == nil {
		t.Fatal("expected Close to fail while nested")
	}
	if err := f.EndUpdate(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
