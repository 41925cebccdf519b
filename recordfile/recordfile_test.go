// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/danlm/nial-aam/aam"
)

func tempName(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "recordfile")
	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "data")
}

func TestCreateOpenRoundTrip(t *testing.T) {
	name := tempName(t)
	f, err := Create(name, 42)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rt := aam.NewRuntime(aam.Options{})
	h := rt.CreateCharString("hello, record")
	slot, err := f.Put(rt, h, false)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if slot != 0 {
		t.Fatalf("want slot 0, got %d", slot)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f2, err := Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f2.Close()

	if f2.TypeTag() != 42 {
		t.Fatalf("TypeTag = %d, want 42", f2.TypeTag())
	}
	if f2.RecordCount() != 1 {
		t.Fatalf("RecordCount = %d, want 1", f2.RecordCount())
	}

	got, err := f2.Get(rt, 0, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rt.Tally(got) != rt.Tally(h) {
		t.Fatalf("round-tripped tally = %d, want %d", rt.Tally(got), rt.Tally(h))
	}
	for i := int64(0); i < rt.Tally(h); i++ {
		if rt.FetchChar(got, i) != rt.FetchChar(h, i) {
			t.Fatalf("byte %d mismatch after round trip", i)
		}
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	f := CreateMem(0)
	rt := aam.NewRuntime(aam.Options{})

	h := rt.Create(aam.KindInteger, []int64{100})
	for i := int64(0); i < 100; i++ {
		rt.StoreInt(h, i, i*i)
	}

	slot, err := f.Put(rt, h, true)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := f.Get(rt, slot, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for i := int64(0); i < 100; i++ {
		if rt.FetchInt(got, i) != i*i {
			t.Fatalf("element %d = %d, want %d", i, rt.FetchInt(got, i), i*i)
		}
	}
}

func TestEraseTracksSpaceFree(t *testing.T) {
	f := CreateMem(0)
	rt := aam.NewRuntime(aam.Options{})

	h := rt.CreateCharString("erase me")
	slot, err := f.Put(rt, h, false)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	before := f.spaceFree
	if err := f.Erase(slot); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if f.spaceFree <= before {
		t.Fatalf("spaceFree should grow after Erase: before=%d after=%d", before, f.spaceFree)
	}

	if _, err := f.Get(rt, slot, false); err == nil {
		t.Fatalf("Get on an erased slot should fail")
	}
}

func TestCompactPreservesLiveRecords(t *testing.T) {
	name := tempName(t)
	f, err := Create(name, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rt := aam.NewRuntime(aam.Options{})

	keep, err := f.Put(rt, rt.CreateCharString("keep"), false)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	drop, err := f.Put(rt, rt.CreateCharString("drop"), false)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f.Erase(drop); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	if err := f.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if f.spaceFree != 0 {
		t.Fatalf("spaceFree after Compact = %d, want 0", f.spaceFree)
	}

	got, err := f.Get(rt, keep, false)
	if err != nil {
		t.Fatalf("Get(keep) after Compact: %v", err)
	}
	if got2 := stringOfChars(rt, got); got2 != "keep" {
		t.Fatalf("Get(keep) after Compact = %q, want \"keep\"", got2)
	}
}

func stringOfChars(rt *aam.Runtime, h aam.Handle) string {
	tally := rt.Tally(h)
	buf := make([]byte, tally)
	for i := int64(0); i < tally; i++ {
		buf[i] = rt.FetchChar(h, i)
	}
	return string(buf)
}

func TestMaybeCompactNoopBelowThreshold(t *testing.T) {
	f := CreateMem(0)
	rt := aam.NewRuntime(aam.Options{})
	h := rt.CreateCharString("x")
	if _, err := f.Put(rt, h, false); err != nil {
		t.Fatalf("Put: %v", err)
	}
	before := f.totalLength
	if err := f.MaybeCompact(); err != nil {
		t.Fatalf("MaybeCompact: %v", err)
	}
	if f.totalLength != before {
		t.Fatalf("MaybeCompact should be a no-op under the size/ratio threshold")
	}
}
