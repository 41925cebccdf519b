// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"testing"

	"github.com/danlm/nial-aam/aam"
)

func roundTrip(t *testing.T, rt *aam.Runtime, h aam.Handle) aam.Handle {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(rt, &buf, h); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(rt, &buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestEncodeDecodeInteger(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	h := rt.Create(aam.KindInteger, []int64{4})
	for i := int64(0); i < 4; i++ {
		rt.StoreInt(h, i, i*i-2)
	}
	got := roundTrip(t, rt, h)
	if rt.Kind(got) != aam.KindInteger || rt.Tally(got) != 4 {
		t.Fatalf("round-tripped kind/tally mismatch")
	}
	for i := int64(0); i < 4; i++ {
		if rt.FetchInt(got, i) != i*i-2 {
			t.Fatalf("element %d mismatch: got %d want %d", i, rt.FetchInt(got, i), i*i-2)
		}
	}
}

func TestEncodeDecodeReal(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	h := rt.Create(aam.KindReal, []int64{3})
	vals := []float64{3.5, -0.25, 0}
	for i, v := range vals {
		rt.StoreReal(h, int64(i), v)
	}
	got := roundTrip(t, rt, h)
	for i, v := range vals {
		if rt.FetchReal(got, int64(i)) != v {
			t.Fatalf("element %d mismatch: got %v want %v", i, rt.FetchReal(got, int64(i)), v)
		}
	}
}

func TestEncodeDecodeBooleanUnalignedTally(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	const n = 13 // not a multiple of 8, exercises the packed-bit tail
	h := rt.Create(aam.KindBoolean, []int64{n})
	for i := int64(0); i < n; i++ {
		rt.StoreBool(h, i, i%2 == 1)
	}
	got := roundTrip(t, rt, h)
	for i := int64(0); i < n; i++ {
		want := i%2 == 1
		if rt.FetchBool(got, i) != want {
			t.Fatalf("bit %d mismatch: got %v want %v", i, rt.FetchBool(got, i), want)
		}
	}
}

func TestEncodeDecodeCharacterString(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	h := rt.CreateCharString("hello, wire format")
	got := roundTrip(t, rt, h)
	if rt.Tally(got) != rt.Tally(h) {
		t.Fatalf("tally mismatch")
	}
	for i := int64(0); i < rt.Tally(h); i++ {
		if rt.FetchChar(got, i) != rt.FetchChar(h, i) {
			t.Fatalf("char %d mismatch", i)
		}
	}
}

func TestEncodeDecodeNested(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	nest := rt.Create(aam.KindNested, []int64{2})
	rt.StoreIntoSlot(nest, 0, rt.CreateInt(9))
	rt.StoreIntoSlot(nest, 1, rt.CreateCharString("inner"))

	got := roundTrip(t, rt, nest)
	if rt.Kind(got) != aam.KindNested || rt.Tally(got) != 2 {
		t.Fatalf("nested round trip kind/tally mismatch")
	}
	if rt.FetchInt(rt.FetchSlot(got, 0), 0) != 9 {
		t.Fatalf("nested slot 0 mismatch")
	}
	inner := rt.FetchSlot(got, 1)
	for i := int64(0); i < 5; i++ {
		if rt.FetchChar(inner, i) != "inner"[i] {
			t.Fatalf("nested slot 1 char %d mismatch", i)
		}
	}
}

func TestEncodeDecodePhraseAndFault(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	p := rt.MakePhrase("tag")
	f := rt.MakeFault("bad")

	gotP := roundTrip(t, rt, p)
	if rt.Kind(gotP) != aam.KindPhrase || rt.PhraseText(gotP) != "tag" {
		t.Fatalf("phrase round trip mismatch")
	}
	gotF := roundTrip(t, rt, f)
	if rt.Kind(gotF) != aam.KindFault || rt.PhraseText(gotF) != "bad" {
		t.Fatalf("fault round trip mismatch")
	}
}

func TestDecodeShortReadReturnsErrEOF(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	var buf bytes.Buffer
	if err := Encode(rt, &buf, rt.CreateInt(1)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-4])
	_, err := Decode(rt, truncated)
	if err == nil {
		t.Fatalf("Decode on a truncated record should fail")
	}
	eofErr, ok := err.(*ErrEOF)
	if !ok {
		t.Fatalf("Decode on a truncated record should return *ErrEOF, got %T", err)
	}
	if eofErr.Atom(rt) != rt.Eoffault() {
		t.Fatalf("ErrEOF.Atom should return the runtime's Eoffault singleton")
	}
}

func TestEncodeCompressedDecodeCompressedRoundTrip(t *testing.T) {
	rt := aam.NewRuntime(aam.Options{})
	h := rt.Create(aam.KindInteger, []int64{50})
	for i := int64(0); i < 50; i++ {
		rt.StoreInt(h, i, i)
	}
	payload, err := EncodeCompressed(rt, h)
	if err != nil {
		t.Fatalf("EncodeCompressed: %v", err)
	}
	got, err := DecodeCompressed(rt, payload)
	if err != nil {
		t.Fatalf("DecodeCompressed: %v", err)
	}
	for i := int64(0); i < 50; i++ {
		if rt.FetchInt(got, i) != i {
			t.Fatalf("element %d mismatch after compressed round trip", i)
		}
	}
}
