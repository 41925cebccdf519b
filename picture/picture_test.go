// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package picture

import (
	"strings"
	"testing"

	"github.com/danlm/nial-aam/aam"
)

func newRT(t *testing.T) *aam.Runtime {
	t.Helper()
	return aam.NewRuntime(aam.Options{})
}

func intVec(rt *aam.Runtime, vals ...int64) aam.Handle {
	h := rt.Create(aam.KindInteger, []int64{int64(len(vals))})
	for i, v := range vals {
		rt.StoreInt(h, int64(i), v)
	}
	return h
}

func TestSketchScalarInt(t *testing.T) {
	rt := newRT(t)
	h := rt.CreateInt(42)
	pic := Sketch(rt, h, DefaultOptions())
	if rt.Valence(pic) != 2 {
		t.Fatalf("scalar picture should be a 1-row Character table, got valence %d", rt.Valence(pic))
	}
	shape := rt.Shape(pic)
	if shape[0] != 1 {
		t.Fatalf("scalar picture must be exactly one row tall, got %d", shape[0])
	}
	if shape[1] != 2 {
		t.Fatalf("want width 2 for \"42\", got %d", shape[1])
	}
}

func TestSketchIntVectorWidths(t *testing.T) {
	rt := newRT(t)
	h := intVec(rt, 1, 22, 333)
	pic := Sketch(rt, h, DefaultOptions())
	shape := rt.Shape(pic)
	if shape[0] != 1 {
		t.Fatalf("a vector of atoms pastes into a single row, got %d rows", shape[0])
	}
	// Column widths: "1"(1) + pad(1) + "22"(2) + pad(1) + "333"(3) = 8.
	if shape[1] != 8 {
		t.Fatalf("want total width 8, got %d", shape[1])
	}
}

func TestDisplayCharVectorQuoted(t *testing.T) {
	rt := newRT(t)
	h := rt.CreateCharString("hello")
	got := Display(rt, h, DefaultOptions())
	want := "'hello'"
	if got != want {
		t.Fatalf("Display(%q) = %q, want %q", "hello", got, want)
	}
}

func TestDisplayCharVectorQuoteDoubling(t *testing.T) {
	rt := newRT(t)
	h := rt.CreateCharString("a'b")
	got := Display(rt, h, DefaultOptions())
	want := "'a''b'"
	if got != want {
		t.Fatalf("Display(%q) = %q, want %q", "a'b", got, want)
	}
}

func TestDiagramFramesOuterBorder(t *testing.T) {
	rt := newRT(t)
	h := intVec(rt, 1, 2, 3)
	pic := Diagram(rt, h, DefaultOptions())
	shape := rt.Shape(pic)
	// Framed adds exactly one row/col of border on each side.
	inner := Sketch(rt, h, DefaultOptions())
	innerShape := rt.Shape(inner)
	if shape[0] != innerShape[0]+2 || shape[1] != innerShape[1]+2 {
		t.Fatalf("diagram shape %v should be sketch shape %v plus a 1-cell border", shape, innerShape)
	}
	corner := rt.FetchChar(pic, 0)
	if corner != '+' {
		t.Fatalf("top-left corner glyph = %q, want '+'", corner)
	}
}

func TestNullRendersAsEmptyPicture(t *testing.T) {
	rt := newRT(t)
	pic := Sketch(rt, rt.Null(), DefaultOptions())
	if rt.Tally(pic) != 0 {
		t.Fatalf("Sketch(Null) should have zero tally, got %d", rt.Tally(pic))
	}
}

func TestRealFormatTrailingDot(t *testing.T) {
	rt := newRT(t)
	h := rt.CreateReal(3)
	got := renderScalarText(rt, h, DefaultOptions())
	if !strings.Contains(got, ".") {
		t.Fatalf("integral real %q should render with a trailing '.'", got)
	}
}

func TestBooleanScalarLO(t *testing.T) {
	rt := newRT(t)
	if got := renderScalarText(rt, rt.True(), DefaultOptions()); got != "l" {
		t.Fatalf("True renders as %q, want \"l\"", got)
	}
	if got := renderScalarText(rt, rt.False(), DefaultOptions()); got != "o" {
		t.Fatalf("False renders as %q, want \"o\"", got)
	}
}

func TestSketchHandlesValenceThree(t *testing.T) {
	rt := newRT(t)
	h := rt.Create(aam.KindInteger, []int64{2, 2, 2})
	for i := int64(0); i < 8; i++ {
		rt.StoreInt(h, i, i)
	}

	pic := Sketch(rt, h, DefaultOptions())
	if rt.Kind(pic) != aam.KindCharacter || rt.Valence(pic) != 2 {
		t.Fatalf("a valence-3 sketch should still come back as a 2-D Character picture, got kind=%v valence=%d", rt.Kind(pic), rt.Valence(pic))
	}
	shape := rt.Shape(pic)
	if shape[0] == 0 || shape[1] == 0 {
		t.Fatalf("valence-3 sketch should not be empty, got shape %v", shape)
	}
}

func TestTableRightJustifiesNumeric(t *testing.T) {
	rt := newRT(t)
	// 2x2 integer table: [[1, 22], [333, 4]]
	h := rt.Create(aam.KindInteger, []int64{2, 2})
	rt.StoreInt(h, 0, 1)
	rt.StoreInt(h, 1, 22)
	rt.StoreInt(h, 2, 333)
	rt.StoreInt(h, 3, 4)

	pic := Sketch(rt, h, DefaultOptions())
	shape := rt.Shape(pic)
	if shape[0] != 2 {
		t.Fatalf("want 2 rows, got %d", shape[0])
	}
	// Column 0 must be 3 wide (to fit "333"), right-justified: row 1's
	// "1" should be preceded by two spaces.
	if rt.FetchChar(pic, 0) != ' ' || rt.FetchChar(pic, 1) != ' ' {
		t.Fatalf("numeric column should be right-justified with leading padding")
	}
}
