// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package picture

import "github.com/danlm/nial-aam/aam"

// Paste assembles a rectangular grid of sub-pictures (a 2-D array of
// Character-array handles, row-major) into one Character array,
// following spec.md §4.6's layout kernel: compute each row's height and
// each column's width from the tallest/widest sub-picture sharing it,
// stamp every cell within its row/column band, optionally stroke a
// frame. A cell is placed horizontally per opts.Justify (JustifyAuto
// resolves to left for these sub-pictures) and vertically per
// opts.VJustify.
//
// This implements the 2-D base case of the algorithm directly (step 2-5
// of spec.md §4.6); the valence>2 reduction (step 1) is handled by
// Sketch/Diagram recursing one axis at a time (see picture.go's
// renderTable and sliceOuterAxis).
func Paste(rt *aam.Runtime, cells [][]aam.Handle, opts Options, framed bool) aam.Handle {
	grid := make([][]*canvas, len(cells))
	for i, row := range cells {
		grid[i] = make([]*canvas, len(row))
		for j, h := range row {
			grid[i][j] = canvasFromHandle(rt, h, opts)
		}
	}
	return pasteCanvases(grid, opts, framed).toHandle(rt)
}

// pasteCanvases is Paste's pure, handle-free core, reused by Sketch/
// Diagram so intermediate recursion levels don't round-trip through the
// heap.
func pasteCanvases(grid [][]*canvas, opts Options, framed bool) *canvas {
	rows := len(grid)
	if rows == 0 {
		return newCanvas(1, 0)
	}
	cols := len(grid[0])
	if cols == 0 {
		return newCanvas(1, 0)
	}

	rowHeight := make([]int, rows)
	colWidth := make([]int, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sub := grid[i][j]
			if sub.rows > rowHeight[i] {
				rowHeight[i] = sub.rows
			}
			if sub.cols > colWidth[j] {
				colWidth[j] = sub.cols
			}
		}
	}

	hpad, vpad := opts.HPad, opts.VPad
	contentW, contentH := 0, 0
	for _, w := range colWidth {
		contentW += w
	}
	contentW += hpad * (cols - 1)
	for _, h := range rowHeight {
		contentH += h
	}
	contentH += vpad * (rows - 1)

	inner := newCanvas(contentH, contentW)
	rowOff := 0
	for i := 0; i < rows; i++ {
		colOff := 0
		for j := 0; j < cols; j++ {
			sub := grid[i][j]
			cellColOff := colOff + hOffset(sub.hJustify, colWidth[j], sub.cols)
			cellRowOff := rowOff + vOffset(sub.vJustify, rowHeight[i], sub.rows)
			inner.blit(sub, cellRowOff, cellColOff)
			colOff += colWidth[j] + hpad
		}
		rowOff += rowHeight[i] + vpad
	}

	if !framed {
		return inner
	}

	g := glyphsFor(opts.BoxStyle)
	out := newCanvas(contentH+2, contentW+2)
	out.set(0, 0, g.topLeft)
	out.set(0, contentW+1, g.topRight)
	out.set(contentH+1, 0, g.botLeft)
	out.set(contentH+1, contentW+1, g.botRight)
	for c := 1; c <= contentW; c++ {
		out.set(0, c, g.horiz)
		out.set(contentH+1, c, g.horiz)
	}
	for r := 1; r <= contentH; r++ {
		out.set(r, 0, g.vert)
		out.set(r, contentW+1, g.vert)
	}
	out.blit(inner, 1, 1)
	return out
}

// hOffset returns the column offset to add within a band of width
// cellWidth to place a sub-picture of width subWidth per just.
func hOffset(just Justify, cellWidth, subWidth int) int {
	switch just {
	case JustifyRight:
		return cellWidth - subWidth
	case JustifyCenter:
		return (cellWidth - subWidth) / 2
	default:
		return 0
	}
}

// vOffset is hOffset's vertical counterpart.
func vOffset(just VJustify, cellHeight, subHeight int) int {
	switch just {
	case VJustifyBottom:
		return cellHeight - subHeight
	case VJustifyCenter:
		return (cellHeight - subHeight) / 2
	default:
		return 0
	}
}

// Position is the top-left (row, col) of a pasted cell.
type Position struct{ Row, Col int64 }

// Positions returns, for each cell of the grid Paste(cells, ...) would
// produce, its top-left coordinate, without materialising the output
// picture (spec.md §4.6).
func Positions(rt *aam.Runtime, cells [][]aam.Handle, opts Options, framed bool) [][]Position {
	grid := make([][]*canvas, len(cells))
	for i, row := range cells {
		grid[i] = make([]*canvas, len(row))
		for j, h := range row {
			grid[i][j] = canvasFromHandle(rt, h, opts)
		}
	}
	return positionsCanvases(grid, opts, framed)
}

func positionsCanvases(grid [][]*canvas, opts Options, framed bool) [][]Position {
	rows := len(grid)
	if rows == 0 {
		return nil
	}
	cols := len(grid[0])

	rowHeight := make([]int, rows)
	colWidth := make([]int, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sub := grid[i][j]
			if sub.rows > rowHeight[i] {
				rowHeight[i] = sub.rows
			}
			if sub.cols > colWidth[j] {
				colWidth[j] = sub.cols
			}
		}
	}

	base := int64(0)
	if framed {
		base = 1
	}

	out := make([][]Position, rows)
	rowOff := base
	for i := 0; i < rows; i++ {
		out[i] = make([]Position, cols)
		colOff := base
		for j := 0; j < cols; j++ {
			sub := grid[i][j]
			cellColOff := colOff + int64(hOffset(sub.hJustify, colWidth[j], sub.cols))
			cellRowOff := rowOff + int64(vOffset(sub.vJustify, rowHeight[i], sub.rows))
			out[i][j] = Position{cellRowOff, cellColOff}
			colOff += int64(colWidth[j]) + int64(opts.HPad)
		}
		rowOff += int64(rowHeight[i]) + int64(opts.VPad)
	}
	return out
}
