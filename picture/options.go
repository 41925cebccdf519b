// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package picture implements the Abstract Array Machine's canonical 2-D
// character-table rendering of arbitrary arrays (spec.md §4.6): sketch,
// diagram, display, paste and positions.
//
// Grounded on original_source/.../picture.c for the paste layout
// algorithm and the sketch/diagram/display policy the distilled spec.md
// only summarises, and on cznic-exp/dbm's Options-struct configuration
// pattern (options.go) for picture.Options.
package picture

import "github.com/danlm/nial-aam/aam"

// BoxStyle selects the glyph set Paste uses to stroke frames.
type BoxStyle int

const (
	// BoxASCII strokes frames with +, -, |, matching the original's
	// default terminal-free rendering.
	BoxASCII BoxStyle = iota

	// BoxUnicode strokes frames with the box-drawing block
	// (┌─┐│├┼┤└┘), the CP437/Unicode style the original reserves for
	// its optional "curses" decoration path (spec.md §4.6, supplemented
	// here per SPEC_FULL.md §4).
	BoxUnicode
)

type boxGlyphs struct {
	topLeft, topRight, botLeft, botRight   byte
	horiz, vert                             byte
	teeDown, teeUp, teeLeft, teeRight, cross byte
}

// asciiBox and cp437Box hold one byte per glyph, because picture cells are
// a byte-per-element Character array like every other array (spec.md §3).
// BoxUnicode therefore selects the CP437 single-byte line-drawing glyphs
// below (IBM PC drawing codepage), not UTF-8 box-drawing characters; they
// read as line-drawing glyphs in a CP437 terminal.
var asciiBox = boxGlyphs{'+', '+', '+', '+', '-', '|', '+', '+', '+', '+', '+'}
var cp437Box = boxGlyphs{0xDA, 0xBF, 0xC0, 0xD9, 0xC4, 0xB3, 0xC2, 0xC1, 0xB4, 0xC3, 0xC5}

func glyphsFor(style BoxStyle) boxGlyphs {
	if style == BoxUnicode {
		return cp437Box
	}
	return asciiBox
}

// Justify selects how a sub-picture is positioned horizontally within its
// cell when the cell's column is wider than the sub-picture (spec.md
// §4.6 step 5).
type Justify int

const (
	// JustifyAuto is the default: numeric kinds (Boolean/Integer/Real)
	// right-justify, everything else left-justifies.
	JustifyAuto Justify = iota
	JustifyLeft
	JustifyCenter
	JustifyRight
)

// resolveJustify turns a possibly-auto preference into a concrete
// left/center/right choice for a cell holding values of kind.
func resolveJustify(pref Justify, kind aam.Kind) Justify {
	if pref != JustifyAuto {
		return pref
	}
	if isNumericKind(kind) {
		return JustifyRight
	}
	return JustifyLeft
}

// VJustify selects how a sub-picture is positioned vertically within its
// cell when the cell's row is taller than the sub-picture.
type VJustify int

const (
	VJustifyTop VJustify = iota
	VJustifyCenter
	VJustifyBottom
)

// Options configures the renderer, mirroring dbm/options.go's
// Options-struct-passed-to-constructor pattern rather than package
// globals (spec.md §9's "Global mutable state" design note).
type Options struct {
	// BoxStyle selects the frame glyph set Paste uses.
	BoxStyle BoxStyle

	// RealFormat is the printf-style format string used for real
	// scalars (spec.md §4.6); the default is "%g".
	RealFormat string

	// LineWidth is the length above which phrase and fault text is
	// rendered in its "(phrase ...)"/"(fault ...)" form; 0 selects the
	// default of 72. Long strings and boolean lists are not split.
	LineWidth int

	// HPad/VPad are the blank columns/rows Paste puts between adjacent
	// cells (none before the first or after the last cell), inside any
	// frame.
	HPad, VPad int

	// Decor selects the decorated form of character scalars (see
	// formatChar) and turns off the pass-through of valence-2 character
	// tables, which are then rendered cell by cell. It adds no frames,
	// and Diagram does not set it.
	Decor bool

	// Justify selects horizontal positioning of a sub-picture within a
	// wider column. JustifyAuto (the zero value) keeps spec.md §4.6's
	// default: numeric kinds right-justify, everything else left.
	Justify Justify

	// VJustify selects vertical positioning of a sub-picture within a
	// taller row. VJustifyTop (the zero value) is the default.
	VJustify VJustify
}

// DefaultOptions returns the renderer's baseline configuration.
func DefaultOptions() Options {
	return Options{
		BoxStyle:   BoxASCII,
		RealFormat: "%g",
		LineWidth:  72,
		HPad:       1,
		VPad:       0,
	}
}

func (o Options) lineWidth() int {
	if o.LineWidth > 0 {
		return o.LineWidth
	}
	return 72
}
