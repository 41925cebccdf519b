// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filer provides a []byte-like storage abstraction for
// recordfile's direct-access NAME.rec/NAME.ndx file pairs.
//
// Grounded on cznic-exp/lldb's Filer (filer.go, memfiler.go, osfiler.go,
// simplefilefiler.go): same interface shape, same MemFiler/OSFiler/
// SimpleFileFiler trio, repurposed here to back recordfile instead of
// lldb's own block allocator.
package filer

import "github.com/cznic/mathutil"

// A Filer is a []byte-like model of a file or similar entity. In contrast
// to a file stream, a Filer is not sequentially accessible: ReadAt and
// WriteAt are always addressed by an offset and are assumed to perform
// atomically. A Filer is not safe for concurrent access.
type Filer interface {
	// BeginUpdate increments the "nesting" counter (initially zero).
	// Every call must be balanced by exactly one of EndUpdate or
	// Rollback. Calls may nest.
	BeginUpdate()

	// Close is as os.File.Close.
	Close() error

	// EndUpdate decrements the nesting counter. Invocation of an
	// unbalanced EndUpdate is an error.
	EndUpdate() error

	// Name is as os.File.Name.
	Name() string

	// PunchHole deallocates space inside a file in the byte range
	// starting at off and continuing for size bytes. Size() is
	// unaffected even when punching the tail of a file. A Filer is
	// free to implement this as a no-op; no guarantee is made about
	// what a punched range reads back as.
	PunchHole(off, size int64) error

	// ReadAt is as os.File.ReadAt. off is an absolute offset and
	// cannot be negative.
	ReadAt(b []byte, off int64) (n int, err error)

	// Rollback is the update-cancel hook. The Filers in this package
	// implement it as a no-op: it undoes no write and reports no error,
	// balanced or not.
	Rollback() error

	// Size is as os.File.FileInfo().Size().
	Size() int64

	// Truncate is as os.File.Truncate.
	Truncate(size int64) error

	// WriteAt is as os.File.WriteAt. off is an absolute offset and
	// cannot be negative.
	WriteAt(b []byte, off int64) (n int, err error)
}

var _ Filer = &InnerFiler{}

// InnerFiler is a Filer with an offset added to every access, letting two
// logical regions share one physical Filer without the caller carrying the
// arithmetic itself. recordfile does not use it: its index and data live
// in two separate Filers.
type InnerFiler struct {
	outer Filer
	off   int64
}

// NewInnerFiler returns a Filer that adds off to every access made on
// outer.
func NewInnerFiler(outer Filer, off int64) *InnerFiler { return &InnerFiler{outer, off} }

func (f *InnerFiler) BeginUpdate()      { f.outer.BeginUpdate() }
func (f *InnerFiler) Close() error      { return nil }
func (f *InnerFiler) EndUpdate() error  { return f.outer.EndUpdate() }
func (f *InnerFiler) Name() string      { return f.outer.Name() }
func (f *InnerFiler) Rollback() error   { return f.outer.Rollback() }
func (f *InnerFiler) Size() int64       { return mathutil.MaxInt64(f.outer.Size()-f.off, 0) }

func (f *InnerFiler) PunchHole(off, size int64) error {
	return f.outer.PunchHole(f.off+off, size)
}

func (f *InnerFiler) Truncate(size int64) error { return f.outer.Truncate(size + f.off) }

func (f *InnerFiler) ReadAt(b []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, &ErrINVAL{f.outer.Name() + ":ReadAt invalid off", off}
	}
	return f.outer.ReadAt(b, f.off+off)
}

func (f *InnerFiler) WriteAt(b []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, &ErrINVAL{f.outer.Name() + ":WriteAt invalid off", off}
	}
	return f.outer.WriteAt(b, f.off+off)
}
