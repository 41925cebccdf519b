// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A basic os.File backed Filer.

package filer

import (
	"os"

	"github.com/cznic/fileutil"
	"github.com/cznic/mathutil"
)

var _ Filer = &SimpleFileFiler{}

// SimpleFileFiler is an os.File backed Filer intended for use where
// structural consistency is reached by other means (recordfile's own
// compaction/rewrite protocol) or where persistence doesn't matter.
//
// It does not implement BeginUpdate/EndUpdate/Rollback in any way that
// protects structural integrity: misuse as the sole safety net for a
// real store can lose data on a crash mid-write.
type SimpleFileFiler struct {
	file *os.File
	nest int
	size int64
}

// NewSimpleFileFiler returns a new SimpleFileFiler wrapping f.
func NewSimpleFileFiler(f *os.File) (*SimpleFileFiler, error) {
	fi, err := os.Stat(f.Name())
	if err != nil {
		return nil, err
	}
	return &SimpleFileFiler{file: f, size: fi.Size()}, nil
}

func (f *SimpleFileFiler) BeginUpdate() { f.nest++ }

func (f *SimpleFileFiler) Close() (err error) {
	if f.nest != 0 {
		return &ErrPERM{f.Name() + ":Close"}
	}
	return f.file.Close()
}

func (f *SimpleFileFiler) EndUpdate() (err error) {
	if f.nest == 0 {
		return &ErrPERM{f.Name() + ":EndUpdate"}
	}
	f.nest--
	return nil
}

func (f *SimpleFileFiler) Name() string { return f.file.Name() }

func (f *SimpleFileFiler) PunchHole(off, size int64) (err error) {
	return fileutil.PunchHole(f.file, off, size)
}

func (f *SimpleFileFiler) ReadAt(b []byte, off int64) (n int, err error) {
	return f.file.ReadAt(b, off)
}

func (f *SimpleFileFiler) Rollback() (err error) { return nil }

func (f *SimpleFileFiler) Size() int64 { return f.size }

func (f *SimpleFileFiler) Truncate(size int64) (err error) {
	if size < 0 {
		return &ErrINVAL{"Truncate size", size}
	}
	f.size = size
	return f.file.Truncate(size)
}

func (f *SimpleFileFiler) WriteAt(b []byte, off int64) (n int, err error) {
	f.size = mathutil.MaxInt64(f.size, int64(len(b))+off)
	return f.file.WriteAt(b, off)
}
