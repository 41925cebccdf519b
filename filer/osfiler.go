// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filer

import "io"

var _ Filer = (*OSFiler)(nil)

// OSFile is an os.File-like minimal set of methods allowing a Filer to be
// constructed over something other than a real *os.File (tests, pipes to
// a loopback device, etc.).
type OSFile interface {
	io.Closer
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
}

// OSFiler is like SimpleFileFiler but built over any OSFile rather than
// requiring an *os.File directly.
type OSFiler struct {
	f    OSFile
	nest int
	name string
	size int64
}

// NewOSFiler returns a Filer wrapping f. size must be f's current length;
// name is used only by Name.
func NewOSFiler(f OSFile, name string, size int64) *OSFiler {
	return &OSFiler{f: f, name: name, size: size}
}

func (f *OSFiler) BeginUpdate() { f.nest++ }

func (f *OSFiler) Close() (err error) {
	if f.nest != 0 {
		return &ErrPERM{f.Name() + ":Close"}
	}
	return f.f.Close()
}

func (f *OSFiler) EndUpdate() (err error) {
	if f.nest == 0 {
		return &ErrPERM{f.Name() + ":EndUpdate"}
	}
	f.nest--
	return nil
}

func (f *OSFiler) Name() string { return f.name }

func (f *OSFiler) PunchHole(off, size int64) (err error) { return nil }

func (f *OSFiler) ReadAt(b []byte, off int64) (n int, err error) { return f.f.ReadAt(b, off) }

func (f *OSFiler) Rollback() (err error) { return nil }

func (f *OSFiler) Size() int64 { return f.size }

func (f *OSFiler) Truncate(size int64) (err error) {
	if err = f.f.Truncate(size); err != nil {
		return err
	}
	f.size = size
	return nil
}

func (f *OSFiler) WriteAt(b []byte, off int64) (n int, err error) {
	n, err = f.f.WriteAt(b, off)
	if int64(n)+off > f.size {
		f.size = int64(n) + off
	}
	return n, err
}
