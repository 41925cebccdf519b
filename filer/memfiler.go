// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A memory-only implementation of Filer, used by recordfile's tests and by
// callers that want a scratch direct-access file pair with no OS file
// backing it.

package filer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cznic/mathutil"
)

const (
	pgBits = 12
	pgSize = 1 << pgBits
	pgMask = pgSize - 1
)

var _ Filer = &MemFiler{}

type memFilerMap map[int64]*[pgSize]byte

// MemFiler is a memory backed Filer. BeginUpdate and EndUpdate only count
// the update nesting level; Rollback is a no-op that undoes nothing and
// leaves that count as it is. It is not automatically persistent, but has
// ReadFrom/WriteTo helpers for bulk (de)serialisation.
type MemFiler struct {
	m    memFilerMap
	nest int
	size int64
}

// NewMemFiler returns a new, empty MemFiler.
func NewMemFiler() *MemFiler { return &MemFiler{m: memFilerMap{}} }

func (f *MemFiler) BeginUpdate() { f.nest++ }

func (f *MemFiler) Close() (err error) {
	if f.nest != 0 {
		return &ErrPERM{f.Name() + ":Close"}
	}
	return nil
}

func (f *MemFiler) EndUpdate() (err error) {
	if f.nest == 0 {
		return &ErrPERM{f.Name() + ":EndUpdate"}
	}
	f.nest--
	return nil
}

func (f *MemFiler) Name() string { return fmt.Sprintf("%p.memfiler", f) }

func (f *MemFiler) PunchHole(off, size int64) (err error) {
	if off < 0 {
		return &ErrINVAL{f.Name() + ":PunchHole off", off}
	}
	if size < 0 || off+size > f.size {
		return &ErrINVAL{f.Name() + ":PunchHole size", size}
	}

	first := off >> pgBits
	if off&pgMask != 0 {
		first++
	}
	off += size - 1
	last := off >> pgBits
	if off&pgMask != pgMask {
		last--
	}
	if limit := f.size >> pgBits; last > limit {
		last = limit
	}
	for pg := first; pg <= last; pg++ {
		delete(f.m, pg)
	}
	return nil
}

var zeroPage [pgSize]byte

func (f *MemFiler) ReadAt(b []byte, off int64) (n int, err error) {
	avail := f.size - off
	pgI := off >> pgBits
	pgO := int(off & pgMask)
	rem := len(b)
	if int64(rem) > avail {
		rem = int(avail)
		err = io.EOF
	}
	for rem != 0 && avail > 0 {
		pg := f.m[pgI]
		if pg == nil {
			pg = &zeroPage
		}
		nc := copy(b[:mathutil.Min(rem, pgSize)], pg[pgO:])
		pgI++
		pgO = 0
		rem -= nc
		n += nc
		b = b[nc:]
	}
	return n, err
}

// ReadFrom populates f's content from r, reporting the number of bytes
// read.
func (f *MemFiler) ReadFrom(r io.Reader) (n int64, err error) {
	if err = f.Truncate(0); err != nil {
		return
	}

	var b [pgSize]byte
	var rn int
	var off int64
	var rerr error
	for rerr == nil {
		if rn, rerr = r.Read(b[:]); rn != 0 {
			f.WriteAt(b[:rn], off)
			off += int64(rn)
			n += int64(rn)
		}
	}
	if rerr != io.EOF {
		err = rerr
	}
	return n, err
}

func (f *MemFiler) Rollback() (err error) { return nil }

func (f *MemFiler) Size() int64 { return f.size }

func (f *MemFiler) Truncate(size int64) (err error) {
	switch {
	case size < 0:
		return &ErrINVAL{"Truncate size", size}
	case size == 0:
		f.m = memFilerMap{}
	}

	first := size >> pgBits
	if size&pgMask != 0 {
		first++
	}
	last := f.size >> pgBits
	if f.size&pgMask != 0 {
		last++
	}
	for ; first < last; first++ {
		delete(f.m, first)
	}

	f.size = size
	return nil
}

func (f *MemFiler) WriteAt(b []byte, off int64) (n int, err error) {
	pgI := off >> pgBits
	pgO := int(off & pgMask)
	n = len(b)
	rem := n
	var nc int
	for rem != 0 {
		if pgO == 0 && rem >= pgSize && bytes.Equal(b[:pgSize], zeroPage[:]) {
			delete(f.m, pgI)
			nc = pgSize
		} else {
			pg := f.m[pgI]
			if pg == nil {
				pg = new([pgSize]byte)
				f.m[pgI] = pg
			}
			nc = copy((*pg)[pgO:], b)
		}
		pgI++
		pgO = 0
		rem -= nc
		b = b[nc:]
	}
	f.size = mathutil.MaxInt64(f.size, off+int64(n))
	return n, nil
}

// WriteTo copies/persists f's content to w, reporting the number of bytes
// written.
func (f *MemFiler) WriteTo(w io.Writer) (n int64, err error) {
	var b [pgSize]byte
	var wn, rn int
	var off int64
	var rerr error

	if wa, ok := w.(io.WriterAt); ok {
		lastPgI := f.size >> pgBits
		for pgI := int64(0); pgI <= lastPgI; pgI++ {
			sz := pgSize
			if pgI == lastPgI {
				sz = int(f.size & pgMask)
			}
			pg := f.m[pgI]
			if pg != nil {
				wn, err = wa.WriteAt(pg[:sz], off)
				if err != nil {
					return n, err
				}
				n += int64(wn)
				off += int64(sz)
				if wn != sz {
					return n, io.ErrShortWrite
				}
			}
		}
		return n, nil
	}

	var werr error
	for rerr == nil {
		if rn, rerr = f.ReadAt(b[:], off); rn != 0 {
			off += int64(rn)
			if wn, werr = w.Write(b[:rn]); werr != nil {
				return n, werr
			}
			n += int64(wn)
		}
	}
	if rerr != io.EOF {
		err = rerr
	}
	return n, err
}
