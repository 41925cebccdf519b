// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recordfile implements the Abstract Array Machine's persisted
// direct-access file pair (spec.md §6): a `NAME.rec`/`NAME.ndx` pair of
// files holding arrays keyed by a dense integer index, with
// space-reclaiming compaction. Erased indices are not reused, and
// compaction runs only when Compact or MaybeCompact is called.
//
// Grounded on cznic-exp/dbm's Create/CreateMem/CreateTemp/Open
// constructor family (dbm.go) for the package's exported API shape, and
// on original_source/.../fileio.c's index/record-file layout and its
// compressfile (here: Compact) routine for the on-disk format and the
// atomic rename-based replacement protocol.
package recordfile

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/danlm/nial-aam/aam"
	"github.com/danlm/nial-aam/codec"
	"github.com/danlm/nial-aam/filer"
)

// headerWords is the four-word {record_count, total_length, space_free,
// type_tag} index-file header of spec.md §6.
const headerWords = 4

// indexPairBytes is the on-disk size of one {offset_in_rec, length}
// index entry: two int64 words.
const indexPairBytes = 16

// compactRatio and compactMinBytes are the compaction trigger of
// spec.md §6: space_free/total_length > compactRatio AND
// total_length > compactMinBytes.
const (
	compactRatio    = 0.50
	compactMinBytes = 10000
)

// File is an open (NAME.rec, NAME.ndx) pair. A File is not safe for
// concurrent use, matching aam.Runtime's single-owner design.
type File struct {
	name string
	idx  filer.Filer
	rec  filer.Filer

	recordCount int64
	totalLength int64
	spaceFree   int64
	typeTag     int64
}

// indexEntry is one record's {offset_in_rec, length} pair. A zero
// length marks an erased record (spec.md §6).
type indexEntry struct {
	offset, length int64
}

// Create creates a new NAME.rec/NAME.ndx pair. Either file must not
// already exist.
func Create(name string, typeTag int64) (f *File, err error) {
	idxFile, err := os.OpenFile(name+".ndx", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return nil, &os.PathError{Op: "recordfile.Create", Path: name + ".ndx", Err: err}
	}
	recFile, err := os.OpenFile(name+".rec", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		idxFile.Close()
		os.Remove(name + ".ndx")
		return nil, &os.PathError{Op: "recordfile.Create", Path: name + ".rec", Err: err}
	}

	idxFiler, err := filer.NewSimpleFileFiler(idxFile)
	if err != nil {
		return nil, err
	}
	recFiler, err := filer.NewSimpleFileFiler(recFile)
	if err != nil {
		return nil, err
	}

	f = &File{name: name, idx: idxFiler, rec: recFiler, typeTag: typeTag}
	if err = f.writeHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateMem creates a new in-memory record file pair, not backed by
// disk. Compact returns an error for it; Name() returns a synthetic name.
func CreateMem(typeTag int64) *File {
	f := &File{name: "mem", idx: filer.NewMemFiler(), rec: filer.NewMemFiler(), typeTag: typeTag}
	_ = f.writeHeader() // MemFiler.WriteAt cannot fail
	return f
}

// CreateTemp creates a new record file pair in dir with a name
// beginning with prefix, as ioutil.TempFile.
func CreateTemp(dir, prefix string, typeTag int64) (f *File, err error) {
	idxFile, err := ioutil.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	name := idxFile.Name()
	idxFile.Close()
	os.Remove(name)
	return Create(name, typeTag)
}

// Open opens an existing NAME.rec/NAME.ndx pair for reading and
// writing.
func Open(name string) (f *File, err error) {
	idxFile, err := os.OpenFile(name+".ndx", os.O_RDWR, 0666)
	if err != nil {
		return nil, &os.PathError{Op: "recordfile.Open", Path: name + ".ndx", Err: err}
	}
	recFile, err := os.OpenFile(name+".rec", os.O_RDWR, 0666)
	if err != nil {
		idxFile.Close()
		return nil, &os.PathError{Op: "recordfile.Open", Path: name + ".rec", Err: err}
	}

	idxFiler, err := filer.NewSimpleFileFiler(idxFile)
	if err != nil {
		return nil, err
	}
	recFiler, err := filer.NewSimpleFileFiler(recFile)
	if err != nil {
		return nil, err
	}

	f = &File{name: name, idx: idxFiler, rec: recFiler}
	if err = f.readHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

// Name returns the record file pair's base name (without .rec/.ndx).
func (f *File) Name() string { return f.name }

// TypeTag returns the opaque type discriminator stored in the header.
func (f *File) TypeTag() int64 { return f.typeTag }

// RecordCount reports the number of index slots, including erased
// (length-0) ones.
func (f *File) RecordCount() int64 { return f.recordCount }

func (f *File) writeHeader() error {
	var buf [headerWords * 8]byte
	putWord(buf[0:8], f.recordCount)
	putWord(buf[8:16], f.totalLength)
	putWord(buf[16:24], f.spaceFree)
	putWord(buf[24:32], f.typeTag)
	_, err := f.idx.WriteAt(buf[:], 0)
	return err
}

func (f *File) readHeader() error {
	var buf [headerWords * 8]byte
	if _, err := f.idx.ReadAt(buf[:], 0); err != nil {
		return &filer.ErrINVAL{Msg: f.name + ".ndx: short header", Arg: err}
	}
	f.recordCount = getWord(buf[0:8])
	f.totalLength = getWord(buf[8:16])
	f.spaceFree = getWord(buf[16:24])
	f.typeTag = getWord(buf[24:32])
	return nil
}

func (f *File) entryOffset(slot int64) int64 {
	return headerWords*8 + slot*indexPairBytes
}

func (f *File) readEntry(slot int64) (indexEntry, error) {
	var buf [indexPairBytes]byte
	if _, err := f.idx.ReadAt(buf[:], f.entryOffset(slot)); err != nil {
		return indexEntry{}, err
	}
	return indexEntry{offset: getWord(buf[0:8]), length: getWord(buf[8:16])}, nil
}

func (f *File) writeEntry(slot int64, e indexEntry) error {
	var buf [indexPairBytes]byte
	putWord(buf[0:8], e.offset)
	putWord(buf[8:16], e.length)
	_, err := f.idx.WriteAt(buf[:], f.entryOffset(slot))
	return err
}

// Close closes both underlying files.
func (f *File) Close() error {
	if err := f.idx.Close(); err != nil {
		return err
	}
	return f.rec.Close()
}

// Put writes v's wire-format encoding as a new record and returns its
// slot number. compressed selects codec.EncodeCompressed over
// codec.Encode (spec.md §6's Snappy-compression domain wiring, per
// SPEC_FULL.md §3).
func (f *File) Put(rt *aam.Runtime, v aam.Handle, compressed bool) (slot int64, err error) {
	payload, err := f.marshal(rt, v, compressed)
	if err != nil {
		return 0, err
	}

	slot = f.recordCount
	offset := f.totalLength
	if _, err = f.rec.WriteAt(payload, offset); err != nil {
		return 0, err
	}
	if err = f.writeEntry(slot, indexEntry{offset: offset, length: int64(len(payload))}); err != nil {
		return 0, err
	}

	f.recordCount++
	f.totalLength += int64(len(payload))
	if err = f.writeHeader(); err != nil {
		return 0, err
	}
	return slot, nil
}

func (f *File) marshal(rt *aam.Runtime, v aam.Handle, compressed bool) ([]byte, error) {
	if compressed {
		return codec.EncodeCompressed(rt, v)
	}
	var buf bytes.Buffer
	if err := codec.Encode(rt, &buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Get reads and decodes the record at slot. compressed must match the
// value passed to the Put call that created the record.
func (f *File) Get(rt *aam.Runtime, slot int64, compressed bool) (aam.Handle, error) {
	e, err := f.readEntry(slot)
	if err != nil {
		return aam.Invalid, err
	}
	if e.length == 0 {
		return aam.Invalid, &filer.ErrINVAL{Msg: fmt.Sprintf("recordfile: slot %d is erased", slot), Arg: slot}
	}

	buf := make([]byte, e.length)
	if _, err = f.rec.ReadAt(buf, e.offset); err != nil {
		return aam.Invalid, err
	}

	if compressed {
		return codec.DecodeCompressed(rt, buf)
	}
	return codec.Decode(rt, bytes.NewReader(buf))
}

// Erase marks slot's record as erased: its space becomes reclaimable
// and counts toward space_free, but the slot number itself stays
// assigned (spec.md §6).
func (f *File) Erase(slot int64) error {
	e, err := f.readEntry(slot)
	if err != nil {
		return err
	}
	if e.length == 0 {
		return nil
	}
	if err := f.rec.PunchHole(e.offset, e.length); err != nil {
		return err
	}
	f.spaceFree += e.length
	if err := f.writeEntry(slot, indexEntry{offset: e.offset, length: 0}); err != nil {
		return err
	}
	return f.writeHeader()
}

// MaybeCompact runs Compact if the space_free/total_length heuristic
// of spec.md §6 is met, and is a no-op otherwise. Callers that want an
// unconditional compaction call Compact directly.
func (f *File) MaybeCompact() error {
	if f.totalLength == 0 {
		return nil
	}
	ratio := float64(f.spaceFree) / float64(f.totalLength)
	if ratio > compactRatio && f.totalLength > compactMinBytes {
		return f.Compact()
	}
	return nil
}
