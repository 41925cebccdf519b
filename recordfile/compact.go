// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"encoding/binary"
	"os"

	"github.com/danlm/nial-aam/filer"
)

func putWord(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) }
func getWord(b []byte) int64    { return int64(binary.LittleEndian.Uint64(b)) }

// Compact rewrites the record file pair unconditionally, dropping
// erased records' dead space (slot numbers themselves are preserved —
// only the rec-file byte offsets are renumbered): a new `.ndx`/`.rec`
// pair is built in full under a temporary name, both old descriptors
// are closed, then each temporary file replaces its original via
// os.Rename, matching original_source's compressfile in fileio.c (build
// the replacement fully, close old and new, rename new over old).
//
// Compact only operates on disk-backed File values: an in-memory File
// (CreateMem) has no path to rename through and returns an error.
func (f *File) Compact() error {
	if f.name == "mem" {
		return &os.PathError{Op: "recordfile.Compact", Path: f.name, Err: os.ErrInvalid}
	}

	tmpIdxPath := f.name + ".ndx.tmp"
	tmpRecPath := f.name + ".rec.tmp"

	tmpIdxOS, err := os.OpenFile(tmpIdxPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	tmpRecOS, err := os.OpenFile(tmpRecPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		tmpIdxOS.Close()
		os.Remove(tmpIdxPath)
		return err
	}

	cleanup := func(err error) error {
		tmpIdxOS.Close()
		tmpRecOS.Close()
		os.Remove(tmpIdxPath)
		os.Remove(tmpRecPath)
		return err
	}

	newIdx, err := filer.NewSimpleFileFiler(tmpIdxOS)
	if err != nil {
		return cleanup(err)
	}
	newRec, err := filer.NewSimpleFileFiler(tmpRecOS)
	if err != nil {
		return cleanup(err)
	}

	newTotal := int64(0)
	for slot := int64(0); slot < f.recordCount; slot++ {
		e, err := f.readEntry(slot)
		if err != nil {
			return cleanup(err)
		}
		newEntry := indexEntry{length: e.length}
		if e.length != 0 {
			buf := make([]byte, e.length)
			if _, err = f.rec.ReadAt(buf, e.offset); err != nil {
				return cleanup(err)
			}
			if _, err = newRec.WriteAt(buf, newTotal); err != nil {
				return cleanup(err)
			}
			newEntry.offset = newTotal
			newTotal += e.length
		}
		if err = writeEntryTo(newIdx, slot, newEntry); err != nil {
			return cleanup(err)
		}
	}

	var hdr [headerWords * 8]byte
	putWord(hdr[0:8], f.recordCount)
	putWord(hdr[8:16], newTotal)
	putWord(hdr[16:24], 0)
	putWord(hdr[24:32], f.typeTag)
	if _, err = newIdx.WriteAt(hdr[:], 0); err != nil {
		return cleanup(err)
	}

	if err = f.idx.Close(); err != nil {
		return cleanup(err)
	}
	if err = f.rec.Close(); err != nil {
		return cleanup(err)
	}
	if err = newIdx.Close(); err != nil {
		return err
	}
	if err = newRec.Close(); err != nil {
		return err
	}

	ndxPath, recPath := f.name+".ndx", f.name+".rec"
	if err = os.Rename(tmpIdxPath, ndxPath); err != nil {
		return err
	}
	if err = os.Rename(tmpRecPath, recPath); err != nil {
		return err
	}

	idxFile, err := os.OpenFile(ndxPath, os.O_RDWR, 0666)
	if err != nil {
		return err
	}
	recFile, err := os.OpenFile(recPath, os.O_RDWR, 0666)
	if err != nil {
		idxFile.Close()
		return err
	}
	if f.idx, err = filer.NewSimpleFileFiler(idxFile); err != nil {
		return err
	}
	if f.rec, err = filer.NewSimpleFileFiler(recFile); err != nil {
		return err
	}

	f.totalLength = newTotal
	f.spaceFree = 0
	return nil
}

func writeEntryTo(idx filer.Filer, slot int64, e indexEntry) error {
	var buf [indexPairBytes]byte
	putWord(buf[0:8], e.offset)
	putWord(buf[8:16], e.length)
	_, err := idx.WriteAt(buf[:], headerWords*8+slot*indexPairBytes)
	return err
}
