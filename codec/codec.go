// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec implements the Abstract Array Machine's recursive binary
// wire format (spec.md §4.5): a depth-first, little-endian, unpadded
// encoding of an aam.Handle used by recordfile's direct-access record
// files.
//
// Grounded on zchee-go-qcow2's explicit field-by-field little-endian
// encode/decode discipline (read/write one header field at a time rather
// than reinterpreting a struct in place) and on cznic-exp/lldb's
// "decode, then validate" reader shape in falloc.go.
package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/danlm/nial-aam/aam"
	"github.com/golang/snappy"
)

// ErrEOF wraps a short read encountered mid-record: spec.md §4.5 treats
// this as end-of-file, surfaced to the evaluator as the distinguished
// Eoffault atom rather than a generic I/O error.
type ErrEOF struct{ Err error }

func (e *ErrEOF) Error() string { return "codec: short read: " + e.Err.Error() }
func (e *ErrEOF) Unwrap() error { return e.Err }

// Atom returns the distinguished Eoffault singleton this error
// corresponds to (spec.md §7: eof propagates as an atom, not a bare
// error). rt must be the same Runtime Decode was called against.
func (e *ErrEOF) Atom(rt *aam.Runtime) aam.Handle { return rt.Eoffault() }

func wrapShortRead(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &ErrEOF{err}
	}
	return err
}

func writeWord(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readWord(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// Encode writes h's wire-format record to w.
func Encode(rt *aam.Runtime, w io.Writer, h aam.Handle) error {
	kind := rt.Kind(h)

	if kind == aam.KindPhrase || kind == aam.KindFault {
		return encodeAtom(rt, w, h, kind)
	}

	if err := writeWord(w, int64(kind)); err != nil {
		return err
	}
	shape := rt.Shape(h)
	if err := writeWord(w, int64(len(shape))); err != nil {
		return err
	}
	tally := rt.Tally(h)
	if err := writeWord(w, tally); err != nil {
		return err
	}
	for _, d := range shape {
		if err := writeWord(w, d); err != nil {
			return err
		}
	}

	if kind == aam.KindNested {
		for i := int64(0); i < tally; i++ {
			if err := Encode(rt, w, rt.FetchSlot(h, i)); err != nil {
				return err
			}
		}
		return nil
	}

	payload := marshalPayload(rt, h, kind, tally)
	if err := writeWord(w, int64(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// encodeAtom writes a phrase/fault record: KIND, VALENCE=0, TALLY=byte
// length, BYTES=length+1, payload=NUL-terminated text (spec.md §4.5).
func encodeAtom(rt *aam.Runtime, w io.Writer, h aam.Handle, kind aam.Kind) error {
	text := rt.PhraseText(h)
	if err := writeWord(w, int64(kind)); err != nil {
		return err
	}
	if err := writeWord(w, 0); err != nil {
		return err
	}
	if err := writeWord(w, int64(len(text))); err != nil {
		return err
	}
	if err := writeWord(w, int64(len(text)+1)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// marshalPayload packs a non-nested, non-atom array's elements into raw
// bytes: little-endian words for integer/real, msb-first packed bits for
// boolean (byte-granular analogue of the heap's word-granular packing),
// raw bytes for character.
func marshalPayload(rt *aam.Runtime, h aam.Handle, kind aam.Kind, tally int64) []byte {
	switch kind {
	case aam.KindInteger:
		buf := make([]byte, tally*8)
		for i := int64(0); i < tally; i++ {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(rt.FetchInt(h, i)))
		}
		return buf
	case aam.KindReal:
		buf := make([]byte, tally*8)
		for i := int64(0); i < tally; i++ {
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(rt.FetchReal(h, i)))
			copy(buf[i*8:], tmp[:])
		}
		return buf
	case aam.KindBoolean:
		buf := make([]byte, (tally+7)/8)
		for i := int64(0); i < tally; i++ {
			if rt.FetchBool(h, i) {
				buf[i/8] |= 1 << uint(7-i%8)
			}
		}
		return buf
	case aam.KindCharacter:
		buf := make([]byte, tally)
		for i := int64(0); i < tally; i++ {
			buf[i] = rt.FetchChar(h, i)
		}
		return buf
	default:
		panic("codec: unreachable kind in marshalPayload")
	}
}

// Decode reads one wire-format record from r and returns the array it
// builds. On a short or malformed read any partially built container is
// freed before returning the error (spec.md §4.5's failure contract).
func Decode(rt *aam.Runtime, r io.Reader) (h aam.Handle, err error) {
	kindWord, err := readWord(r)
	if err != nil {
		return aam.Invalid, err
	}
	kind := aam.Kind(kindWord)

	valence, err := readWord(r)
	if err != nil {
		return aam.Invalid, err
	}
	tally, err := readWord(r)
	if err != nil {
		return aam.Invalid, err
	}

	if kind == aam.KindPhrase || kind == aam.KindFault {
		return decodeAtom(rt, r, kind, tally)
	}

	shape := make([]int64, valence)
	for i := range shape {
		if shape[i], err = readWord(r); err != nil {
			return aam.Invalid, err
		}
	}

	h = rt.Create(kind, shape)

	if kind == aam.KindNested {
		for i := int64(0); i < tally; i++ {
			child, cerr := Decode(rt, r)
			if cerr != nil {
				rt.Freeup(h)
				return aam.Invalid, cerr
			}
			rt.StoreIntoSlot(h, i, child)
		}
		return h, nil
	}

	nbytes, err := readWord(r)
	if err != nil {
		rt.Freeup(h)
		return aam.Invalid, err
	}
	buf := make([]byte, nbytes)
	if _, err = io.ReadFull(r, buf); err != nil {
		rt.Freeup(h)
		return aam.Invalid, wrapShortRead(err)
	}
	unmarshalPayload(rt, h, kind, tally, buf)
	return h, nil
}

func decodeAtom(rt *aam.Runtime, r io.Reader, kind aam.Kind, tally int64) (aam.Handle, error) {
	nbytes, err := readWord(r)
	if err != nil {
		return aam.Invalid, err
	}
	buf := make([]byte, nbytes)
	if _, err = io.ReadFull(r, buf); err != nil {
		return aam.Invalid, wrapShortRead(err)
	}
	text := string(buf[:tally]) // drop the trailing NUL
	if kind == aam.KindPhrase {
		return rt.MakePhrase(text), nil
	}
	return rt.MakeFault(text), nil
}

func unmarshalPayload(rt *aam.Runtime, h aam.Handle, kind aam.Kind, tally int64, buf []byte) {
	switch kind {
	case aam.KindInteger:
		for i := int64(0); i < tally; i++ {
			rt.StoreInt(h, i, int64(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	case aam.KindReal:
		for i := int64(0); i < tally; i++ {
			rt.StoreReal(h, i, math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	case aam.KindBoolean:
		for i := int64(0); i < tally; i++ {
			bit := buf[i/8]&(1<<uint(7-i%8)) != 0
			rt.StoreBool(h, i, bit)
		}
	case aam.KindCharacter:
		for i := int64(0); i < tally; i++ {
			rt.StoreChar(h, i, buf[i])
		}
	}
}

// EncodeCompressed is Encode followed by Snappy compression of the whole
// record, mirroring lldb falloc.go's Allocator.Compress: used by
// recordfile whenever its caller asks for a compressed record, whether or
// not the compressed form is smaller.
func EncodeCompressed(rt *aam.Runtime, h aam.Handle) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(rt, &buf, h); err != nil {
		return nil, err
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}

// DecodeCompressed reverses EncodeCompressed.
func DecodeCompressed(rt *aam.Runtime, compressed []byte) (aam.Handle, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return aam.Invalid, err
	}
	return Decode(rt, bufio.NewReader(bytes.NewReader(raw)))
}
