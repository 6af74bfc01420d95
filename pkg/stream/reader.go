// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/errdefs"
)

// Prelude is the raw, untransformed start of a stream.
type Prelude struct {
	Legacy [3]byte
	Seed   byte
}

// Reader decodes a stream image held in memory. Errors are sticky: after
// the first failure every read returns zero and Err reports the cause.
// Reads never go past the trailer.
type Reader struct {
	name    string
	buf     []byte
	limit   int
	pos     int
	state   byte
	sum     Checksum
	charset Charset
	err     error
}

// NewReader consumes the prelude of data and returns a reader positioned
// on the first transformed byte.
func NewReader(name string, data []byte) (*Reader, Prelude, error) {
	if len(data) < PreludeSize+TrailerSize {
		return nil, Prelude{}, errors.Wrapf(errdefs.ErrCorruptSave, "%s: stream too short (%d bytes)", name, len(data))
	}
	r := &Reader{
		name:  name,
		buf:   data,
		limit: len(data) - TrailerSize,
	}
	var prelude Prelude
	for i := 0; i < PreludeSize; i++ {
		b := data[i]
		r.sum.add(b, b)
		if i < len(prelude.Legacy) {
			prelude.Legacy[i] = b
		}
	}
	prelude.Seed = data[PreludeSize-1]
	r.pos = PreludeSize
	r.state = prelude.Seed
	return r, prelude, nil
}

// Name returns the label used in error messages.
func (r *Reader) Name() string {
	return r.name
}

// SetCharset selects the text normalization for String.
func (r *Reader) SetCharset(charset Charset) {
	r.charset = charset
}

// Err returns the first error hit by the reader.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the offset of the next byte in the image.
func (r *Reader) Pos() int {
	return r.pos
}

// Sum returns the checksums accumulated so far.
func (r *Reader) Sum() Checksum {
	return r.sum
}

// Fail records err unless an earlier error is already set.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) next() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= r.limit {
		r.err = errors.Wrapf(errdefs.ErrCorruptSave, "%s: unexpected end of stream at offset %d", r.name, r.pos)
		return 0
	}
	c := r.buf[r.pos]
	r.pos++
	var v byte
	v, r.state = Decode(c, r.state)
	r.sum.add(v, c)
	return v
}

func (r *Reader) U8() uint8 {
	return r.next()
}

func (r *Reader) U16() uint16 {
	lo := uint16(r.next())
	hi := uint16(r.next())
	return lo | hi<<8
}

func (r *Reader) U32() uint32 {
	var v uint32
	for shift := 0; shift < 32; shift += 8 {
		v |= uint32(r.next()) << shift
	}
	return v
}

func (r *Reader) I16() int16 {
	return int16(r.U16())
}

func (r *Reader) I32() int32 {
	return int32(r.U32())
}

func (r *Reader) Bool() bool {
	return r.next() != 0
}

// String reads a NUL-terminated string. At most max bytes are kept, the
// remainder up to the terminator is consumed and dropped.
func (r *Reader) String(max int) string {
	raw := make([]byte, 0, 16)
	for {
		b := r.next()
		if r.err != nil {
			return ""
		}
		if b == 0 {
			break
		}
		if len(raw) < max {
			raw = append(raw, b)
		}
	}
	return normalize(raw, r.charset)
}

// Skip consumes n bytes, they still count in the checksums.
func (r *Reader) Skip(n int) {
	for i := 0; i < n && r.err == nil; i++ {
		r.next()
	}
}

// Finish requires the body to be fully consumed, then reads the trailer
// and compares both words with the sums accumulated over the body.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != r.limit {
		return errors.Wrapf(errdefs.ErrCorruptSave, "%s: %d undecoded bytes before trailer", r.name, r.limit-r.pos)
	}
	want := r.sum
	r.limit = len(r.buf)
	got := Checksum{Value: r.U32(), Encoded: r.U32()}
	if r.err != nil {
		return r.err
	}
	if got.Value != want.Value {
		return errors.Wrapf(errdefs.ErrCorruptSave, "%s: value checksum %08x, want %08x", r.name, got.Value, want.Value)
	}
	if got.Encoded != want.Encoded {
		return errors.Wrapf(errdefs.ErrCorruptSave, "%s: encoded checksum %08x, want %08x", r.name, got.Encoded, want.Encoded)
	}
	return nil
}

// Verify checks the trailer of a whole stream image without decoding any
// structure. The transform only depends on the previous on-disk byte, so
// both sums can be recomputed in a single pass.
func Verify(name string, data []byte) error {
	r, _, err := NewReader(name, data)
	if err != nil {
		return err
	}
	r.Skip(r.limit - r.pos)
	return r.Finish()
}
