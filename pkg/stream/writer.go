// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Writer encodes a stream into memory.
type Writer struct {
	buf   bytes.Buffer
	state byte
	sum   Checksum
}

// NewWriter writes the raw prelude and starts the transform at seed.
func NewWriter(prelude Prelude) *Writer {
	w := &Writer{}
	raw := []byte{prelude.Legacy[0], prelude.Legacy[1], prelude.Legacy[2], prelude.Seed}
	for _, b := range raw {
		w.buf.WriteByte(b)
		w.sum.add(b, b)
	}
	w.state = prelude.Seed
	return w
}

func (w *Writer) put(v byte) {
	var c byte
	c, w.state = Encode(v, w.state)
	w.buf.WriteByte(c)
	w.sum.add(v, c)
}

func (w *Writer) U8(v uint8) {
	w.put(v)
}

func (w *Writer) U16(v uint16) {
	w.put(byte(v))
	w.put(byte(v >> 8))
}

func (w *Writer) U32(v uint32) {
	for shift := 0; shift < 32; shift += 8 {
		w.put(byte(v >> shift))
	}
}

func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.put(1)
		return
	}
	w.put(0)
}

// String writes s truncated to max bytes followed by a NUL. Embedded NUL
// bytes are dropped and the cut never splits a rune.
func (w *Writer) String(s string, max int) {
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	for i := 0; i < len(s); i++ {
		w.put(s[i])
	}
	w.put(0)
}

// Pad writes n zero bytes.
func (w *Writer) Pad(n int) {
	for i := 0; i < n; i++ {
		w.put(0)
	}
}

// Sum returns the checksums accumulated so far.
func (w *Writer) Sum() Checksum {
	return w.sum
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Finish appends the trailer and returns the complete image.
func (w *Writer) Finish() []byte {
	sum := w.sum
	w.U32(sum.Value)
	w.U32(sum.Encoded)
	return w.buf.Bytes()
}
