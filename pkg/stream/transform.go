// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package stream

// PreludeSize is the number of raw bytes at the start of every stream:
// three legacy version bytes and the transform seed.
const PreludeSize = 4

// TrailerSize is the number of bytes taken by the two checksum words.
const TrailerSize = 8

// Encode transforms a plain byte for disk. The state is the previous
// on-disk byte, the returned next state is the byte just produced.
func Encode(v, state byte) (c, next byte) {
	c = v ^ state
	return c, c
}

// Decode reverses Encode.
func Decode(c, state byte) (v, next byte) {
	return c ^ state, c
}

// Checksum is the pair of running sums kept by every stream. Value sums
// plain bytes, Encoded sums on-disk bytes.
type Checksum struct {
	Value   uint32
	Encoded uint32
}

func (sum *Checksum) add(v, c byte) {
	sum.Value += uint32(v)
	sum.Encoded += uint32(c)
}
