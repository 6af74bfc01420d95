// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/version"
)

// Scalar binds one record field to a fixed-width wire type, so tables can
// declare fields instead of spelling out reads and writes.
type Scalar[T any] struct {
	read  func(d *Decoder, rec *T)
	write func(e *Encoder, rec *T)
	zero  func(rec *T) bool
}

func U8[T any](p func(*T) *uint8) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.U8() },
		write: func(e *Encoder, rec *T) { e.U8(*p(rec)) },
		zero:  func(rec *T) bool { return *p(rec) == 0 },
	}
}

func U16[T any](p func(*T) *uint16) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.U16() },
		write: func(e *Encoder, rec *T) { e.U16(*p(rec)) },
		zero:  func(rec *T) bool { return *p(rec) == 0 },
	}
}

func U32[T any](p func(*T) *uint32) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.U32() },
		write: func(e *Encoder, rec *T) { e.U32(*p(rec)) },
		zero:  func(rec *T) bool { return *p(rec) == 0 },
	}
}

func I16[T any](p func(*T) *int16) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.I16() },
		write: func(e *Encoder, rec *T) { e.I16(*p(rec)) },
		zero:  func(rec *T) bool { return *p(rec) == 0 },
	}
}

func I32[T any](p func(*T) *int32) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.I32() },
		write: func(e *Encoder, rec *T) { e.I32(*p(rec)) },
		zero:  func(rec *T) bool { return *p(rec) == 0 },
	}
}

func Bool[T any](p func(*T) *bool) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.Bool() },
		write: func(e *Encoder, rec *T) { e.Bool(*p(rec)) },
		zero:  func(rec *T) bool { return !*p(rec) },
	}
}

func Str[T any](max int, p func(*T) *string) Scalar[T] {
	return Scalar[T]{
		read:  func(d *Decoder, rec *T) { *p(rec) = d.String(max) },
		write: func(e *Encoder, rec *T) { e.String(*p(rec), max) },
		zero:  func(rec *T) bool { return *p(rec) == "" },
	}
}

// Fixed is an always-present field of a modern record.
func (s Scalar[T]) Fixed(name string) Field[T] {
	return Field[T]{Name: name, Read: s.read, Write: s.write}
}

// Opt is an optional field written only when it is non-zero. Absent
// fields decode as zero.
func (s Scalar[T]) Opt(name string, bit Flags) Field[T] {
	zero := s.zero
	return Field[T]{
		Name:  name,
		Bit:   bit,
		Has:   func(rec *T) bool { return !zero(rec) },
		Read:  s.read,
		Write: s.write,
	}
}

// Way is a legacy strategy for the versions when accepts.
func (s Scalar[T]) Way(name string, when version.Gate) Strategy[T] {
	return Strategy[T]{Name: name, When: when, Read: s.read}
}

// Step is a legacy field present in every version.
func (s Scalar[T]) Step(field string) Step[T] {
	return Step[T]{Field: field, Ways: []Strategy[T]{s.Way("v1", version.Always)}}
}

// Since is a legacy field present from the versions when accepts. Older
// streams leave it zero unless absent fills it in.
func (s Scalar[T]) Since(field string, when version.Gate, absent func(rec *T)) Step[T] {
	return Step[T]{
		Field:  field,
		Ways:   []Strategy[T]{s.Way("v1", when)},
		Absent: absent,
	}
}
