// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// Decoder threads the active stream and its version context through
// every codec call.
type Decoder struct {
	*stream.Reader
	Version version.Version
	Limits  Limits
}

// NewDecoder wraps r. Legacy-lineage streams carry ISO-8859-1 text.
func NewDecoder(r *stream.Reader, v version.Version, limits Limits) *Decoder {
	if v.HasCurrent() {
		r.SetCharset(stream.UTF8)
	} else {
		r.SetCharset(stream.Latin1)
	}
	return &Decoder{Reader: r, Version: v, Limits: limits}
}

// Count checks a declared count against its maximum before it is used to
// size or index anything.
func (d *Decoder) Count(what string, n, max int) bool {
	if d.Err() != nil {
		return false
	}
	if n > max {
		d.Fail(errdefs.Overflow(what, n, max))
		return false
	}
	return true
}

// Index returns v if it is below max, otherwise it logs and returns
// fallback. Indexes inside a record never abort a load.
func (d *Decoder) Index(what string, v, max int, fallback int) int {
	if v >= 0 && v < max {
		return v
	}
	logrus.WithFields(logrus.Fields{
		"stream": d.Name(),
		"offset": d.Pos(),
	}).Warnf("%s index %d out of range [0,%d), using %d", what, v, max, fallback)
	return fallback
}

// Encoder writes the current format. It checks every count against the
// same maxima the decoder enforces, so nothing it accepts is rejected on
// load. After the first failed check the image must be discarded.
type Encoder struct {
	*stream.Writer
	Limits Limits
	err    error
}

func NewEncoder(w *stream.Writer, limits Limits) *Encoder {
	return &Encoder{Writer: w, Limits: limits}
}

// Err returns the first failed check.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Count checks a count against its maximum before it is written.
func (e *Encoder) Count(what string, n, max int) bool {
	if e.err != nil {
		return false
	}
	if n > max {
		e.Fail(errdefs.Overflow(what, n, max))
		return false
	}
	return true
}

// Count8 checks n and writes it as a byte.
func (e *Encoder) Count8(what string, n, max int) {
	if max > math.MaxUint8 {
		max = math.MaxUint8
	}
	e.Count(what, n, max)
	e.U8(uint8(n))
}

// Count16 checks n and writes it as a u16.
func (e *Encoder) Count16(what string, n, max int) {
	if max > math.MaxUint16 {
		max = math.MaxUint16
	}
	e.Count(what, n, max)
	e.U16(uint16(n))
}

// Strategy decodes one field for the versions its gate accepts.
type Strategy[T any] struct {
	Name string
	When version.Gate
	Read func(d *Decoder, rec *T)
}

// Step is one positional field of a legacy layout. The first strategy
// whose gate matches decodes the field; when none matches the field is
// absent from the stream and Absent fills it in.
type Step[T any] struct {
	Field  string
	Ways   []Strategy[T]
	Absent func(rec *T)
}

func (s Step[T]) pick(v version.Version) *Strategy[T] {
	for i := range s.Ways {
		if s.Ways[i].When(v) {
			return &s.Ways[i]
		}
	}
	return nil
}

// Layout is an ordered list of positional steps. The order replays the
// history of the format and must never be changed.
type Layout[T any] []Step[T]

func (l Layout[T]) Decode(d *Decoder, rec *T) error {
	for _, step := range l {
		way := step.pick(d.Version)
		if way == nil {
			if step.Absent != nil {
				step.Absent(rec)
			}
			continue
		}
		way.Read(d, rec)
		if err := d.Err(); err != nil {
			return errors.Wrapf(err, "field %s", step.Field)
		}
	}
	return nil
}

// Plan lists the strategy applied to every step for a version, as
// "field=strategy" or "field=absent".
func (l Layout[T]) Plan(v version.Version) []string {
	plan := make([]string, 0, len(l))
	for _, step := range l {
		if way := step.pick(v); way != nil {
			plan = append(plan, fmt.Sprintf("%s=%s", step.Field, way.Name))
			continue
		}
		plan = append(plan, step.Field+"=absent")
	}
	return plan
}

// Flags is the presence bitmask heading every modern record.
type Flags = uint32

// Field is one field of a modern record. Fixed fields have no bit.
type Field[T any] struct {
	Name    string
	Bit     Flags
	Has     func(rec *T) bool
	Read    func(d *Decoder, rec *T)
	Write   func(e *Encoder, rec *T)
	Default func(rec *T)
}

// Record is the flag-gated layout: a flags word, the fixed fields, then
// every optional field whose bit is set, in table order.
type Record[T any] struct {
	Fixed    []Field[T]
	Optional []Field[T]
}

func (rc Record[T]) known() Flags {
	var known Flags
	for _, f := range rc.Optional {
		known |= f.Bit
	}
	return known
}

// FlagsOf returns the flags word written for rec.
func (rc Record[T]) FlagsOf(rec *T) Flags {
	var flags Flags
	for _, f := range rc.Optional {
		if f.Has(rec) {
			flags |= f.Bit
		}
	}
	return flags
}

func (rc Record[T]) Decode(d *Decoder, rec *T) error {
	flags := d.U32()
	if err := d.Err(); err != nil {
		return err
	}
	if unknown := flags &^ rc.known(); unknown != 0 {
		return errors.Wrapf(errdefs.ErrCorruptSave, "%s: unknown format flags %08x at offset %d", d.Name(), unknown, d.Pos())
	}
	for _, f := range rc.Fixed {
		f.Read(d, rec)
		if err := d.Err(); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	}
	for _, f := range rc.Optional {
		if flags&f.Bit == 0 {
			if f.Default != nil {
				f.Default(rec)
			}
			continue
		}
		f.Read(d, rec)
		if err := d.Err(); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	}
	return nil
}

func (rc Record[T]) Encode(e *Encoder, rec *T) {
	flags := rc.FlagsOf(rec)
	e.U32(flags)
	for _, f := range rc.Fixed {
		f.Write(e, rec)
	}
	for _, f := range rc.Optional {
		if flags&f.Bit != 0 {
			f.Write(e, rec)
		}
	}
}

// Codec is the two-tier decoder of one entity type.
type Codec[T any] struct {
	Name string
	// Modern selects the flag-gated record.
	Modern version.Gate
	Legacy Layout[T]
	Record Record[T]
	// Fixup runs after either layout, it clamps indexes into lookup tables.
	Fixup func(d *Decoder, rec *T)
}

func (c Codec[T]) Decode(d *Decoder, rec *T) error {
	var err error
	if c.Modern(d.Version) {
		err = c.Record.Decode(d, rec)
	} else {
		err = c.Legacy.Decode(d, rec)
	}
	if err != nil {
		return errors.Wrap(err, c.Name)
	}
	if c.Fixup != nil {
		c.Fixup(d, rec)
	}
	return nil
}

func (c Codec[T]) Encode(e *Encoder, rec *T) {
	c.Record.Encode(e, rec)
}

// EncodeErr encodes rec and reports the first failed check, naming the
// entity.
func (c Codec[T]) EncodeErr(e *Encoder, rec *T) error {
	c.Encode(e, rec)
	if err := e.Err(); err != nil {
		return errors.Wrap(err, c.Name)
	}
	return nil
}
