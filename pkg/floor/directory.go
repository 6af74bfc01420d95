// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
)

// WriteDirectory encodes the floor directory into the save stream. Every
// floor must have a current file, so only paged-out floors and the
// checkpointed current floor may be written.
func (p *Pager) WriteDirectory(e *codec.Encoder) {
	records := p.Records()
	e.U16(p.maxFloorID)
	e.U32(p.visitMark)
	e.U32(p.opt.Sign)
	e.U16(uint16(len(records)))
	for i := range records {
		writeHeader(e, &records[i])
	}
}

// ReadDirectory decodes the floor directory of a save. All floors come
// back PagedOut; the caller pages the current one in.
func ReadDirectory(d *codec.Decoder, opt Opt) (*Pager, error) {
	maxFloorID := d.U16()
	visitMark := d.U32()
	opt.Sign = d.U32()
	count := int(d.U16())
	if !d.Count("saved floors", count, d.Limits.MaxSavedFloors) {
		return nil, d.Err()
	}
	opt.Limits = d.Limits

	p := New(opt)
	p.maxFloorID = maxFloorID
	p.visitMark = visitMark
	for i := 0; i < count; i++ {
		rec := readHeader(d)
		if err := d.Err(); err != nil {
			return nil, errors.Wrapf(err, "floor record %d", i)
		}
		if int(rec.Slot) >= len(p.slots) {
			return nil, errdefs.Overflow("floor slot", int(rec.Slot), len(p.slots)-1)
		}
		if p.slots[rec.Slot].tracked() {
			return nil, errors.Wrapf(errdefs.ErrCorruptSave, "floor slot %d used twice", rec.Slot)
		}
		rec.State = PagedOut
		p.slots[rec.Slot] = rec
	}
	if err := p.validateGraph(); err != nil {
		return nil, err
	}
	return p, nil
}
