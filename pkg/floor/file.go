// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// FileName returns the per-floor file of slot next to the save base.
func FileName(base string, slot uint8) string {
	return fmt.Sprintf("%s.F%02d", base, slot)
}

func writeHeader(e *codec.Encoder, rec *Record) {
	e.U16(rec.FloorID)
	e.U8(rec.Slot)
	e.I16(rec.Depth)
	e.I32(rec.LastVisit)
	e.U32(rec.VisitMark)
	e.U16(rec.Upper)
	e.U16(rec.Lower)
}

func readHeader(d *codec.Decoder) Record {
	return Record{
		FloorID:   d.U16(),
		Slot:      d.U8(),
		Depth:     d.I16(),
		LastVisit: d.I32(),
		VisitMark: d.U32(),
		Upper:     d.U16(),
		Lower:     d.U16(),
	}
}

func writeQuad(w *stream.Writer, q version.Quad) {
	w.U8(q.Major)
	w.U8(q.Minor)
	w.U8(q.Patch)
	w.U8(q.Extra)
}

// EncodeFile builds the image of a per-floor file. It fails when the
// level exceeds the limits a reader would enforce.
func EncodeFile(rec *Record, sign uint32, level *game.Level, limits codec.Limits) ([]byte, error) {
	writer := version.Writer
	w := stream.NewWriter(stream.Prelude{
		Legacy: [3]byte{writer.Legacy.Major, writer.Legacy.Minor, writer.Legacy.Patch},
		Seed:   byte(rec.VisitMark) ^ byte(sign),
	})
	writeQuad(w, writer.Current)
	e := codec.NewEncoder(w, limits)
	e.U32(sign)
	writeHeader(e, rec)
	WriteLevel(e, level)
	if err := e.Err(); err != nil {
		return nil, errors.Wrapf(err, "encode %s", rec)
	}
	return w.Finish(), nil
}

// DecodeFile decodes a per-floor file. The header must equal want before
// any payload is read. The file has its own stream, so a nested read
// never disturbs the stream of the save being loaded.
func DecodeFile(name string, data []byte, want Record, sign uint32, limits codec.Limits) (*game.Level, error) {
	if err := stream.Verify(name, data); err != nil {
		return nil, err
	}
	r, prelude, err := stream.NewReader(name, data)
	if err != nil {
		return nil, err
	}
	ver := version.Version{
		Legacy: version.Triple{Major: prelude.Legacy[0], Minor: prelude.Legacy[1], Patch: prelude.Legacy[2]},
	}
	if ver.HasCurrent() {
		ver.Current = version.Quad{Major: r.U8(), Minor: r.U8(), Patch: r.U8(), Extra: r.U8()}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := version.Check(ver); err != nil {
		return nil, errors.Wrap(err, name)
	}
	if ver.OlderThan(version.CurrentFloorPaging) {
		return nil, errors.Wrapf(errdefs.ErrUnsupportedVersion, "%s: floor file version %s predates floor paging", name, ver)
	}

	d := codec.NewDecoder(r, ver, limits)
	gotSign := d.U32()
	got := readHeader(d)
	if err := d.Err(); err != nil {
		return nil, err
	}
	if gotSign != sign {
		return nil, errors.Wrapf(errdefs.ErrFloorMismatch, "%s: file sign %08x, want %08x", name, gotSign, sign)
	}
	want.State = 0
	if !got.sameHeader(want) {
		return nil, errors.Wrapf(errdefs.ErrFloorMismatch, "%s: header %+v, want %+v", name, got, want)
	}

	level, err := ReadLevel(d)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return level, nil
}
