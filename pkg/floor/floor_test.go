// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/utils"
	"github.com/hengband/savekeep/pkg/version"
)

const testSign = 0xC0FFEE01

func init() {
	utils.RetryInterval = 0
}

func newPager(t *testing.T, slots int) *Pager {
	limits := codec.DefaultLimits()
	if slots > 0 {
		limits.MaxSavedFloors = slots
	}
	return New(Opt{
		Base:   filepath.Join(t.TempDir(), "save"),
		Sign:   testSign,
		Limits: limits,
	})
}

func sampleLevel(seed uint16) *game.Level {
	level := game.NewLevel(6, 40)
	for y := 0; y < level.Height; y++ {
		for x := 0; x < level.Width; x++ {
			cell := level.At(y, x)
			cell.Feat = 1
			if y == 0 || y == level.Height-1 {
				cell.Feat = 2
				cell.Info = 0x10
			}
			if x == int(seed)%level.Width {
				cell.Feat = 7
				cell.Mimic = seed
				cell.Special = -3
			}
		}
	}
	level.Objects = []game.Item{{KIdx: seed, Y: 2, X: 3, Tval: 5, Number: 1, Inscription: "=g"}}
	level.Monsters = []game.Monster{{RIdx: seed + 1, APRIdx: seed + 1, FY: 3, FX: 4, HP: 9, MaxHP: 9, MaxMaxHP: 9}}
	return level
}

func TestPageOutPageIn(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(5, 0, 0, 100)
	require.NoError(t, err)
	require.Equal(t, Active, rec.State)
	require.Equal(t, uint16(1), rec.FloorID)

	level := sampleLevel(3)
	require.NoError(t, p.PageOut(rec.FloorID, level, 150))
	got, ok := p.Get(rec.FloorID)
	require.True(t, ok)
	require.Equal(t, PagedOut, got.State)
	require.Equal(t, int32(150), got.LastVisit)
	require.Equal(t, uint32(1), got.VisitMark)
	require.True(t, utils.IsPathExists(p.Path(got)))
	require.Equal(t, p.Base()+".F00", p.Path(got))

	back, err := p.PageIn(rec.FloorID, false)
	require.NoError(t, err)
	require.Equal(t, level, back)
	require.False(t, utils.IsPathExists(p.Path(got)), "file is consumed")

	got, _ = p.Get(rec.FloorID)
	require.Equal(t, Active, got.State)

	// Paging the same content out again yields the same payload.
	require.NoError(t, p.PageOut(rec.FloorID, back, 150))
	again, err := p.PageIn(rec.FloorID, true)
	require.NoError(t, err)
	require.Equal(t, level, again)
}

func TestPageInPreserve(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 10))

	_, err = p.PageIn(rec.FloorID, true)
	require.NoError(t, err)
	require.True(t, utils.IsPathExists(p.Path(rec)))

	_, err = p.PageIn(rec.FloorID, true)
	require.Error(t, err, "floor is already active")
}

func TestCheckpointKeepsActive(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	level := sampleLevel(2)
	require.NoError(t, p.Checkpoint(rec.FloorID, level, 20))

	got, _ := p.Get(rec.FloorID)
	require.Equal(t, Active, got.State)
	require.Equal(t, uint32(1), got.VisitMark)

	peek, err := p.Peek(rec.FloorID)
	require.NoError(t, err)
	require.Equal(t, level, peek)
}

func TestFloorMismatch(t *testing.T) {
	p := newPager(t, 0)
	a, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	b, err := p.Create(2, a.FloorID, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(a.FloorID, sampleLevel(1), 10))
	require.NoError(t, p.PageOut(b.FloorID, sampleLevel(2), 11))

	data, err := os.ReadFile(p.Path(a))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.Path(b), data, 0644))

	_, err = p.PageIn(b.FloorID, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsFloorMismatch(err), err.Error())

	got, _ := p.Get(b.FloorID)
	assert.Equal(t, PagedOut, got.State, "a rejected file leaves the floor paged out")
}

func TestFloorSignMismatch(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 10))
	p.opt.Sign++

	_, err = p.PageIn(rec.FloorID, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsFloorMismatch(err))
}

func TestMissingFloorFile(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 10))
	require.NoError(t, p.Validate())
	require.NoError(t, os.Remove(p.Path(rec)))

	err = p.Validate()
	require.Error(t, err)
	assert.True(t, errdefs.IsMissingFloorFile(err))

	_, err = p.PageIn(rec.FloorID, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsMissingFloorFile(err))

	_, err = p.PageIn(99, false)
	assert.True(t, errdefs.IsMissingFloorFile(err))
}

func TestCorruptFloorFile(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 10))

	data, err := os.ReadFile(p.Path(rec))
	require.NoError(t, err)
	data[len(data)/2] ^= 0x01
	require.NoError(t, os.WriteFile(p.Path(rec), data, 0644))

	_, err = p.PageIn(rec.FloorID, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsCorruptSave(err))
}

func TestWriteFailureKeepsFloorActive(t *testing.T) {
	p := newPager(t, 0)
	fail := true
	writes := 0
	p.opt.WriteFile = func(path string, data []byte) error {
		writes++
		if fail {
			return errors.New("no space left on device")
		}
		return os.WriteFile(path, data, 0644)
	}

	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	err = p.PageOut(rec.FloorID, sampleLevel(1), 10)
	require.Error(t, err)
	require.Equal(t, 3, writes, "the write is retried")

	got, _ := p.Get(rec.FloorID)
	require.Equal(t, Active, got.State)
	require.Equal(t, uint32(0), got.VisitMark, "a failed write stamps nothing")
	require.Equal(t, uint32(1), p.VisitMark())

	fail = false
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 10))
	got, _ = p.Get(rec.FloorID)
	require.Equal(t, PagedOut, got.State)
}

func TestReclaimLeastRecentlyVisited(t *testing.T) {
	p := newPager(t, 2)
	a, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(a.FloorID, sampleLevel(1), 1))
	b, err := p.Create(2, a.FloorID, 0, 2)
	require.NoError(t, err)
	require.NoError(t, p.Link(a.FloorID, 0, b.FloorID))
	require.NoError(t, p.PageOut(b.FloorID, sampleLevel(2), 2))

	c, err := p.Create(3, b.FloorID, 0, 3)
	require.NoError(t, err)
	require.Equal(t, a.Slot, c.Slot, "slot of the oldest floor is reused")
	require.Equal(t, uint16(3), c.FloorID)

	_, ok := p.Get(a.FloorID)
	require.False(t, ok)
	gotB, _ := p.Get(b.FloorID)
	require.Zero(t, gotB.Upper, "links to the reclaimed floor are cleared")
	require.NoError(t, p.Validate())

	// Only active floors left: nothing can be reclaimed.
	_, err = p.PageIn(b.FloorID, false)
	require.NoError(t, err)
	_, err = p.Create(4, 0, 0, 4)
	require.Error(t, err)
	require.True(t, errdefs.IsOverflowLimit(err))
}

func TestReclaimUnlinksFile(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 1))
	require.NoError(t, p.Reclaim(rec.FloorID))
	require.False(t, utils.IsPathExists(p.Path(rec)))
	require.Empty(t, p.Records())
	require.True(t, errdefs.IsMissingFloorFile(p.Reclaim(rec.FloorID)))
}

func TestCreateRejectsUnknownNeighbor(t *testing.T) {
	p := newPager(t, 0)
	_, err := p.Create(1, 7, 0, 0)
	require.Error(t, err)
	require.True(t, errdefs.IsMissingFloorFile(err))
}

func TestRelocate(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	level := sampleLevel(4)
	require.NoError(t, p.PageOut(rec.FloorID, level, 1))

	base := filepath.Join(t.TempDir(), "upgraded")
	require.NoError(t, p.Relocate(base))
	require.Equal(t, base, p.Base())
	require.True(t, utils.IsPathExists(base+".F00"))

	back, err := p.PageIn(rec.FloorID, false)
	require.NoError(t, err)
	require.Equal(t, level, back)
}

func encodeDirectory(fn func(e *codec.Encoder)) []byte {
	w := stream.NewWriter(stream.Prelude{Legacy: [3]byte{2, 8, 0}, Seed: 1})
	fn(codec.NewEncoder(w, codec.DefaultLimits()))
	return w.Finish()
}

func decodeDirectory(t *testing.T, data []byte, base string) (*Pager, error) {
	r, _, err := stream.NewReader("dir", data)
	require.NoError(t, err)
	d := codec.NewDecoder(r, version.Writer, codec.DefaultLimits())
	return ReadDirectory(d, Opt{Base: base})
}

func TestDirectoryRoundTrip(t *testing.T) {
	p := newPager(t, 0)
	a, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	b, err := p.Create(2, a.FloorID, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.PageOut(a.FloorID, sampleLevel(1), 5))
	require.NoError(t, p.Checkpoint(b.FloorID, sampleLevel(2), 6))

	data := encodeDirectory(p.WriteDirectory)
	q, err := decodeDirectory(t, data, p.Base())
	require.NoError(t, err)

	require.Equal(t, p.MaxFloorID(), q.MaxFloorID())
	require.Equal(t, p.VisitMark(), q.VisitMark())
	require.Equal(t, uint32(testSign), q.Sign())
	require.Len(t, q.Records(), 2)
	for _, rec := range q.Records() {
		require.Equal(t, PagedOut, rec.State)
		want, _ := p.Get(rec.FloorID)
		require.True(t, rec.sameHeader(want))
	}
	require.NoError(t, q.Validate())

	_, err = q.PageIn(b.FloorID, true)
	require.NoError(t, err)
}

func TestDirectoryDanglingNeighbor(t *testing.T) {
	data := encodeDirectory(func(e *codec.Encoder) {
		e.U16(1)
		e.U32(2)
		e.U32(testSign)
		e.U16(1)
		writeHeader(e, &Record{FloorID: 1, Slot: 0, Depth: 3, Upper: 9})
	})
	_, err := decodeDirectory(t, data, filepath.Join(t.TempDir(), "save"))
	require.Error(t, err)
	assert.True(t, errdefs.IsMissingFloorFile(err))
}

func TestDirectoryOverflow(t *testing.T) {
	data := encodeDirectory(func(e *codec.Encoder) {
		e.U16(1)
		e.U32(2)
		e.U32(testSign)
		e.U16(uint16(codec.DefaultLimits().MaxSavedFloors + 1))
	})
	_, err := decodeDirectory(t, data, filepath.Join(t.TempDir(), "save"))
	require.Error(t, err)
	assert.True(t, errdefs.IsOverflowLimit(err))
}

func TestDirectoryDuplicateSlot(t *testing.T) {
	data := encodeDirectory(func(e *codec.Encoder) {
		e.U16(2)
		e.U32(2)
		e.U32(testSign)
		e.U16(2)
		writeHeader(e, &Record{FloorID: 1, Slot: 3})
		writeHeader(e, &Record{FloorID: 2, Slot: 3})
	})
	_, err := decodeDirectory(t, data, filepath.Join(t.TempDir(), "save"))
	require.Error(t, err)
	assert.True(t, errdefs.IsCorruptSave(err))
}

func TestGridRunsAndClamp(t *testing.T) {
	level := game.NewLevel(3, 198)
	level.At(2, 197).Feat = 9
	data := encodeDirectory(func(e *codec.Encoder) { WriteGrid(e, level) })

	r, _, err := stream.NewReader("grid", data)
	require.NoError(t, err)
	d := codec.NewDecoder(r, version.Writer, codec.DefaultLimits())
	got, err := ReadGrid(d)
	require.NoError(t, err)
	require.NoError(t, d.Finish())
	require.Equal(t, level, got)

	// An out-of-range template falls back to the first one and a run past
	// the end of the grid is cut short.
	data = encodeDirectory(func(e *codec.Encoder) {
		e.U16(1)
		e.U16(3)
		e.U16(1)
		e.U16(0)
		e.U16(4)
		e.U16(0)
		e.I16(0)
		e.U8(1)
		e.U16(5)
		e.U8(10)
		e.U16(0)
	})
	r, _, err = stream.NewReader("grid", data)
	require.NoError(t, err)
	d = codec.NewDecoder(r, version.Writer, codec.DefaultLimits())
	got, err = ReadGrid(d)
	require.NoError(t, err)
	require.NoError(t, d.Finish())
	for _, cell := range got.Cells {
		require.Equal(t, uint16(4), cell.Feat)
	}
}

func TestTemplateLayoutPlan(t *testing.T) {
	require.Equal(t, []string{"info=v1", "feat=u8", "mimic=absent", "special=v1"},
		TemplateLayout.Plan(version.Version{Legacy: version.LegacyMinimum}))
	require.Equal(t, []string{"info=v1", "feat=u8", "mimic=u8", "special=v1"},
		TemplateLayout.Plan(version.Version{Legacy: version.CurrentLineage, Current: version.CurrentVirtues}))
	require.Equal(t, []string{"info=v1", "feat=u16", "mimic=u16", "special=v1"},
		TemplateLayout.Plan(version.Writer))
}

func TestPrepareCommit(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	first := sampleLevel(1)
	require.NoError(t, p.Checkpoint(rec.FloorID, first, 10))
	before, _ := p.Get(rec.FloorID)
	mark := p.VisitMark()

	pending, err := p.Prepare(rec.FloorID, sampleLevel(2), 20)
	require.NoError(t, err)
	staged, _ := p.Get(rec.FloorID)
	require.Equal(t, mark, staged.VisitMark)
	require.Equal(t, int32(20), staged.LastVisit)
	require.FileExists(t, p.Path(staged)+stagedSuffix)

	// A failed replace puts back the old file and the old stamp.
	full := errors.New("disk full")
	require.ErrorIs(t, pending.Commit(func() error { return full }), full)
	got, _ := p.Get(rec.FloorID)
	require.Equal(t, before, got)
	require.Equal(t, mark, p.VisitMark())
	peek, err := p.Peek(rec.FloorID)
	require.NoError(t, err)
	require.Equal(t, first, peek)
	require.NoFileExists(t, BackupName(p.Path(got)))
	require.NoFileExists(t, p.Path(got)+stagedSuffix)
	require.Error(t, pending.Commit(func() error { return nil }), "a checkpoint finishes once")

	pending, err = p.Prepare(rec.FloorID, sampleLevel(2), 20)
	require.NoError(t, err)
	require.NoError(t, pending.Commit(func() error { return nil }))
	got, _ = p.Get(rec.FloorID)
	require.Equal(t, Active, got.State)
	require.Equal(t, mark, got.VisitMark)
	peek, err = p.Peek(rec.FloorID)
	require.NoError(t, err)
	require.Equal(t, sampleLevel(2), peek)
	require.NoFileExists(t, BackupName(p.Path(got)))
}

func TestPrepareAbortWithoutFile(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)

	pending, err := p.Prepare(rec.FloorID, sampleLevel(1), 5)
	require.NoError(t, err)
	pending.Abort()
	got, _ := p.Get(rec.FloorID)
	require.Equal(t, rec, got)
	require.NoFileExists(t, p.Path(got)+stagedSuffix)

	pending, err = p.Prepare(rec.FloorID, sampleLevel(1), 5)
	require.NoError(t, err)
	require.Error(t, pending.Commit(func() error { return errors.New("no space") }))
	require.NoFileExists(t, p.Path(got), "a first checkpoint leaves nothing behind")

	require.NoError(t, p.PageOut(rec.FloorID, sampleLevel(1), 6))
	_, err = p.Prepare(rec.FloorID, sampleLevel(1), 7)
	require.Error(t, err, "only active floors are checkpointed")
}

func TestEncodeFileOverflow(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	level := sampleLevel(1)
	level.Monsters = make([]game.Monster, codec.DefaultLimits().MaxMonsters+1)

	err = p.PageOut(rec.FloorID, level, 1)
	require.Error(t, err)
	require.True(t, errdefs.IsOverflowLimit(err))
	got, _ := p.Get(rec.FloorID)
	require.Equal(t, Active, got.State)
	require.NoFileExists(t, p.Path(got))
}

func TestBackupFallback(t *testing.T) {
	p := newPager(t, 0)
	rec, err := p.Create(1, 0, 0, 0)
	require.NoError(t, err)
	level := sampleLevel(5)
	require.NoError(t, p.PageOut(rec.FloorID, level, 3))
	got, _ := p.Get(rec.FloorID)
	require.NoError(t, os.Rename(p.Path(got), BackupName(p.Path(got))))

	require.NoError(t, p.Validate())
	back, err := p.PageIn(rec.FloorID, true)
	require.NoError(t, err)
	require.Equal(t, level, back)

	require.NoError(t, p.Reclaim(rec.FloorID))
	require.NoFileExists(t, BackupName(p.Path(got)))
}
