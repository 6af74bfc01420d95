// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"os"
	"sort"

	"github.com/containerd/continuity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/metrics"
	"github.com/hengband/savekeep/pkg/utils"
)

// Opt configures a pager.
type Opt struct {
	// Base is the save file path, floor files are named after it.
	Base string
	// Sign ties floor files to the save that wrote them.
	Sign   uint32
	Limits codec.Limits
	// WriteFile replaces os.WriteFile for floor files, tests use it to
	// inject write failures.
	WriteFile func(path string, data []byte) error
}

// Pager keeps a bounded arena of floor slots, each either resident in
// memory or paged out to its own file next to the save:
//
// 1. Create registers a newly generated floor as Active;
// 2. PageOut writes an Active floor to <base>.F<NN> when the player leaves it;
// 3. PageIn reads it back when the player returns, after checking the file
// header against the directory record;
// 4. Reclaim drops a floor and unlinks its file.
//
// When every slot is taken, Create reclaims the non-active floor visited
// least recently.
type Pager struct {
	opt        Opt
	slots      []Record
	maxFloorID uint16
	visitMark  uint32
}

// New creates an empty pager.
func New(opt Opt) *Pager {
	if opt.WriteFile == nil {
		opt.WriteFile = func(path string, data []byte) error {
			return continuity.AtomicWriteFile(path, data, 0644)
		}
	}
	return &Pager{
		opt:       opt,
		slots:     make([]Record, opt.Limits.MaxSavedFloors),
		visitMark: 1,
	}
}

func (p *Pager) Base() string {
	return p.opt.Base
}

func (p *Pager) Sign() uint32 {
	return p.opt.Sign
}

func (p *Pager) MaxFloorID() uint16 {
	return p.maxFloorID
}

// VisitMark returns the mark the next page-out will stamp.
func (p *Pager) VisitMark() uint32 {
	return p.visitMark
}

// Records returns the tracked floors ordered by floor id.
func (p *Pager) Records() []Record {
	var records []Record
	for _, rec := range p.slots {
		if rec.tracked() {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FloorID < records[j].FloorID })
	return records
}

// Get returns the tracked record of a floor.
func (p *Pager) Get(id uint16) (Record, bool) {
	if rec := p.lookup(id); rec != nil {
		return *rec, true
	}
	return Record{}, false
}

func (p *Pager) lookup(id uint16) *Record {
	if id == 0 {
		return nil
	}
	for i := range p.slots {
		if p.slots[i].tracked() && p.slots[i].FloorID == id {
			return &p.slots[i]
		}
	}
	return nil
}

func (p *Pager) mustLookup(id uint16) (*Record, error) {
	rec := p.lookup(id)
	if rec == nil {
		return nil, errors.Wrapf(errdefs.ErrMissingFloorFile, "floor %d is not tracked", id)
	}
	return rec, nil
}

// Path returns the per-floor file of a record.
func (p *Pager) Path(rec Record) string {
	return FileName(p.opt.Base, rec.Slot)
}

func (p *Pager) nextFloorID() uint16 {
	for {
		p.maxFloorID++
		if p.maxFloorID != 0 && p.lookup(p.maxFloorID) == nil {
			return p.maxFloorID
		}
	}
}

func (p *Pager) freeSlot() (int, error) {
	for i := range p.slots {
		if !p.slots[i].tracked() {
			return i, nil
		}
	}

	victim := -1
	for i := range p.slots {
		if p.slots[i].State == Active {
			continue
		}
		if victim < 0 || p.slots[i].VisitMark < p.slots[victim].VisitMark {
			victim = i
		}
	}
	if victim < 0 {
		return 0, errdefs.Overflow("active floors", len(p.slots)+1, len(p.slots))
	}
	logrus.Debugf("Reclaim %s to make room", p.slots[victim])
	if err := p.Reclaim(p.slots[victim].FloorID); err != nil {
		return 0, err
	}
	return victim, nil
}

// Create registers a newly generated floor. Upper and lower name the
// neighbors, zero for none, and must be tracked.
func (p *Pager) Create(depth int16, upper, lower uint16, turn int32) (Record, error) {
	for _, n := range []uint16{upper, lower} {
		if n != 0 && p.lookup(n) == nil {
			return Record{}, errors.Wrapf(errdefs.ErrMissingFloorFile, "neighbor floor %d is not tracked", n)
		}
	}
	slot, err := p.freeSlot()
	if err != nil {
		return Record{}, err
	}
	// The victim may have been one of the requested neighbors.
	if upper != 0 && p.lookup(upper) == nil {
		upper = 0
	}
	if lower != 0 && p.lookup(lower) == nil {
		lower = 0
	}
	p.slots[slot] = Record{
		FloorID:   p.nextFloorID(),
		Slot:      uint8(slot),
		Depth:     depth,
		LastVisit: turn,
		Upper:     upper,
		Lower:     lower,
		State:     Active,
	}
	metrics.FloorTransition(Active.String())
	return p.slots[slot], nil
}

// Link sets the stairway neighbors of a floor.
func (p *Pager) Link(id, upper, lower uint16) error {
	rec, err := p.mustLookup(id)
	if err != nil {
		return err
	}
	for _, n := range []uint16{upper, lower} {
		if n != 0 && p.lookup(n) == nil {
			return errors.Wrapf(errdefs.ErrMissingFloorFile, "neighbor floor %d is not tracked", n)
		}
	}
	rec.Upper, rec.Lower = upper, lower
	return nil
}

func (p *Pager) stamp(rec *Record, turn int32) Record {
	stamped := *rec
	stamped.LastVisit = turn
	stamped.VisitMark = p.visitMark
	return stamped
}

func (p *Pager) writeFile(path string, data []byte) error {
	err := utils.WithRetry(func() error {
		return p.opt.WriteFile(path, data)
	})
	metrics.FloorWrite(err)
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func (p *Pager) write(rec *Record, level *game.Level, turn int32) error {
	stamped := p.stamp(rec, turn)
	data, err := EncodeFile(&stamped, p.opt.Sign, level, p.opt.Limits)
	if err != nil {
		return err
	}
	if err := p.writeFile(p.Path(stamped), data); err != nil {
		return err
	}
	*rec = stamped
	p.visitMark++
	return nil
}

// PageOut writes an active floor to its file and drops it from memory. If
// the write fails the floor stays Active and the caller keeps the level.
func (p *Pager) PageOut(id uint16, level *game.Level, turn int32) error {
	rec, err := p.mustLookup(id)
	if err != nil {
		return err
	}
	if rec.State != Active {
		return errors.Errorf("page out %s: floor is %s", rec, rec.State)
	}
	if err := p.write(rec, level, turn); err != nil {
		logrus.WithError(err).Warnf("Keep %s resident", rec)
		return err
	}
	rec.State = PagedOut
	metrics.FloorTransition(PagedOut.String())
	logrus.Debugf("Paged out %s", rec)
	return nil
}

// Checkpoint writes an active floor to its file and keeps it Active.
func (p *Pager) Checkpoint(id uint16, level *game.Level, turn int32) error {
	rec, err := p.mustLookup(id)
	if err != nil {
		return err
	}
	if rec.State != Active {
		return errors.Errorf("checkpoint %s: floor is %s", rec, rec.State)
	}
	return p.write(rec, level, turn)
}

// readFile decodes the file of rec. A save interrupted between writing a
// checkpoint and replacing itself leaves the file its directory expects
// in the backup, which is used when the file itself does not match.
func (p *Pager) readFile(rec Record) (*game.Level, error) {
	path := p.Path(rec)
	level, err := p.decodeAt(path, rec)
	if err == nil || !(errdefs.IsMissingFloorFile(err) || errors.Is(err, errdefs.ErrFloorMismatch)) {
		return level, err
	}
	backup := BackupName(path)
	if !utils.IsPathExists(backup) {
		return nil, err
	}
	level, berr := p.decodeAt(backup, rec)
	if berr != nil {
		return nil, err
	}
	logrus.WithError(err).Warnf("Recovered %s from %s", rec, backup)
	return level, nil
}

func (p *Pager) decodeAt(path string, rec Record) (*game.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errdefs.ErrMissingFloorFile, "%s: %s", rec, path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return DecodeFile(path, data, rec, p.opt.Sign, p.opt.Limits)
}

// PageIn reads a paged-out floor back into memory. The file is unlinked
// after a successful read unless preserve is set.
func (p *Pager) PageIn(id uint16, preserve bool) (*game.Level, error) {
	rec, err := p.mustLookup(id)
	if err != nil {
		return nil, err
	}
	if rec.State != PagedOut {
		return nil, errors.Errorf("page in %s: floor is %s", rec, rec.State)
	}
	level, err := p.readFile(*rec)
	metrics.FloorRead(err)
	if err != nil {
		return nil, err
	}
	if !preserve {
		if err := os.Remove(p.Path(*rec)); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("Remove floor file of %s", rec)
		}
	}
	rec.State = Active
	metrics.FloorTransition(Active.String())
	logrus.Debugf("Paged in %s (preserve %v)", rec, preserve)
	return level, nil
}

// Peek decodes a paged-out floor without changing its state or file.
func (p *Pager) Peek(id uint16) (*game.Level, error) {
	rec, err := p.mustLookup(id)
	if err != nil {
		return nil, err
	}
	return p.readFile(*rec)
}

// Reclaim drops a floor, unlinks its file and clears links to it.
func (p *Pager) Reclaim(id uint16) error {
	rec, err := p.mustLookup(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p.Path(*rec)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove floor file of %s", rec)
	}
	os.Remove(BackupName(p.Path(*rec)))
	rec.State = Invalid
	for i := range p.slots {
		if !p.slots[i].tracked() {
			continue
		}
		if p.slots[i].Upper == id {
			p.slots[i].Upper = 0
		}
		if p.slots[i].Lower == id {
			p.slots[i].Lower = 0
		}
	}
	metrics.FloorTransition(Invalid.String())
	return nil
}

// Validate checks the directory: unique floor ids, resolvable neighbors
// and a file behind every paged-out floor.
func (p *Pager) Validate() error {
	if err := p.validateGraph(); err != nil {
		return err
	}
	for _, rec := range p.slots {
		if rec.State == PagedOut && !p.hasFile(rec) {
			return errors.Wrapf(errdefs.ErrMissingFloorFile, "%s: %s", rec, p.Path(rec))
		}
	}
	return nil
}

func (p *Pager) hasFile(rec Record) bool {
	path := p.Path(rec)
	return utils.IsPathExists(path) || utils.IsPathExists(BackupName(path))
}

func (p *Pager) validateGraph() error {
	seen := make(map[uint16]bool)
	for _, rec := range p.slots {
		if !rec.tracked() {
			continue
		}
		if rec.FloorID == 0 {
			return errors.Wrapf(errdefs.ErrCorruptSave, "slot %d holds floor id 0", rec.Slot)
		}
		if seen[rec.FloorID] {
			return errors.Wrapf(errdefs.ErrCorruptSave, "duplicate floor id %d", rec.FloorID)
		}
		seen[rec.FloorID] = true
	}
	for _, rec := range p.slots {
		if !rec.tracked() {
			continue
		}
		for _, n := range []uint16{rec.Upper, rec.Lower} {
			if n != 0 && !seen[n] {
				return errors.Wrapf(errdefs.ErrMissingFloorFile, "%s links to unknown floor %d", rec, n)
			}
		}
	}
	return nil
}

// Relocate copies the files of paged-out floors next to a new save base
// and makes it the base of the pager. The old files are left in place.
func (p *Pager) Relocate(base string) error {
	if base == p.opt.Base {
		return nil
	}
	for _, rec := range p.slots {
		if rec.State != PagedOut {
			continue
		}
		from, to := FileName(p.opt.Base, rec.Slot), FileName(base, rec.Slot)
		data, err := os.ReadFile(from)
		if err != nil {
			return errors.Wrapf(err, "read %s", from)
		}
		if err := p.opt.WriteFile(to, data); err != nil {
			return errors.Wrapf(err, "write %s", to)
		}
	}
	p.opt.Base = base
	return nil
}

// Rebase points the pager at base without touching any file. It undoes a
// Relocate whose save never landed.
func (p *Pager) Rebase(base string) {
	p.opt.Base = base
}
