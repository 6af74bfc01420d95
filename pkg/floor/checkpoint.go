// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/utils"
)

const (
	stagedSuffix = ".new"
	backupSuffix = ".bak"
)

// BackupName returns where a floor file is kept while a checkpoint
// replacing it is not yet committed.
func BackupName(path string) string {
	return path + backupSuffix
}

// Pending is a checkpoint whose file is written but not yet in place. The
// record already carries the new stamp, so a directory written now agrees
// with the staged file.
type Pending struct {
	p    *Pager
	id   uint16
	prev Record
	mark uint32
	path string
	done bool
}

// Prepare stamps an active floor and writes its image beside its file.
// The current file is untouched until Commit.
func (p *Pager) Prepare(id uint16, level *game.Level, turn int32) (*Pending, error) {
	rec, err := p.mustLookup(id)
	if err != nil {
		return nil, err
	}
	if rec.State != Active {
		return nil, errors.Errorf("checkpoint %s: floor is %s", rec, rec.State)
	}
	stamped := p.stamp(rec, turn)
	path := p.Path(stamped)
	data, err := EncodeFile(&stamped, p.opt.Sign, level, p.opt.Limits)
	if err != nil {
		return nil, err
	}
	if err := p.writeFile(path+stagedSuffix, data); err != nil {
		return nil, err
	}
	pending := &Pending{p: p, id: id, prev: *rec, mark: p.visitMark, path: path}
	*rec = stamped
	p.visitMark++
	return pending, nil
}

// Commit moves the staged file into place, then runs replace, which
// writes the save naming it. If replace fails the previous file and the
// previous stamp are restored. Until the backup is dropped a reader
// falls back to it, so a crash at any point leaves the old save loadable.
func (c *Pending) Commit(replace func() error) error {
	if c.done {
		return errors.Errorf("checkpoint of floor %d already finished", c.id)
	}
	c.done = true
	staged, backup := c.path+stagedSuffix, BackupName(c.path)

	hadFile := utils.IsPathExists(c.path)
	if hadFile {
		if err := os.Rename(c.path, backup); err != nil {
			c.rollback(staged)
			return errors.Wrapf(err, "back up %s", c.path)
		}
	}
	if err := os.Rename(staged, c.path); err != nil {
		c.restore(hadFile, backup)
		c.rollback(staged)
		return errors.Wrapf(err, "move %s into place", staged)
	}
	if err := replace(); err != nil {
		c.restore(hadFile, backup)
		c.rollback(staged)
		return err
	}
	if hadFile {
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("Remove %s", backup)
		}
	}
	return nil
}

// Abort drops the staged file and restores the previous stamp.
func (c *Pending) Abort() {
	if c.done {
		return
	}
	c.done = true
	c.rollback(c.path + stagedSuffix)
}

func (c *Pending) restore(hadFile bool, backup string) {
	var err error
	if hadFile {
		err = os.Rename(backup, c.path)
	} else {
		err = os.Remove(c.path)
	}
	if err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Errorf("Restore %s", c.path)
	}
}

func (c *Pending) rollback(staged string) {
	if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warnf("Remove %s", staged)
	}
	if rec := c.p.lookup(c.id); rec != nil {
		state := rec.State
		*rec = c.prev
		rec.State = state
	}
	c.p.visitMark = c.mark
}
