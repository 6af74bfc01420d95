// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"context"
	"encoding/hex"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/floor"
	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/utils"
)

// FloorDirectoryRule validates the floor graph of a loaded save and looks
// for floor files no record refers to.
type FloorDirectoryRule struct {
	Dungeon *savefile.Dungeon
	// Stray lists floor files next to the save that the directory does
	// not know about. They are reported, not treated as failures.
	Stray []string
}

func (rule *FloorDirectoryRule) Name() string {
	return "FloorDirectory"
}

func (rule *FloorDirectoryRule) Validate() error {
	logrus.Infof("Checking floor directory")
	pager := rule.Dungeon.Pager
	if pager == nil {
		return nil
	}
	if err := pager.Validate(); err != nil {
		return err
	}

	known := make(map[string]bool)
	for _, rec := range pager.Records() {
		known[pager.Path(rec)] = true
		if rec.State == floor.Active && rec.FloorID != rule.Dungeon.Current {
			return errors.Errorf("%s is active but not current", rec)
		}
	}
	if current := rule.Dungeon.Current; current != 0 {
		if _, ok := pager.Get(current); !ok {
			return errors.Wrapf(errdefs.ErrMissingFloorFile, "current floor %d has no record", current)
		}
	}

	files, err := filepath.Glob(pager.Base() + ".F[0-9][0-9]")
	if err != nil {
		return errors.Wrap(err, "list floor files")
	}
	for _, file := range files {
		if !known[file] {
			logrus.Warnf("Stray floor file %s", file)
			rule.Stray = append(rule.Stray, file)
		}
	}
	return nil
}

// FloorFilesRule decodes every floor file against its directory record.
// Files are independent, so they are checked concurrently, each with its
// own stream.
type FloorFilesRule struct {
	Context context.Context
	Pager   *floor.Pager
	Workers int
	// Digests maps floor ids to the blake3 digest of their file.
	Digests map[uint16]string
}

func (rule *FloorFilesRule) Name() string {
	return "FloorFiles"
}

func (rule *FloorFilesRule) Validate() error {
	logrus.Infof("Checking floor files")
	rule.Digests = map[uint16]string{}
	if rule.Pager == nil {
		return nil
	}
	ctx := rule.Context
	if ctx == nil {
		ctx = context.Background()
	}

	// A floor adopted from an inline level lives only in memory until the
	// next save, so an active floor without a file has nothing to check.
	var records []floor.Record
	for _, rec := range rule.Pager.Records() {
		if rec.State == floor.Active && !utils.IsPathExists(rule.Pager.Path(rec)) {
			logrus.Debugf("Skip %s, resident without a file", rec)
			continue
		}
		records = append(records, rec)
	}
	digests := make([]string, len(records))
	eg, ctx := errgroup.WithContext(ctx)
	if rule.Workers > 0 {
		eg.SetLimit(rule.Workers)
	}
	for idx := range records {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := records[idx]
			level, err := rule.Pager.Peek(rec.FloorID)
			if err != nil {
				return errors.Wrapf(err, "check %s", rec)
			}
			digest, err := utils.HashFile(rule.Pager.Path(rec))
			if err != nil {
				return errors.Wrapf(err, "hash %s", rec)
			}
			digests[idx] = hex.EncodeToString(digest)
			logrus.Debugf("Checked %s: %dx%d, %d objects, %d monsters",
				rec, level.Height, level.Width, len(level.Objects), len(level.Monsters))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for idx, rec := range records {
		rule.Digests[rec.FloorID] = digests[idx]
	}
	return nil
}
