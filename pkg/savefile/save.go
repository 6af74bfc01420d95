// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package savefile

import (
	"time"

	"github.com/containerd/continuity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/metrics"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// Save writes g to path in the current format. The save count is
// incremented and the current floor is checkpointed; the new floor file
// and the save replace the old ones together. When the save fails g is
// left as it was and the previous save stays loadable.
func Save(path string, g *Game, opt Opt) error {
	err := save(path, g, opt)
	metrics.SaveCount(err)
	return err
}

func save(path string, g *Game, opt Opt) error {
	st := &g.State
	header, floorID := st.Header, st.Player.FloorID
	s, data, err := encode(path, g, opt)
	if err == nil {
		err = commit(s, path, data)
	}
	if err != nil {
		if s != nil {
			if s.checkpoint != nil {
				s.checkpoint.Abort()
			}
			for i := len(s.undo) - 1; i >= 0; i-- {
				s.undo[i]()
			}
		}
		st.Header, st.Player.FloorID = header, floorID
		return err
	}
	logrus.Debugf("Saved %s (%d bytes, save %d)", path, len(data), st.Header.Saves)
	return nil
}

func encode(path string, g *Game, opt Opt) (*session, []byte, error) {
	opt.Limits = opt.limits()
	st := &g.State
	st.Header.Version = version.Writer
	st.Header.Saves++
	st.Header.When = uint32(time.Now().Unix())
	st.Player.FloorID = g.Dungeon.Current

	w := stream.NewWriter(stream.Prelude{
		Legacy: [3]byte{version.Writer.Legacy.Major, version.Writer.Legacy.Minor, version.Writer.Legacy.Patch},
		Seed:   byte(st.Header.When),
	})
	cur := version.Writer.Current
	w.U8(cur.Major)
	w.U8(cur.Minor)
	w.U8(cur.Patch)
	w.U8(cur.Extra)

	s := &session{
		path: path,
		opt:  opt,
		game: g,
		e:    codec.NewEncoder(w, opt.Limits),
	}
	for _, step := range stages {
		err := step.save(s)
		if err == nil {
			err = s.e.Err()
		}
		if err != nil {
			return s, nil, errors.Wrapf(err, "save stage %s", step.name)
		}
	}
	return s, w.Finish(), nil
}

func commit(s *session, path string, data []byte) error {
	replace := func() error {
		if err := continuity.AtomicWriteFile(path, data, 0644); err != nil {
			return errors.Wrapf(err, "replace %s", path)
		}
		return nil
	}
	if s.checkpoint == nil {
		return replace()
	}
	return s.checkpoint.Commit(replace)
}
