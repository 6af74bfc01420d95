// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package savefile

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/metrics"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// ReadVersion decodes the recorded versions at the start of a stream.
// Current-lineage streams carry a quad right after the prelude.
func ReadVersion(r *stream.Reader, prelude stream.Prelude) (version.Version, error) {
	ver := version.Version{
		Legacy: version.Triple{Major: prelude.Legacy[0], Minor: prelude.Legacy[1], Patch: prelude.Legacy[2]},
	}
	if ver.HasCurrent() {
		ver.Current = version.Quad{Major: r.U8(), Minor: r.U8(), Patch: r.U8(), Extra: r.U8()}
	}
	if err := r.Err(); err != nil {
		return version.Version{}, err
	}
	return ver, version.Check(ver)
}

// Load reads the save at path and pages in the floor the player is on.
// Any failure aborts the whole load and is reported as a *LoadError.
func Load(path string, opt Opt) (*Game, error) {
	start := time.Now()
	g, err := load(path, opt)
	metrics.LoadCount(err)
	metrics.LoadDuration(err, start)
	return g, err
}

func load(path string, opt Opt) (*Game, error) {
	opt.Limits = opt.limits()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError("open", errors.Wrapf(err, "read %s", path))
	}
	if err := stream.Verify(path, data); err != nil {
		return nil, newLoadError("checksum", err)
	}

	r, prelude, err := stream.NewReader(path, data)
	if err != nil {
		return nil, newLoadError("header", err)
	}
	ver, err := ReadVersion(r, prelude)
	if err != nil {
		return nil, newLoadError("header", err)
	}
	logrus.Debugf("Load %s, format %s", path, ver)

	s := &session{
		path: path,
		opt:  opt,
		game: &Game{},
		d:    codec.NewDecoder(r, ver, opt.Limits),
	}
	for _, st := range stages {
		err := st.load(s)
		if err == nil {
			err = s.d.Err()
		}
		if err == nil {
			logrus.Debugf("Stage %s done at offset %d", st.name, s.d.Pos())
			continue
		}
		if st.fatal || errdefs.IsFatalStream(err) {
			return nil, newLoadError(st.name, err)
		}
		logrus.WithError(err).Warnf("Stage %s kept defaults", st.name)
	}
	if err := s.d.Finish(); err != nil {
		return nil, newLoadError("trailer", err)
	}
	return s.game, nil
}
