// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/errdefs"
)

// Triple is a legacy-lineage version, stored raw in the stream prelude.
type Triple struct {
	Major, Minor, Patch uint8
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// Compare returns -1, 0 or 1.
func (t Triple) Compare(o Triple) int {
	return compare([]uint8{t.Major, t.Minor, t.Patch}, []uint8{o.Major, o.Minor, o.Patch})
}

// Quad is a current-lineage version, stored in the encoded header.
type Quad struct {
	Major, Minor, Patch, Extra uint8
}

func (q Quad) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", q.Major, q.Minor, q.Patch, q.Extra)
}

// Compare returns -1, 0 or 1.
func (q Quad) Compare(o Quad) int {
	return compare([]uint8{q.Major, q.Minor, q.Patch, q.Extra}, []uint8{o.Major, o.Minor, o.Patch, o.Extra})
}

func compare(a, b []uint8) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Version carries both recorded identifiers of a stream. Streams of the
// legacy lineage have a zero Current.
type Version struct {
	Legacy  Triple
	Current Quad
}

func (v Version) String() string {
	if !v.HasCurrent() {
		return "legacy " + v.Legacy.String()
	}
	return fmt.Sprintf("%s (legacy %s)", v.Current, v.Legacy)
}

// LegacyOlderThan reports whether the stream predates the legacy version t.
func (v Version) LegacyOlderThan(t Triple) bool {
	return v.Legacy.Compare(t) < 0
}

// OlderThan reports whether the stream predates the current version q.
// Legacy-lineage streams are older than every current version.
func (v Version) OlderThan(q Quad) bool {
	return v.Current.Compare(q) < 0
}

// HasCurrent reports whether the stream header carries a current quad.
func (v Version) HasCurrent() bool {
	return !v.LegacyOlderThan(CurrentLineage)
}

// Writer is the version emitted by this engine.
var Writer = Version{Legacy: CurrentLineage, Current: WriterCurrent}

// Check rejects streams outside the decodable range.
func Check(v Version) error {
	if v.LegacyOlderThan(LegacyMinimum) {
		return errors.Wrapf(errdefs.ErrUnsupportedVersion, "legacy version %s older than %s", v.Legacy, LegacyMinimum)
	}
	if v.Legacy.Compare(CurrentLineage) > 0 {
		return errors.Wrapf(errdefs.ErrUnsupportedVersion, "legacy version %s newer than %s", v.Legacy, CurrentLineage)
	}
	if v.Current.Compare(WriterCurrent) > 0 {
		return errors.Wrapf(errdefs.ErrUnsupportedVersion, "version %s newer than %s", v.Current, WriterCurrent)
	}
	if v.HasCurrent() && v.OlderThan(Current010) {
		return errors.Wrapf(errdefs.ErrUnsupportedVersion, "version %s older than %s", v.Current, Current010)
	}
	return nil
}
