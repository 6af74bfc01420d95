// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hengband/savekeep/pkg/errdefs"
)

func TestOlderThan(t *testing.T) {
	legacy := Version{Legacy: Triple{2, 1, 3}}
	assert.True(t, legacy.LegacyOlderThan(LegacyEnergyNeed))
	assert.False(t, legacy.LegacyOlderThan(LegacyArtFlags3))
	assert.True(t, legacy.OlderThan(Current010))
	assert.False(t, legacy.HasCurrent())

	current := Version{Legacy: CurrentLineage, Current: Quad{1, 0, 0, 0}}
	assert.True(t, current.HasCurrent())
	assert.False(t, current.OlderThan(CurrentFloorPaging))
	assert.True(t, current.OlderThan(CurrentStoreFlags))
	assert.True(t, current.OlderThan(Quad{1, 0, 0, 1}))
	assert.False(t, current.LegacyOlderThan(LegacyOptionWords))
}

func TestGates(t *testing.T) {
	v := Version{Legacy: CurrentLineage, Current: CurrentCurseFlags}
	assert.True(t, Always(v))
	assert.True(t, Before(CurrentFormatFlags)(v))
	assert.True(t, Since(CurrentCurseFlags)(v))
	assert.False(t, LegacyBefore(LegacyArtFlags3)(v))
	assert.True(t, LegacySince(LegacyArtFlags3)(v))
	assert.True(t, And(Since(Current010), Before(CurrentFormatFlags))(v))
	assert.False(t, And(Since(Current010), Not(Always))(v))
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name    string
		version Version
		ok      bool
	}{
		{"writer", Writer, true},
		{"oldest legacy", Version{Legacy: LegacyMinimum}, true},
		{"legacy option words", Version{Legacy: LegacyOptionWords}, true},
		{"before legacy minimum", Version{Legacy: Triple{1, 9, 9}}, false},
		{"legacy newer than lineage", Version{Legacy: Triple{2, 9, 0}, Current: WriterCurrent}, false},
		{"current newer than writer", Version{Legacy: CurrentLineage, Current: Quad{9, 0, 0, 0}}, false},
		{"current lineage without quad", Version{Legacy: CurrentLineage}, false},
		{"first current", Version{Legacy: CurrentLineage, Current: Current010}, true},
	}
	for _, c := range cases {
		err := Check(c.version)
		if c.ok {
			assert.NoError(t, err, c.name)
		} else {
			assert.True(t, errdefs.IsUnsupportedVersion(err), c.name)
		}
	}
}

func TestHistoryOrdered(t *testing.T) {
	var lastLegacy *Triple
	var lastQuad *Quad
	for _, m := range History {
		assert.NotEmpty(t, m.Change, m.Name)
		if m.Legacy != nil {
			if lastLegacy != nil {
				assert.Equal(t, 1, m.Legacy.Compare(*lastLegacy), m.Name)
			}
			lastLegacy = m.Legacy
		}
		if m.Quad != nil {
			if lastQuad != nil {
				assert.Equal(t, 1, m.Quad.Compare(*lastQuad), m.Name)
			}
			lastQuad = m.Quad
		}
	}
	assert.Equal(t, WriterCurrent, *lastQuad)
	assert.Equal(t, CurrentLineage, *lastLegacy)
}
