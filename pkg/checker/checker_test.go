// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/floor"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/savefile/testutil"
	"github.com/hengband/savekeep/pkg/version"
)

func testLevel(feat uint16) *game.Level {
	level := game.NewLevel(3, 8)
	for i := range level.Cells {
		level.Cells[i].Feat = feat
	}
	return level
}

// writeSave saves a character standing on the second of two floors.
func writeSave(t *testing.T) (string, *savefile.Game) {
	path := filepath.Join(t.TempDir(), "player.sav")
	g := &savefile.Game{Dungeon: savefile.NewDungeon(path, codec.DefaultLimits())}
	g.State.Player.Name = "Checker"
	pager := g.Dungeon.Pager
	upper, err := pager.Create(1, 0, 0, 10)
	require.NoError(t, err)
	lower, err := pager.Create(2, upper.FloorID, 0, 20)
	require.NoError(t, err)
	require.NoError(t, pager.Link(upper.FloorID, 0, lower.FloorID))
	require.NoError(t, pager.PageOut(upper.FloorID, testLevel(1), 15))
	g.Dungeon.Current = lower.FloorID
	g.Dungeon.Level = testLevel(2)
	require.NoError(t, savefile.Save(path, g, savefile.Opt{}))
	return path, g
}

func ruleNames(report *Report) []string {
	var names []string
	for _, r := range report.Results {
		names = append(names, r.Rule)
	}
	return names
}

func TestCheckHealthySave(t *testing.T) {
	path, g := writeSave(t)
	report, err := New(Opt{Path: path, Workers: 2}).Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Checksum", "Header", "Stages", "FloorDirectory", "FloorFiles"}, ruleNames(report))
	for _, r := range report.Results {
		assert.True(t, r.Passed, r.Rule)
	}
	assert.Contains(t, report.Version, "1.3.0.0")
	require.Len(t, report.Floors, 2)
	for _, rec := range g.Dungeon.Pager.Records() {
		assert.Len(t, report.Floors[rec.FloorID], 64)
	}
	assert.Empty(t, report.Stray)
}

func TestCheckCorruptSave(t *testing.T) {
	path, _ := writeSave(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)/2] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0644))

	report, err := New(Opt{Path: path}).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsCorruptSave(err))
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Checksum", report.Results[0].Rule)
	assert.False(t, report.Results[0].Passed)
	assert.NotEmpty(t, report.Results[0].Error)
}

func TestCheckMissingFloorFile(t *testing.T) {
	path, g := writeSave(t)
	for _, rec := range g.Dungeon.Pager.Records() {
		if rec.FloorID != g.Dungeon.Current {
			require.NoError(t, os.Remove(g.Dungeon.Pager.Path(rec)))
		}
	}

	report, err := New(Opt{Path: path}).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsMissingFloorFile(err))
	assert.Equal(t, []string{"Checksum", "Header", "Stages"}, ruleNames(report))
}

func TestCheckSwappedFloorFile(t *testing.T) {
	path, g := writeSave(t)
	pager := g.Dungeon.Pager
	var current, other floor.Record
	for _, rec := range pager.Records() {
		if rec.FloorID == g.Dungeon.Current {
			current = rec
		} else {
			other = rec
		}
	}
	data, err := os.ReadFile(pager.Path(current))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pager.Path(other), data, 0644))

	report, err := New(Opt{Path: path, Workers: 1}).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsFloorMismatch(err))
	last := report.Results[len(report.Results)-1]
	assert.Equal(t, "FloorFiles", last.Rule)
	assert.False(t, last.Passed)
}

func TestCheckStrayFloorFile(t *testing.T) {
	path, _ := writeSave(t)
	stray := floor.FileName(path, 9)
	require.NoError(t, os.WriteFile(stray, []byte("left over"), 0644))

	report, err := New(Opt{Path: path}).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{stray}, report.Stray)
}

func TestCheckDeadCharacter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.sav")
	g := &savefile.Game{}
	g.State.Player.IsDead = true
	require.NoError(t, savefile.Save(path, g, savefile.Opt{}))

	report, err := New(Opt{Path: path}).Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Results, 5)
	assert.Empty(t, report.Floors)
}

func TestCheckSavesBeforeFloorPaging(t *testing.T) {
	cases := []struct {
		name   string
		legacy version.Triple
		quad   *version.Quad
		body   func(e *codec.Encoder)
	}{
		{"legacy 2.2.7", testutil.Legacy227, nil, testutil.WriteLegacy227},
		{"current 0.2", version.CurrentLineage, &testutil.Current02, testutil.WriteCurrent02},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "old.sav")
			require.NoError(t, os.WriteFile(path, testutil.EncodeStream(c.legacy, c.quad, c.body), 0644))

			report, err := New(Opt{Path: path, Workers: 2}).Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"Checksum", "Header", "Stages", "FloorDirectory", "FloorFiles"}, ruleNames(report))
			assert.Empty(t, report.Floors, "the adopted floor has no file yet")
			assert.NoFileExists(t, floor.FileName(path, 0))
		})
	}
}
