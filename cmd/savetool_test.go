// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengband/savekeep/pkg/catalog"
	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/savefile"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"savetool", "--log-level", "error"}, args...))
	return buf.String(), err
}

func writeSave(t *testing.T, dir string) string {
	path := filepath.Join(dir, "hero.sav")
	g := &savefile.Game{Dungeon: savefile.NewDungeon(path, codec.DefaultLimits())}
	g.State.Player = game.Player{Name: "Hero", Lev: 20, Depth: 3, Gold: 900}
	pager := g.Dungeon.Pager
	upper, err := pager.Create(2, 0, 0, 10)
	require.NoError(t, err)
	lower, err := pager.Create(3, upper.FloorID, 0, 20)
	require.NoError(t, err)
	require.NoError(t, pager.Link(upper.FloorID, 0, lower.FloorID))
	require.NoError(t, pager.PageOut(upper.FloorID, game.NewLevel(2, 5), 15))
	g.Dungeon.Current = lower.FloorID
	g.Dungeon.Level = game.NewLevel(3, 4)
	require.NoError(t, savefile.Save(path, g, savefile.Opt{}))
	return path
}

func writeConfig(t *testing.T, dir string) string {
	path := filepath.Join(dir, "savetool.toml")
	doc := fmt.Sprintf("[catalog]\ndir = %q\n\n[check]\nworkers = 2\n", filepath.Join(dir, "catalog"))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := writeSave(t, dir)
	out := filepath.Join(dir, "summary.json")

	_, err := run(t, "inspect", "--output", out, path)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var sum summary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, "Hero", sum.Player.Name)
	assert.Equal(t, int32(900), sum.Player.Gold)
	assert.Equal(t, uint16(1), sum.Saves)
	require.Len(t, sum.Floors, 2)
	assert.Equal(t, "paged-out", sum.Floors[0].State)
	assert.Equal(t, "active", sum.Floors[1].State)
	require.NotNil(t, sum.Level)
	assert.Equal(t, 3, sum.Level.Height)
	assert.Equal(t, 4, sum.Level.Width)
}

func TestInspectRequiresArgument(t *testing.T) {
	_, err := run(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<save> argument is required")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := writeSave(t, dir)
	cfg := writeConfig(t, dir)

	out, err := run(t, "--config", cfg, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"rule": "FloorFiles"`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[10] ^= 0x80
	require.NoError(t, os.WriteFile(path, data, 0644))
	out, err = run(t, "--config", cfg, "check", "--workers", "1", path)
	require.Error(t, err)
	assert.Contains(t, out, `"rule": "Checksum"`)
	assert.Contains(t, out, `"passed": false`)
}

func TestFloors(t *testing.T) {
	path := writeSave(t, t.TempDir())
	out, err := run(t, "floors", path)
	require.NoError(t, err)
	assert.Contains(t, out, "FLOOR")
	assert.Contains(t, out, "2*")
	assert.Contains(t, out, "paged-out")
}

func TestUpgrade(t *testing.T) {
	dir := t.TempDir()
	path := writeSave(t, dir)
	target := filepath.Join(dir, "upgraded", "hero.sav")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))

	_, err := run(t, "upgrade", path, target)
	require.NoError(t, err)

	g, err := savefile.Load(target, savefile.Opt{})
	require.NoError(t, err)
	assert.Equal(t, uint16(2), g.State.Header.Saves)
	assert.Len(t, g.Dungeon.Pager.Records(), 2)
	assert.Equal(t, 3, g.Dungeon.Level.Height)

	_, err = run(t, "upgrade", path)
	require.Error(t, err)
}

func TestCatalogCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeSave(t, dir)
	cfg := writeConfig(t, dir)

	_, err := run(t, "--config", cfg, "catalog", "add", path)
	require.NoError(t, err)
	out, err := run(t, "--config", cfg, "catalog", "list")
	require.NoError(t, err)

	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Hero", entries[0].Name)
	assert.Equal(t, 2, entries[0].Floors)

	_, err = run(t, "--config", cfg, "catalog", "remove", path)
	require.NoError(t, err)
	out, err = run(t, "--config", cfg, "catalog", "list")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestConfigAndFormats(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--config", writeConfig(t, dir), "config")
	require.NoError(t, err)
	assert.Contains(t, out, "max_saved_floors = 20")
	assert.Contains(t, out, "workers = 2")

	out, err = run(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "current-floor-paging")
	assert.Contains(t, out, "legacy 2.0.0")

	_, err = run(t, "--config", filepath.Join(dir, "absent.toml"), "formats")
	require.Error(t, err)
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSave(t, dir)
	metricsFile := filepath.Join(dir, "savetool.prom")

	_, err := run(t, "--metrics-file", metricsFile, "inspect", path)
	require.NoError(t, err)
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "savekeep_savefile_load_count")
}
