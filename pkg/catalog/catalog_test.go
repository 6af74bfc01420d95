// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/utils"
)

func writeSave(t *testing.T, dir, name string) (string, *savefile.Game) {
	path := filepath.Join(dir, name+".sav")
	g := &savefile.Game{}
	g.State.Player = game.Player{Name: name, Lev: 7, Depth: 2}
	require.NoError(t, savefile.Save(path, g, savefile.Opt{}))
	return path, g
}

func TestDescribe(t *testing.T) {
	path, g := writeSave(t, t.TempDir(), "Frodo")
	entry, err := Describe(path, g)
	require.NoError(t, err)

	digest, err := utils.HashFile(path)
	require.NoError(t, err)
	assert.Len(t, digest, 32)
	assert.Equal(t, path, entry.Path)
	assert.Len(t, entry.Digest, 64)
	assert.Equal(t, "Frodo", entry.Name)
	assert.Equal(t, int16(7), entry.Level)
	assert.Equal(t, uint16(1), entry.Saves)
	assert.Zero(t, entry.Floors)
	assert.Contains(t, entry.Version, "1.3.0.0")
}

func TestCatalogAddGetList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	defer c.Close()

	pathA, gA := writeSave(t, dir, "Bilbo")
	pathB, gB := writeSave(t, dir, "Arwen")
	entryA, err := Describe(pathA, gA)
	require.NoError(t, err)
	entryB, err := Describe(pathB, gB)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, entryA))
	require.NoError(t, c.Add(ctx, entryB))
	assert.NotEmpty(t, entryA.ID)
	assert.NotEqual(t, entryA.ID, entryB.ID)

	got, err := c.Get(ctx, pathA)
	require.NoError(t, err)
	assert.Equal(t, entryA.ID, got.ID)
	assert.Equal(t, "Bilbo", got.Name)
	assert.True(t, entryA.AddedAt.Equal(got.AddedAt))

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Arwen", entries[0].Name)
	assert.Equal(t, "Bilbo", entries[1].Name)

	// Registering again refreshes the entry but keeps its identity.
	require.NoError(t, savefile.Save(pathA, gA, savefile.Opt{}))
	refreshed, err := Describe(pathA, gA)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, refreshed))
	assert.Equal(t, entryA.ID, refreshed.ID)

	got, err = c.Get(ctx, pathA)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), got.Saves)
	assert.NotEqual(t, entryA.Digest, got.Digest)
}

func TestCatalogPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	root := filepath.Join(dir, "catalog")
	path, g := writeSave(t, dir, "Sam")
	entry, err := Describe(path, g)
	require.NoError(t, err)

	c, err := New(root)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, entry))
	require.NoError(t, c.Close())

	c, err = New(root)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
}

func TestCatalogDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	defer c.Close()

	path, g := writeSave(t, dir, "Pippin")
	entry, err := Describe(path, g)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, entry))
	require.NoError(t, c.Delete(ctx, path))

	_, err = c.Get(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, path), ErrNotFound)
}
