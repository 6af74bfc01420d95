// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// maxRun is the longest run a single RLE entry can describe.
const maxRun = 0xFF

// TemplateLayout is one entry of the grid template table. Streams before
// floor paging stored features and mimics in one byte each.
var TemplateLayout = codec.Layout[game.Cell]{
	codec.U16(func(c *game.Cell) *uint16 { return &c.Info }).Step("info"),
	{
		Field: "feat",
		Ways: []codec.Strategy[game.Cell]{
			codec.U16(func(c *game.Cell) *uint16 { return &c.Feat }).Way("u16", v.Since(v.CurrentFloorPaging)),
			{Name: "u8", When: v.Always, Read: func(d *codec.Decoder, c *game.Cell) { c.Feat = uint16(d.U8()) }},
		},
	},
	{
		Field: "mimic",
		Ways: []codec.Strategy[game.Cell]{
			codec.U16(func(c *game.Cell) *uint16 { return &c.Mimic }).Way("u16", v.Since(v.CurrentFloorPaging)),
			{Name: "u8", When: v.LegacySince(v.LegacyWideMonsters), Read: func(d *codec.Decoder, c *game.Cell) { c.Mimic = uint16(d.U8()) }},
		},
	},
	codec.I16(func(c *game.Cell) *int16 { return &c.Special }).Step("special"),
}

// ReadGrid decodes the grid size, the template table and the run-length
// encoded cells.
func ReadGrid(d *codec.Decoder) (*game.Level, error) {
	height := int(d.U16())
	width := int(d.U16())
	if !d.Count("floor height", height, d.Limits.MaxFloorHeight) ||
		!d.Count("floor width", width, d.Limits.MaxFloorWidth) {
		return nil, d.Err()
	}

	count := int(d.U16())
	if !d.Count("grid templates", count, d.Limits.MaxTemplates) {
		return nil, d.Err()
	}
	templates := make([]game.Cell, count)
	for i := range templates {
		if err := TemplateLayout.Decode(d, &templates[i]); err != nil {
			return nil, errors.Wrapf(err, "template %d", i)
		}
	}

	level := game.NewLevel(height, width)
	for pos := 0; pos < len(level.Cells); {
		run := int(d.U8())
		id := int(d.U16())
		if err := d.Err(); err != nil {
			return nil, errors.Wrapf(err, "grid at cell %d", pos)
		}
		var cell game.Cell
		if count > 0 {
			cell = templates[d.Index("grid template", id, count, 0)]
		}
		if pos+run > len(level.Cells) {
			run = len(level.Cells) - pos
		}
		for i := 0; i < run; i++ {
			level.Cells[pos+i] = cell
		}
		pos += run
	}
	return level, nil
}

// WriteGrid encodes the grid in the current layout.
func WriteGrid(e *codec.Encoder, level *game.Level) {
	index := make(map[game.Cell]uint16)
	var templates []game.Cell
	ids := make([]uint16, len(level.Cells))
	for i, cell := range level.Cells {
		id, ok := index[cell]
		if !ok {
			id = uint16(len(templates))
			index[cell] = id
			templates = append(templates, cell)
		}
		ids[i] = id
	}

	e.Count16("floor height", level.Height, e.Limits.MaxFloorHeight)
	e.Count16("floor width", level.Width, e.Limits.MaxFloorWidth)
	e.Count16("grid templates", len(templates), e.Limits.MaxTemplates)
	for _, t := range templates {
		e.U16(t.Info)
		e.U16(t.Feat)
		e.U16(t.Mimic)
		e.I16(t.Special)
	}

	for pos := 0; pos < len(ids); {
		run := 1
		for pos+run < len(ids) && run < maxRun && ids[pos+run] == ids[pos] {
			run++
		}
		e.U8(uint8(run))
		e.U16(ids[pos])
		pos += run
	}
}

// ReadContents decodes the object and monster lists of a level.
func ReadContents(d *codec.Decoder, level *game.Level) error {
	count := int(d.U16())
	if !d.Count("floor objects", count, d.Limits.MaxObjects) {
		return d.Err()
	}
	level.Objects = make([]game.Item, 0, count)
	for i := 0; i < count; i++ {
		item, err := codec.ReadItem(d)
		if err != nil {
			return errors.Wrapf(err, "object %d", i)
		}
		level.Objects = append(level.Objects, item)
	}

	count = int(d.U16())
	if !d.Count("floor monsters", count, d.Limits.MaxMonsters) {
		return d.Err()
	}
	level.Monsters = make([]game.Monster, 0, count)
	for i := 0; i < count; i++ {
		m, err := codec.ReadMonster(d)
		if err != nil {
			return errors.Wrapf(err, "monster %d", i)
		}
		level.Monsters = append(level.Monsters, m)
	}
	return nil
}

func WriteContents(e *codec.Encoder, level *game.Level) {
	e.Count16("floor objects", len(level.Objects), e.Limits.MaxObjects)
	for i := range level.Objects {
		codec.WriteItem(e, &level.Objects[i])
	}
	e.Count16("floor monsters", len(level.Monsters), e.Limits.MaxMonsters)
	for i := range level.Monsters {
		codec.WriteMonster(e, &level.Monsters[i])
	}
}

// ReadLevel decodes a whole level payload.
func ReadLevel(d *codec.Decoder) (*game.Level, error) {
	level, err := ReadGrid(d)
	if err != nil {
		return nil, err
	}
	if err := ReadContents(d, level); err != nil {
		return nil, err
	}
	return level, nil
}

func WriteLevel(e *codec.Encoder, level *game.Level) {
	WriteGrid(e, level)
	WriteContents(e, level)
}
