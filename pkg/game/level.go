// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package game

// Cell is one grid square of a level.
type Cell struct {
	Info    uint16
	Feat    uint16
	Mimic   uint16
	Special int16
}

// Level is the full content of one dungeon floor.
type Level struct {
	Height   int
	Width    int
	Cells    []Cell
	Objects  []Item
	Monsters []Monster
}

// NewLevel returns an empty level of the given size.
func NewLevel(height, width int) *Level {
	return &Level{
		Height: height,
		Width:  width,
		Cells:  make([]Cell, height*width),
	}
}

// At returns the cell at y, x.
func (l *Level) At(y, x int) *Cell {
	return &l.Cells[y*l.Width+x]
}
