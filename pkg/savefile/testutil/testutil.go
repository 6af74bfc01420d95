// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package testutil writes hand-built save images of older formats.
package testutil

import (
	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// EncodeStream frames body as a complete stream with the given versions.
func EncodeStream(legacy version.Triple, quad *version.Quad, body func(e *codec.Encoder)) []byte {
	w := stream.NewWriter(stream.Prelude{Legacy: [3]byte{legacy.Major, legacy.Minor, legacy.Patch}, Seed: 0x3C})
	if quad != nil {
		w.U8(quad.Major)
		w.U8(quad.Minor)
		w.U8(quad.Patch)
		w.U8(quad.Extra)
	}
	body(codec.NewEncoder(w, codec.DefaultLimits()))
	return w.Finish()
}

// Legacy227 is the newest legacy-lineage version.
var Legacy227 = version.Triple{Major: 2, Minor: 2, Patch: 7}

// WriteLegacy227 writes a whole 2.2.7 save by hand, level inline.
func WriteLegacy227(e *codec.Encoder) {
	// header
	e.U32(1)
	e.U32(123456)
	e.U16(2)
	e.U16(9)
	// rng
	e.U16(5)
	for i := 0; i < codec.RandStateLegacy; i++ {
		e.U32(uint32(i * 3))
	}
	e.U32(77)
	e.U32(88)
	// options: no mana warning, no autosave
	e.U8(4)
	e.U8(3)
	for i := 0; i < 8; i++ {
		e.U32(uint32(i))
	}
	for i := 0; i < 8; i++ {
		e.U32(0xFFFFFFFF)
	}
	for i := 0; i < 8; i++ {
		e.U32(0)
	}
	// messages
	e.U16(1)
	e.String("You feel something in the air.", codec.MessageMax)
	e.U16(3)
	// lore, awareness
	e.U16(0)
	e.U16(0)
	// quests: one town, no quests
	e.U16(1)
	e.U16(0)
	// wilderness
	e.I32(0)
	e.I32(0)
	e.U16(0)
	e.U16(0)
	// artifacts
	e.U16(0)
	// player
	e.String("Legacy", codec.PlayerNameMax)
	e.String("", codec.DiedFromMax)
	for i := 0; i < 4; i++ {
		e.String("", codec.HistoryMax)
	}
	for i := 0; i < 6; i++ {
		e.U8(uint8(i))
	}
	e.U8(10)
	e.U16(120)
	e.I16(20)
	e.I16(70)
	e.I16(150)
	for i := 0; i < 12; i++ {
		e.I16(16)
	}
	e.I32(1000)
	e.I32(500)
	e.I32(450)
	e.U32(0)
	e.I16(12)
	e.I16(80)
	e.I16(75)
	e.U32(0)
	e.I16(10)
	e.I16(9)
	e.U32(0)
	e.I16(12)
	e.U8(1)
	e.I16(3)
	e.U16(2)
	e.I16(0)
	e.I16(5)
	for i := 0; i < 3; i++ {
		e.U32(0)
	}
	e.U32(4242)
	e.I16(3)
	e.U8(2)
	e.I32(4000)
	e.U16(0)
	e.Bool(false)
	// hitpoints
	e.U16(2)
	e.I16(8)
	e.I16(15)
	// spells: masks, order
	for i := 0; i < 6; i++ {
		e.U32(0)
	}
	e.U16(0)
	// inventory
	e.U16(codec.InventoryEnd)
	// stores: one store, wide layout, empty stock
	e.U16(1)
	e.I32(0)
	e.I16(0)
	e.U8(2)
	e.U8(0)
	e.I16(1)
	e.I16(-1)
	// inline level: 2x3 grid, two legacy templates
	e.U16(2)
	e.U16(3)
	e.U16(2)
	e.U16(1)
	e.U8(5)
	e.U8(0)
	e.I16(0)
	e.U16(0)
	e.U8(1)
	e.U8(2)
	e.I16(-1)
	e.U8(3)
	e.U16(0)
	e.U8(3)
	e.U16(1)
	e.U16(0)
	e.U16(0)
}

// Current02 is the version written by WriteCurrent02.
var Current02 = version.Quad{Major: 0, Minor: 2}

// CursedLegacyIdent is the ident byte of the cursed inventory item in
// WriteCurrent02: known, plus the bit that stood for a curse before items
// carried curse flags.
const CursedLegacyIdent = 0x40 | game.IdentKnown

// WriteCurrent02 writes a whole 0.2.0.0 save by hand. It predates curse
// flags, item format flags and floor paging, so the level is inline.
func WriteCurrent02(e *codec.Encoder) {
	// header
	e.U32(3)
	e.U32(654321)
	e.U16(1)
	e.U16(4)
	// rng
	e.U16(7)
	for i := 0; i < codec.RandStateLegacy; i++ {
		e.U32(uint32(i + 100))
	}
	e.U32(11)
	e.U32(12)
	// options: delay, hitpoint and mana warning, autosave, option words
	e.U8(2)
	e.U8(4)
	e.U8(6)
	e.Bool(true)
	e.Bool(false)
	e.I16(250)
	for i := 0; i < 8; i++ {
		e.U32(uint32(i + 1))
	}
	for i := 0; i < 8; i++ {
		e.U32(0xFFFF)
	}
	for i := 0; i < 8; i++ {
		e.U32(0)
	}
	// messages
	e.U16(2)
	e.String("Welcome back.", codec.MessageMax)
	e.U16(1)
	e.String("The air is still.", codec.MessageMax)
	e.U16(0)
	// lore: one race with alt kills
	e.U16(1)
	e.I16(4)
	e.I16(1)
	e.I16(2)
	e.I16(3)
	e.I16(5)
	e.U8(0)
	e.U8(0)
	e.U8(0)
	e.U8(0)
	e.U8(0)
	for i := 0; i < 4; i++ {
		e.U8(uint8(i))
	}
	for i := 0; i < 6; i++ {
		e.U32(uint32(1 << i))
	}
	e.U8(1)
	// awareness
	e.U16(1)
	e.U8(1)
	// quests: one town, no quests
	e.U16(1)
	e.U16(0)
	// wilderness
	e.I32(2)
	e.I32(3)
	e.U16(1)
	e.U16(1)
	e.U32(99)
	// artifacts: reserved tail instead of a floor id
	e.U16(1)
	e.U8(1)
	e.Pad(3)
	// player
	e.String("Current", codec.PlayerNameMax)
	e.String("", codec.DiedFromMax)
	e.String("Born under a dim star.", codec.HistoryMax)
	for i := 0; i < 3; i++ {
		e.String("", codec.HistoryMax)
	}
	for i := 0; i < 7; i++ {
		e.U8(uint8(i))
	}
	e.U16(110)
	e.I16(25)
	e.I16(68)
	e.I16(140)
	for i := 0; i < 12; i++ {
		e.I16(15)
	}
	for i := 0; i < 6; i++ {
		e.I16(120)
	}
	e.I32(800)
	e.I32(900)
	e.I32(850)
	e.U32(0)
	e.I16(14)
	e.I16(90)
	e.I16(88)
	e.U32(0)
	e.I16(20)
	e.I16(18)
	e.U32(0)
	e.I16(14)
	// max_dlv: one dungeon
	e.U8(1)
	e.I16(6)
	// timed
	e.U16(1)
	e.I16(7)
	// mutations: three words
	e.U32(1)
	e.U32(2)
	e.U32(4)
	// virtues
	for i := 0; i < 8; i++ {
		e.I16(int16(i * 10))
	}
	for i := 0; i < 8; i++ {
		e.U8(uint8(i + 1))
	}
	e.U32(6000)
	e.U32(5000)
	e.I16(6)
	e.U8(0)
	e.U8(3)
	e.I32(5900)
	e.U16(0)
	e.Bool(false)
	// hitpoints
	e.U16(1)
	e.I16(12)
	// spells: masks, exp, order
	for i := 0; i < 6; i++ {
		e.U32(0)
	}
	e.U16(1)
	e.I16(30)
	e.U16(1)
	e.U8(0)
	// inventory: one legacy cursed item
	e.U16(0)
	writeLegacyItem(e, CursedLegacyIdent)
	e.U16(codec.InventoryEnd)
	// stores: one store, wide layout, empty stock
	e.U16(1)
	e.I32(0)
	e.I16(2)
	e.U8(1)
	e.U8(0)
	e.I16(3)
	e.I16(-3)
	// inline level: 1x4 grid, two templates, one floor object
	e.U16(1)
	e.U16(4)
	e.U16(2)
	e.U16(0)
	e.U8(1)
	e.U8(0)
	e.I16(0)
	e.U16(2)
	e.U8(6)
	e.U8(4)
	e.I16(0)
	e.U8(3)
	e.U16(0)
	e.U8(1)
	e.U16(1)
	e.U16(1)
	writeLegacyItem(e, game.IdentKnown)
	e.U16(0)
}

// writeLegacyItem writes a dagger in the item layout before format flags.
func writeLegacyItem(e *codec.Encoder, ident uint8) {
	e.U16(2)
	e.U8(0)
	e.U8(3)
	e.U8(23)
	e.U8(1)
	e.I16(0)
	e.U8(0)
	e.U8(1)
	e.I16(12)
	e.U8(0)
	e.U8(0)
	e.I16(0)
	e.I16(1)
	e.I16(2)
	e.I16(0)
	e.I16(0)
	e.U8(1)
	e.U8(4)
	e.U8(ident)
	e.U8(0)
	e.U32(0)
	e.U32(0)
	e.U32(0)
	e.U16(0)
	e.U8(0)
	e.U8(0)
	e.U8(0)
	e.String("", codec.InscriptionMax)
	e.String("", codec.InscriptionMax)
}
