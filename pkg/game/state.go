// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package game holds the in-memory shapes the persistence engine fills
// and reads. Gameplay code owns their meaning; the engine only moves them
// between memory and disk.
package game

import (
	"github.com/hengband/savekeep/pkg/version"
)

// Header is the save header, written once per save.
type Header struct {
	Version version.Version
	System  uint32
	When    uint32
	Lives   uint16
	Saves   uint16
}

// RNGState is the persisted state of the random number generator.
type RNGState struct {
	Place      uint16
	State      []uint32
	SeedFlavor uint32
	SeedTown   uint32
}

// Options are the player's option flags.
type Options struct {
	Flags        [8]uint32
	Masks        [8]uint32
	DelayFactor  uint8
	HitpointWarn uint8
	ManaWarn     uint8
	AutosaveL    bool
	AutosaveT    bool
	AutosaveFreq int16
	WindowFlags  [8]uint32
}

// Message is one entry of the message log.
type Message struct {
	Text string
	Type uint16
}

// Lore is the player's knowledge of one monster race.
type Lore struct {
	Sights    int16
	Deaths    int16
	PKills    int16
	AKills    int16
	TKills    int16
	Wake      uint8
	Ignore    uint8
	DropGold  uint8
	DropItem  uint8
	CastSpell uint8
	Blows     [4]uint8
	Flags     [6]uint32
	MaxNum    uint8
}

// Awareness is the flavor knowledge of one item kind.
type Awareness struct {
	Aware bool
	Tried bool
}

// Quest is one quest slot.
type Quest struct {
	Status   int16
	Level    int16
	CompLev  uint8
	CompTime uint32
	Type     uint8
	CurNum   int16
	MaxNum   int16
	RIdx     uint16
	KIdx     uint16
	Flags    uint8
	Dungeon  uint8
}

// Quest statuses that carry the full record in legacy layouts.
const (
	QuestStatusUntaken  int16 = 0
	QuestStatusTaken    int16 = 1
	QuestStatusComplete int16 = 2
	QuestStatusReward   int16 = 3
	QuestStatusFinished int16 = 4
	QuestStatusFailed   int16 = 5
)

// Wilderness is the seed grid of the surface map.
type Wilderness struct {
	X, Y   int32
	Height int
	Width  int
	Seeds  []uint32
}

// Artifact is the generation state of one artifact.
type Artifact struct {
	CurNum  uint8
	FloorID uint16
}

// Spells holds the spellbook knowledge of the player.
type Spells struct {
	Learned   [2]uint32
	Worked    [2]uint32
	Forgotten [2]uint32
	Exp       []int16
	Order     []uint8
}

// InventorySlot is one carried item.
type InventorySlot struct {
	Slot uint16
	Item Item
}

// State is the complete persisted game state apart from the dungeon.
type State struct {
	Header     Header
	RNG        RNGState
	Options    Options
	Messages   []Message
	Lore       []Lore
	Awareness  []Awareness
	Towns      int
	Quests     []Quest
	Wilderness Wilderness
	Artifacts  []Artifact
	Player     Player
	HP         []int16
	Spells     Spells
	Inventory  []InventorySlot
	// Stores is indexed by town, then store.
	Stores [][]Store
}
