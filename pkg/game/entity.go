// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package game

// Item is an object on the floor, in a store or carried.
type Item struct {
	KIdx        uint16
	Y, X        uint8
	Tval, Sval  uint8
	Pval        int16
	Discount    uint8
	Number      uint8
	Weight      int16
	Name1       uint8
	Name2       uint8
	Timeout     int16
	ToH         int16
	ToD         int16
	ToA         int16
	AC          int16
	DD, DS      uint8
	Ident       uint8
	Marked      uint8
	ArtFlags    [3]uint32
	CurseFlags  uint32
	HeldMIdx    uint16
	Xtra1       uint8
	Xtra2       uint8
	Xtra3       uint8
	Inscription string
	ArtName     string
}

// Curse bits of Item.CurseFlags.
const (
	CurseCursed      uint32 = 1 << 0
	CurseHeavyCursed uint32 = 1 << 1
	CursePermaCursed uint32 = 1 << 2
)

// IdentSensed and friends are bits of Item.Ident.
const (
	IdentSensed uint8 = 1 << 0
	IdentFixed  uint8 = 1 << 1
	IdentEmpty  uint8 = 1 << 2
	IdentKnown  uint8 = 1 << 3
	IdentStore  uint8 = 1 << 4
	IdentMental uint8 = 1 << 5
	IdentBroken uint8 = 1 << 7
)

// Monster timed effect slots in Monster.Timed.
const (
	MonTimedSleep = iota
	MonTimedFast
	MonTimedSlow
	MonTimedStun
	MonTimedConfused
	MonTimedFear
	MonTimedInvuln
	MonTimedMax
)

// Monster is a creature on a floor.
type Monster struct {
	RIdx       uint16
	APRIdx     uint16
	SubAlign   uint8
	FY, FX     uint8
	HP         int16
	MaxHP      int16
	MaxMaxHP   int16
	Speed      uint8
	EnergyNeed int16
	Timed      [MonTimedMax]int16
	TargetY    uint8
	TargetX    uint8
	Smart      uint32
	Exp        uint32
	MFlag2     uint8
	Nickname   string
	ParentMIdx uint16
}

// Store is the stock and owner state of one store in one town.
type Store struct {
	StoreOpen int32
	InsultCur int16
	Owner     uint8
	GoodBuy   int16
	BadBuy    int16
	LastVisit int32
	Stock     []Item
}

// Player is the bulk attribute block of the character.
type Player struct {
	Name        string
	DiedFrom    string
	History     [4]string
	Race        uint8
	Class       uint8
	Personality uint8
	Sex         uint8
	Realm1      uint8
	Realm2      uint8
	HitDie      uint8
	ExpFact     uint16
	Age         int16
	Height      int16
	Weight      int16
	StatMax     [6]int16
	StatCur     [6]int16
	StatMaxMax  [6]int16
	Gold        int32
	MaxExp      int32
	Exp         int32
	ExpFrac     uint32
	Lev         int16
	MHP         int16
	CHP         int16
	CHPFrac     uint32
	MSP         int16
	CSP         int16
	CSPFrac     uint32
	MaxPLv      int16
	MaxDLv      []int16
	Timed       []int16
	Mutations   [3]uint32
	Virtues     [8]int16
	VirtueNames [8]uint8
	Turn        uint32
	DungeonTurn uint32
	Depth       int16
	DungeonIdx  uint8
	FloorID     uint16
	Feeling     uint8
	FeelingTurn int32
	Noscore     uint16
	IsDead      bool
}
