// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// String bounds of the player block.
const (
	PlayerNameMax = 32
	DiedFromMax   = 80
	HistoryMax    = 60
)

// statMaxMaxDefault is the stat ceiling of streams that did not store one.
const statMaxMaxDefault = 18 + 100

// Player extra format flags.
const (
	PlayerHistory Flags = 1 << iota
	PlayerVirtues
	PlayerFeeling
	PlayerNoscore
)

var (
	plName        = Str(PlayerNameMax, func(p *game.Player) *string { return &p.Name })
	plDiedFrom    = Str(DiedFromMax, func(p *game.Player) *string { return &p.DiedFrom })
	plRace        = U8(func(p *game.Player) *uint8 { return &p.Race })
	plClass       = U8(func(p *game.Player) *uint8 { return &p.Class })
	plPersonality = U8(func(p *game.Player) *uint8 { return &p.Personality })
	plSex         = U8(func(p *game.Player) *uint8 { return &p.Sex })
	plRealm1      = U8(func(p *game.Player) *uint8 { return &p.Realm1 })
	plRealm2      = U8(func(p *game.Player) *uint8 { return &p.Realm2 })
	plHitDie      = U8(func(p *game.Player) *uint8 { return &p.HitDie })
	plExpFact     = U16(func(p *game.Player) *uint16 { return &p.ExpFact })
	plAge         = I16(func(p *game.Player) *int16 { return &p.Age })
	plHeight      = I16(func(p *game.Player) *int16 { return &p.Height })
	plWeight      = I16(func(p *game.Player) *int16 { return &p.Weight })
	plGold        = I32(func(p *game.Player) *int32 { return &p.Gold })
	plMaxExp      = I32(func(p *game.Player) *int32 { return &p.MaxExp })
	plExp         = I32(func(p *game.Player) *int32 { return &p.Exp })
	plExpFrac     = U32(func(p *game.Player) *uint32 { return &p.ExpFrac })
	plLev         = I16(func(p *game.Player) *int16 { return &p.Lev })
	plMHP         = I16(func(p *game.Player) *int16 { return &p.MHP })
	plCHP         = I16(func(p *game.Player) *int16 { return &p.CHP })
	plCHPFrac     = U32(func(p *game.Player) *uint32 { return &p.CHPFrac })
	plMSP         = I16(func(p *game.Player) *int16 { return &p.MSP })
	plCSP         = I16(func(p *game.Player) *int16 { return &p.CSP })
	plCSPFrac     = U32(func(p *game.Player) *uint32 { return &p.CSPFrac })
	plMaxPLv      = I16(func(p *game.Player) *int16 { return &p.MaxPLv })
	plTurn        = U32(func(p *game.Player) *uint32 { return &p.Turn })
	plDungeonTurn = U32(func(p *game.Player) *uint32 { return &p.DungeonTurn })
	plDepth       = I16(func(p *game.Player) *int16 { return &p.Depth })
	plDungeonIdx  = U8(func(p *game.Player) *uint8 { return &p.DungeonIdx })
	plFloorID     = U16(func(p *game.Player) *uint16 { return &p.FloorID })
	plNoscore     = U16(func(p *game.Player) *uint16 { return &p.Noscore })
	plIsDead      = Bool(func(p *game.Player) *bool { return &p.IsDead })
)

func readI16s(d *Decoder, vals []int16) {
	for i := range vals {
		vals[i] = d.I16()
	}
}

func writeI16s(e *Encoder, vals []int16) {
	for _, val := range vals {
		e.I16(val)
	}
}

func readStats(d *Decoder, p *game.Player) {
	readI16s(d, p.StatMax[:])
	readI16s(d, p.StatCur[:])
}

func readHistory(d *Decoder, p *game.Player) {
	for i := range p.History {
		p.History[i] = d.String(HistoryMax)
	}
}

func readMaxDLv(d *Decoder, p *game.Player) {
	count := int(d.U8())
	if !d.Count("dungeon depths", count, d.Limits.MaxDungeons) {
		return
	}
	p.MaxDLv = make([]int16, count)
	readI16s(d, p.MaxDLv)
}

func readTimed(d *Decoder, p *game.Player) {
	count := int(d.U16())
	if !d.Count("player timed effects", count, d.Limits.MaxPlayerTimed) {
		return
	}
	p.Timed = make([]int16, count)
	readI16s(d, p.Timed)
}

func readVirtues(d *Decoder, p *game.Player) {
	readI16s(d, p.Virtues[:])
	for i := range p.VirtueNames {
		p.VirtueNames[i] = d.U8()
	}
}

func readFeeling(d *Decoder, p *game.Player) {
	p.Feeling = d.U8()
	p.FeelingTurn = d.I32()
}

// PlayerCodec decodes the player extra block.
var PlayerCodec = Codec[game.Player]{
	Name:   "player",
	Modern: v.Since(v.CurrentFloorPaging),
	Legacy: Layout[game.Player]{
		plName.Step("name"),
		plDiedFrom.Step("died_from"),
		{Field: "history", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Always, Read: readHistory}}},
		plRace.Step("race"),
		plClass.Step("class"),
		plPersonality.Step("personality"),
		plSex.Step("sex"),
		plRealm1.Step("realm1"),
		plRealm2.Step("realm2"),
		plHitDie.Step("hitdie"),
		plExpFact.Step("expfact"),
		plAge.Step("age"),
		plHeight.Step("ht"),
		plWeight.Step("wt"),
		{Field: "stats", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Always, Read: readStats}}},
		{
			Field: "stat_max_max",
			Ways: []Strategy[game.Player]{{Name: "v1", When: v.Since(v.Current010), Read: func(d *Decoder, p *game.Player) {
				readI16s(d, p.StatMaxMax[:])
			}}},
			Absent: func(p *game.Player) {
				for i := range p.StatMaxMax {
					p.StatMaxMax[i] = statMaxMaxDefault
				}
			},
		},
		plGold.Step("au"),
		plMaxExp.Step("max_exp"),
		plExp.Step("exp"),
		plExpFrac.Step("exp_frac"),
		plLev.Step("lev"),
		plMHP.Step("mhp"),
		plCHP.Step("chp"),
		plCHPFrac.Step("chp_frac"),
		plMSP.Step("msp"),
		plCSP.Step("csp"),
		plCSPFrac.Step("csp_frac"),
		plMaxPLv.Step("max_plv"),
		{Field: "max_dlv", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Always, Read: readMaxDLv}}},
		{Field: "timed", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Always, Read: readTimed}}},
		{
			Field: "mutations",
			Ways: []Strategy[game.Player]{
				{Name: "three", When: v.LegacySince(v.LegacyArtFlags3), Read: func(d *Decoder, p *game.Player) {
					readWords(d, p.Mutations[:])
				}},
				{Name: "two", When: v.Always, Read: func(d *Decoder, p *game.Player) {
					readWords(d, p.Mutations[:2])
				}},
			},
		},
		{Field: "virtues", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Since(v.CurrentVirtues), Read: readVirtues}}},
		plTurn.Step("turn"),
		plDungeonTurn.Since("dungeon_turn", v.Since(v.Current010), func(p *game.Player) { p.DungeonTurn = p.Turn }),
		plDepth.Step("dun_level"),
		plDungeonIdx.Since("dungeon_idx", v.Since(v.Current010), nil),
		{Field: "feeling", Ways: []Strategy[game.Player]{{Name: "v1", When: v.Always, Read: readFeeling}}},
		plNoscore.Step("noscore"),
		plIsDead.Step("is_dead"),
	},
	Record: Record[game.Player]{
		Fixed: []Field[game.Player]{
			plName.Fixed("name"),
			plDiedFrom.Fixed("died_from"),
			plRace.Fixed("race"),
			plClass.Fixed("class"),
			plPersonality.Fixed("personality"),
			plSex.Fixed("sex"),
			plRealm1.Fixed("realm1"),
			plRealm2.Fixed("realm2"),
			plHitDie.Fixed("hitdie"),
			plExpFact.Fixed("expfact"),
			plAge.Fixed("age"),
			plHeight.Fixed("ht"),
			plWeight.Fixed("wt"),
			{
				Name: "stats",
				Read: func(d *Decoder, p *game.Player) {
					readStats(d, p)
					readI16s(d, p.StatMaxMax[:])
				},
				Write: func(e *Encoder, p *game.Player) {
					writeI16s(e, p.StatMax[:])
					writeI16s(e, p.StatCur[:])
					writeI16s(e, p.StatMaxMax[:])
				},
			},
			plGold.Fixed("au"),
			plMaxExp.Fixed("max_exp"),
			plExp.Fixed("exp"),
			plExpFrac.Fixed("exp_frac"),
			plLev.Fixed("lev"),
			plMHP.Fixed("mhp"),
			plCHP.Fixed("chp"),
			plCHPFrac.Fixed("chp_frac"),
			plMSP.Fixed("msp"),
			plCSP.Fixed("csp"),
			plCSPFrac.Fixed("csp_frac"),
			plMaxPLv.Fixed("max_plv"),
			{
				Name: "max_dlv",
				Read: readMaxDLv,
				Write: func(e *Encoder, p *game.Player) {
					e.Count8("dungeon depths", len(p.MaxDLv), e.Limits.MaxDungeons)
					writeI16s(e, p.MaxDLv)
				},
			},
			{
				Name: "timed",
				Read: readTimed,
				Write: func(e *Encoder, p *game.Player) {
					e.Count16("player timed effects", len(p.Timed), e.Limits.MaxPlayerTimed)
					writeI16s(e, p.Timed)
				},
			},
			{
				Name:  "mutations",
				Read:  func(d *Decoder, p *game.Player) { readWords(d, p.Mutations[:]) },
				Write: func(e *Encoder, p *game.Player) { writeWords(e, p.Mutations[:]) },
			},
			plTurn.Fixed("turn"),
			plDungeonTurn.Fixed("dungeon_turn"),
			plDepth.Fixed("dun_level"),
			plDungeonIdx.Fixed("dungeon_idx"),
			plFloorID.Fixed("floor_id"),
			plIsDead.Fixed("is_dead"),
		},
		Optional: []Field[game.Player]{
			{
				Name: "history",
				Bit:  PlayerHistory,
				Has: func(p *game.Player) bool {
					for _, line := range p.History {
						if line != "" {
							return true
						}
					}
					return false
				},
				Read: readHistory,
				Write: func(e *Encoder, p *game.Player) {
					for _, line := range p.History {
						e.String(line, HistoryMax)
					}
				},
			},
			{
				Name: "virtues",
				Bit:  PlayerVirtues,
				Has: func(p *game.Player) bool {
					return p.Virtues != [8]int16{} || p.VirtueNames != [8]uint8{}
				},
				Read: readVirtues,
				Write: func(e *Encoder, p *game.Player) {
					writeI16s(e, p.Virtues[:])
					for _, n := range p.VirtueNames {
						e.U8(n)
					}
				},
			},
			{
				Name: "feeling",
				Bit:  PlayerFeeling,
				Has:  func(p *game.Player) bool { return p.Feeling != 0 || p.FeelingTurn != 0 },
				Read: readFeeling,
				Write: func(e *Encoder, p *game.Player) {
					e.U8(p.Feeling)
					e.I32(p.FeelingTurn)
				},
			},
			plNoscore.Opt("noscore", PlayerNoscore),
		},
	},
	Fixup: func(d *Decoder, p *game.Player) {
		p.DungeonIdx = uint8(d.Index("dungeon", int(p.DungeonIdx), d.Limits.MaxDungeons, 0))
	},
}
