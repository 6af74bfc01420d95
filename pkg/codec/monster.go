// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// NicknameMax bounds monster nicknames.
const NicknameMax = 32

// Monster format flags.
const (
	MonsterAPRIdx Flags = 1 << iota
	MonsterSubAlign
	MonsterSleep
	MonsterFast
	MonsterSlow
	MonsterStun
	MonsterConfused
	MonsterFear
	MonsterInvuln
	MonsterTarget
	MonsterSmart
	MonsterExp
	MonsterMFlag2
	MonsterNickname
	MonsterParent
)

func monTimed(n int) Scalar[game.Monster] {
	return I16(func(m *game.Monster) *int16 { return &m.Timed[n] })
}

// monTimedByte reads a timer stored as one unsigned byte by legacy layouts.
func monTimedByte(n int) func(d *Decoder, m *game.Monster) {
	return func(d *Decoder, m *game.Monster) { m.Timed[n] = int16(d.U8()) }
}

var (
	monRIdx     = U16(func(m *game.Monster) *uint16 { return &m.RIdx })
	monAPRIdx   = U16(func(m *game.Monster) *uint16 { return &m.APRIdx })
	monSubAlign = U8(func(m *game.Monster) *uint8 { return &m.SubAlign })
	monFY       = U8(func(m *game.Monster) *uint8 { return &m.FY })
	monFX       = U8(func(m *game.Monster) *uint8 { return &m.FX })
	monHP       = I16(func(m *game.Monster) *int16 { return &m.HP })
	monMaxHP    = I16(func(m *game.Monster) *int16 { return &m.MaxHP })
	monMaxMaxHP = I16(func(m *game.Monster) *int16 { return &m.MaxMaxHP })
	monSpeed    = U8(func(m *game.Monster) *uint8 { return &m.Speed })
	monEnergy   = I16(func(m *game.Monster) *int16 { return &m.EnergyNeed })
	monTargetY  = U8(func(m *game.Monster) *uint8 { return &m.TargetY })
	monTargetX  = U8(func(m *game.Monster) *uint8 { return &m.TargetX })
	monSmart    = U32(func(m *game.Monster) *uint32 { return &m.Smart })
	monExp      = U32(func(m *game.Monster) *uint32 { return &m.Exp })
	monMFlag2   = U8(func(m *game.Monster) *uint8 { return &m.MFlag2 })
	monNickname = Str(NicknameMax, func(m *game.Monster) *string { return &m.Nickname })
	monParent   = U16(func(m *game.Monster) *uint16 { return &m.ParentMIdx })
)

func monTimedStep(field string, n int) Step[game.Monster] {
	return Step[game.Monster]{
		Field: field,
		Ways:  []Strategy[game.Monster]{{Name: "u8", When: v.Always, Read: monTimedByte(n)}},
	}
}

// MonsterCodec decodes monsters on floors.
var MonsterCodec = Codec[game.Monster]{
	Name:   "monster",
	Modern: v.Since(v.CurrentFormatFlags),
	Legacy: Layout[game.Monster]{
		monRIdx.Step("r_idx"),
		monAPRIdx.Since("ap_r_idx", v.Since(v.Current010), func(m *game.Monster) { m.APRIdx = m.RIdx }),
		monSubAlign.Since("sub_align", v.Since(v.Current010), nil),
		monFY.Step("fy"),
		monFX.Step("fx"),
		monHP.Step("hp"),
		monMaxHP.Step("maxhp"),
		monMaxMaxHP.Since("max_maxhp", v.LegacySince(v.LegacyWideMonsters), func(m *game.Monster) { m.MaxMaxHP = m.MaxHP }),
		monSpeed.Step("speed"),
		{
			Field: "energy",
			Ways: []Strategy[game.Monster]{
				monEnergy.Way("energy_need", v.LegacySince(v.LegacyEnergyNeed)),
				{Name: "energy_u8", When: v.Always, Read: func(d *Decoder, m *game.Monster) { m.EnergyNeed = int16(d.U8()) }},
			},
		},
		{
			Field: "sleep",
			Ways:  []Strategy[game.Monster]{monTimed(game.MonTimedSleep).Way("i16", v.Always)},
		},
		monTimedStep("fast", game.MonTimedFast),
		monTimedStep("slow", game.MonTimedSlow),
		monTimedStep("stun", game.MonTimedStun),
		monTimedStep("confused", game.MonTimedConfused),
		monTimedStep("fear", game.MonTimedFear),
		{
			Field: "invuln",
			Ways: []Strategy[game.Monster]{
				{Name: "u8", When: v.LegacySince(v.LegacyWideMonsters), Read: monTimedByte(game.MonTimedInvuln)},
			},
		},
		monTargetY.Step("target_y"),
		monTargetX.Step("target_x"),
		monSmart.Step("smart"),
		monExp.Since("exp", v.Since(v.Current010), nil),
		monMFlag2.Step("mflag2"),
		monNickname.Since("nickname", v.Since(v.Current010), nil),
		monParent.Since("parent_m_idx", v.Since(v.Current010), nil),
	},
	Record: Record[game.Monster]{
		Fixed: []Field[game.Monster]{
			monRIdx.Fixed("r_idx"),
			monFY.Fixed("fy"),
			monFX.Fixed("fx"),
			monHP.Fixed("hp"),
			monMaxHP.Fixed("maxhp"),
			monMaxMaxHP.Fixed("max_maxhp"),
			monSpeed.Fixed("speed"),
			monEnergy.Fixed("energy_need"),
		},
		Optional: []Field[game.Monster]{
			{
				Name:    "ap_r_idx",
				Bit:     MonsterAPRIdx,
				Has:     func(m *game.Monster) bool { return m.APRIdx != m.RIdx },
				Read:    monAPRIdx.read,
				Write:   monAPRIdx.write,
				Default: func(m *game.Monster) { m.APRIdx = m.RIdx },
			},
			monSubAlign.Opt("sub_align", MonsterSubAlign),
			monTimed(game.MonTimedSleep).Opt("sleep", MonsterSleep),
			monTimed(game.MonTimedFast).Opt("fast", MonsterFast),
			monTimed(game.MonTimedSlow).Opt("slow", MonsterSlow),
			monTimed(game.MonTimedStun).Opt("stun", MonsterStun),
			monTimed(game.MonTimedConfused).Opt("confused", MonsterConfused),
			monTimed(game.MonTimedFear).Opt("fear", MonsterFear),
			monTimed(game.MonTimedInvuln).Opt("invuln", MonsterInvuln),
			{
				Name: "target",
				Bit:  MonsterTarget,
				Has:  func(m *game.Monster) bool { return m.TargetY != 0 || m.TargetX != 0 },
				Read: func(d *Decoder, m *game.Monster) {
					m.TargetY = d.U8()
					m.TargetX = d.U8()
				},
				Write: func(e *Encoder, m *game.Monster) {
					e.U8(m.TargetY)
					e.U8(m.TargetX)
				},
			},
			monSmart.Opt("smart", MonsterSmart),
			monExp.Opt("exp", MonsterExp),
			monMFlag2.Opt("mflag2", MonsterMFlag2),
			monNickname.Opt("nickname", MonsterNickname),
			monParent.Opt("parent_m_idx", MonsterParent),
		},
	},
	Fixup: func(d *Decoder, m *game.Monster) {
		m.RIdx = uint16(d.Index("monster race", int(m.RIdx), d.Limits.MaxRaces, 0))
		m.APRIdx = uint16(d.Index("monster appearance", int(m.APRIdx), d.Limits.MaxRaces, int(m.RIdx)))
	},
}

func ReadMonster(d *Decoder) (game.Monster, error) {
	var m game.Monster
	err := MonsterCodec.Decode(d, &m)
	return m, err
}

func WriteMonster(e *Encoder, m *game.Monster) {
	MonsterCodec.Encode(e, m)
}
