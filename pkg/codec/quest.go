// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// Quest format flags.
const (
	QuestCompLev Flags = 1 << iota
	QuestCompTime
	QuestType
	QuestCurNum
	QuestMaxNum
	QuestRIdx
	QuestKIdx
	QuestFlags
	QuestDungeon
)

var (
	questStatus   = I16(func(q *game.Quest) *int16 { return &q.Status })
	questLevel    = I16(func(q *game.Quest) *int16 { return &q.Level })
	questCompLev  = U8(func(q *game.Quest) *uint8 { return &q.CompLev })
	questCompTime = U32(func(q *game.Quest) *uint32 { return &q.CompTime })
	questType     = U8(func(q *game.Quest) *uint8 { return &q.Type })
	questCurNum   = I16(func(q *game.Quest) *int16 { return &q.CurNum })
	questMaxNum   = I16(func(q *game.Quest) *int16 { return &q.MaxNum })
	questRIdx     = U16(func(q *game.Quest) *uint16 { return &q.RIdx })
	questKIdx     = U16(func(q *game.Quest) *uint16 { return &q.KIdx })
	questFlags    = U8(func(q *game.Quest) *uint8 { return &q.Flags })
	questDungeon  = U8(func(q *game.Quest) *uint8 { return &q.Dungeon })
)

// questDetailed reports whether a legacy quest record carries its target
// block. Finished quests keep it only since the wide-monster layout.
func questDetailed(ver v.Version, status int16) bool {
	switch status {
	case game.QuestStatusTaken, game.QuestStatusComplete, game.QuestStatusReward, game.QuestStatusFailed:
		return true
	case game.QuestStatusFinished:
		return !ver.LegacyOlderThan(v.LegacyWideMonsters)
	}
	return false
}

// QuestCodec decodes one quest slot.
var QuestCodec = Codec[game.Quest]{
	Name:   "quest",
	Modern: v.Since(v.CurrentQuestFlags),
	Legacy: Layout[game.Quest]{
		questStatus.Step("status"),
		questLevel.Step("level"),
		questCompLev.Since("complev", v.LegacySince(v.LegacyWideMonsters), nil),
		{
			Field: "target",
			Ways: []Strategy[game.Quest]{{Name: "v1", When: v.Always, Read: func(d *Decoder, q *game.Quest) {
				if !questDetailed(d.Version, q.Status) {
					return
				}
				q.CurNum = d.I16()
				q.MaxNum = d.I16()
				q.Type = d.U8()
				q.RIdx = d.U16()
				q.KIdx = d.U16()
				q.Flags = d.U8()
			}}},
		},
		{
			Field: "dungeon",
			Ways: []Strategy[game.Quest]{{Name: "v1", When: v.LegacySince(v.LegacyEnergyNeed), Read: func(d *Decoder, q *game.Quest) {
				if questDetailed(d.Version, q.Status) {
					q.Dungeon = d.U8()
				}
			}}},
		},
	},
	Record: Record[game.Quest]{
		Fixed: []Field[game.Quest]{
			questStatus.Fixed("status"),
			questLevel.Fixed("level"),
		},
		Optional: []Field[game.Quest]{
			questCompLev.Opt("complev", QuestCompLev),
			questCompTime.Opt("comptime", QuestCompTime),
			questType.Opt("type", QuestType),
			questCurNum.Opt("cur_num", QuestCurNum),
			questMaxNum.Opt("max_num", QuestMaxNum),
			questRIdx.Opt("r_idx", QuestRIdx),
			questKIdx.Opt("k_idx", QuestKIdx),
			questFlags.Opt("flags", QuestFlags),
			questDungeon.Opt("dungeon", QuestDungeon),
		},
	},
	Fixup: func(d *Decoder, q *game.Quest) {
		q.RIdx = uint16(d.Index("quest monster race", int(q.RIdx), d.Limits.MaxRaces, 0))
		q.KIdx = uint16(d.Index("quest item kind", int(q.KIdx), d.Limits.MaxKinds, 0))
		q.Dungeon = uint8(d.Index("quest dungeon", int(q.Dungeon), d.Limits.MaxDungeons, 0))
	},
}

func ReadQuest(d *Decoder) (game.Quest, error) {
	var q game.Quest
	err := QuestCodec.Decode(d, &q)
	return q, err
}

func WriteQuest(e *Encoder, q *game.Quest) {
	QuestCodec.Encode(e, q)
}
