// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// MessageMax bounds one message log line.
const MessageMax = 80

// InventoryEnd terminates the inventory list.
const InventoryEnd uint16 = 0xFFFF

const (
	awareBit byte = 1 << 0
	triedBit byte = 1 << 1
)

// legacyArtifactPad is the reserved tail of artifact records before they
// carried a floor id.
const legacyArtifactPad = 3

var (
	loreSights    = I16(func(l *game.Lore) *int16 { return &l.Sights })
	loreDeaths    = I16(func(l *game.Lore) *int16 { return &l.Deaths })
	lorePKills    = I16(func(l *game.Lore) *int16 { return &l.PKills })
	loreAKills    = I16(func(l *game.Lore) *int16 { return &l.AKills })
	loreTKills    = I16(func(l *game.Lore) *int16 { return &l.TKills })
	loreWake      = U8(func(l *game.Lore) *uint8 { return &l.Wake })
	loreIgnore    = U8(func(l *game.Lore) *uint8 { return &l.Ignore })
	loreDropGold  = U8(func(l *game.Lore) *uint8 { return &l.DropGold })
	loreDropItem  = U8(func(l *game.Lore) *uint8 { return &l.DropItem })
	loreCastSpell = U8(func(l *game.Lore) *uint8 { return &l.CastSpell })
	loreMaxNum    = U8(func(l *game.Lore) *uint8 { return &l.MaxNum })
)

// LoreLayout is the per-race lore record.
var LoreLayout = Layout[game.Lore]{
	loreSights.Step("sights"),
	loreDeaths.Step("deaths"),
	lorePKills.Step("pkills"),
	loreAKills.Since("akills", v.Since(v.CurrentVirtues), func(l *game.Lore) { l.AKills = l.PKills }),
	loreTKills.Step("tkills"),
	loreWake.Step("wake"),
	loreIgnore.Step("ignore"),
	loreDropGold.Step("drop_gold"),
	loreDropItem.Step("drop_item"),
	loreCastSpell.Step("cast_spell"),
	{
		Field: "blows",
		Ways: []Strategy[game.Lore]{{Name: "v1", When: v.Always, Read: func(d *Decoder, l *game.Lore) {
			for i := range l.Blows {
				l.Blows[i] = d.U8()
			}
		}}},
	},
	{
		Field: "flags",
		Ways: []Strategy[game.Lore]{
			{Name: "six", When: v.LegacySince(v.LegacyWideMonsters), Read: func(d *Decoder, l *game.Lore) {
				readWords(d, l.Flags[:])
			}},
			{Name: "four", When: v.Always, Read: func(d *Decoder, l *game.Lore) {
				readWords(d, l.Flags[:4])
			}},
		},
	},
	loreMaxNum.Step("max_num"),
}

func ReadLore(d *Decoder) ([]game.Lore, error) {
	count := int(d.U16())
	if !d.Count("monster races", count, d.Limits.MaxRaces) {
		return nil, d.Err()
	}
	lore := make([]game.Lore, count)
	for i := range lore {
		if err := LoreLayout.Decode(d, &lore[i]); err != nil {
			return nil, errors.Wrapf(err, "lore %d", i)
		}
	}
	return lore, nil
}

func WriteLore(e *Encoder, lore []game.Lore) {
	e.Count16("monster races", len(lore), e.Limits.MaxRaces)
	for i := range lore {
		l := &lore[i]
		e.I16(l.Sights)
		e.I16(l.Deaths)
		e.I16(l.PKills)
		e.I16(l.AKills)
		e.I16(l.TKills)
		e.U8(l.Wake)
		e.U8(l.Ignore)
		e.U8(l.DropGold)
		e.U8(l.DropItem)
		e.U8(l.CastSpell)
		for _, b := range l.Blows {
			e.U8(b)
		}
		writeWords(e, l.Flags[:])
		e.U8(l.MaxNum)
	}
}

func ReadAwareness(d *Decoder) ([]game.Awareness, error) {
	count := int(d.U16())
	if !d.Count("item kinds", count, d.Limits.MaxKinds) {
		return nil, d.Err()
	}
	aware := make([]game.Awareness, count)
	for i := range aware {
		b := d.U8()
		aware[i] = game.Awareness{Aware: b&awareBit != 0, Tried: b&triedBit != 0}
	}
	return aware, d.Err()
}

func WriteAwareness(e *Encoder, aware []game.Awareness) {
	e.Count16("item kinds", len(aware), e.Limits.MaxKinds)
	for _, a := range aware {
		var b byte
		if a.Aware {
			b |= awareBit
		}
		if a.Tried {
			b |= triedBit
		}
		e.U8(b)
	}
}

var (
	msgText = Str(MessageMax, func(m *game.Message) *string { return &m.Text })
	msgType = U16(func(m *game.Message) *uint16 { return &m.Type })
)

// MessageLayout is one message log entry.
var MessageLayout = Layout[game.Message]{
	msgText.Step("text"),
	msgType.Since("type", v.LegacySince(v.LegacyEnergyNeed), nil),
}

func ReadMessages(d *Decoder) ([]game.Message, error) {
	count := int(d.U16())
	if !d.Count("messages", count, d.Limits.MaxMessages) {
		return nil, d.Err()
	}
	msgs := make([]game.Message, count)
	for i := range msgs {
		if err := MessageLayout.Decode(d, &msgs[i]); err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		msgs[i].Type = uint16(d.Index("message type", int(msgs[i].Type), d.Limits.MaxMessageTypes, 0))
	}
	return msgs, nil
}

func WriteMessages(e *Encoder, msgs []game.Message) {
	e.Count16("messages", len(msgs), e.Limits.MaxMessages)
	for _, m := range msgs {
		e.String(m.Text, MessageMax)
		e.U16(m.Type)
	}
}

// ArtifactLayout is one artifact generation record.
var ArtifactLayout = Layout[game.Artifact]{
	U8(func(a *game.Artifact) *uint8 { return &a.CurNum }).Step("cur_num"),
	{
		Field: "floor",
		Ways: []Strategy[game.Artifact]{
			{Name: "floor_id", When: v.Since(v.CurrentFloorPaging), Read: func(d *Decoder, a *game.Artifact) {
				a.FloorID = d.U16()
			}},
			{Name: "reserved", When: v.Always, Read: func(d *Decoder, a *game.Artifact) {
				d.Skip(legacyArtifactPad)
			}},
		},
	},
}

func ReadArtifacts(d *Decoder) ([]game.Artifact, error) {
	count := int(d.U16())
	if !d.Count("artifacts", count, d.Limits.MaxArtifacts) {
		return nil, d.Err()
	}
	arts := make([]game.Artifact, count)
	for i := range arts {
		if err := ArtifactLayout.Decode(d, &arts[i]); err != nil {
			return nil, errors.Wrapf(err, "artifact %d", i)
		}
	}
	return arts, nil
}

func WriteArtifacts(e *Encoder, arts []game.Artifact) {
	e.Count16("artifacts", len(arts), e.Limits.MaxArtifacts)
	for _, a := range arts {
		e.U8(a.CurNum)
		e.U16(a.FloorID)
	}
}

// ReadQuests decodes the town count and the quest table.
func ReadQuests(d *Decoder) (int, []game.Quest, error) {
	towns := int(d.U16())
	if !d.Count("towns", towns, d.Limits.MaxTowns) {
		return 0, nil, d.Err()
	}
	count := int(d.U16())
	if !d.Count("quests", count, d.Limits.MaxQuests) {
		return 0, nil, d.Err()
	}
	quests := make([]game.Quest, count)
	for i := range quests {
		if err := QuestCodec.Decode(d, &quests[i]); err != nil {
			return 0, nil, errors.Wrapf(err, "quest %d", i)
		}
	}
	return towns, quests, nil
}

func WriteQuests(e *Encoder, towns int, quests []game.Quest) {
	e.Count16("towns", towns, e.Limits.MaxTowns)
	e.Count16("quests", len(quests), e.Limits.MaxQuests)
	for i := range quests {
		QuestCodec.Encode(e, &quests[i])
	}
}

func ReadWilderness(d *Decoder) (game.Wilderness, error) {
	var w game.Wilderness
	w.X = d.I32()
	w.Y = d.I32()
	w.Height = int(d.U16())
	w.Width = int(d.U16())
	if !d.Count("wilderness height", w.Height, d.Limits.MaxWildHeight) ||
		!d.Count("wilderness width", w.Width, d.Limits.MaxWildWidth) {
		return game.Wilderness{}, d.Err()
	}
	w.Seeds = make([]uint32, w.Height*w.Width)
	readWords(d, w.Seeds)
	return w, d.Err()
}

func WriteWilderness(e *Encoder, w *game.Wilderness) {
	e.I32(w.X)
	e.I32(w.Y)
	e.Count16("wilderness height", w.Height, e.Limits.MaxWildHeight)
	e.Count16("wilderness width", w.Width, e.Limits.MaxWildWidth)
	if len(w.Seeds) != w.Height*w.Width {
		e.Fail(errors.Errorf("wilderness has %d seeds for %dx%d", len(w.Seeds), w.Height, w.Width))
	}
	writeWords(e, w.Seeds)
}

func ReadHP(d *Decoder) ([]int16, error) {
	count := int(d.U16())
	if !d.Count("hitpoint table", count, d.Limits.MaxLevels) {
		return nil, d.Err()
	}
	hp := make([]int16, count)
	readI16s(d, hp)
	return hp, d.Err()
}

func WriteHP(e *Encoder, hp []int16) {
	e.Count16("hitpoint table", len(hp), e.Limits.MaxLevels)
	writeI16s(e, hp)
}

// SpellsLayout is the spellbook block.
var SpellsLayout = Layout[game.Spells]{
	{
		Field: "masks",
		Ways: []Strategy[game.Spells]{{Name: "v1", When: v.Always, Read: func(d *Decoder, s *game.Spells) {
			readWords(d, s.Learned[:])
			readWords(d, s.Worked[:])
			readWords(d, s.Forgotten[:])
		}}},
	},
	{
		Field: "exp",
		Ways: []Strategy[game.Spells]{{Name: "v1", When: v.Since(v.Current010), Read: func(d *Decoder, s *game.Spells) {
			count := int(d.U16())
			if !d.Count("spell exp", count, d.Limits.MaxSpells) {
				return
			}
			s.Exp = make([]int16, count)
			readI16s(d, s.Exp)
		}}},
		Absent: func(s *game.Spells) { s.Exp = []int16{} },
	},
	{
		Field: "order",
		Ways: []Strategy[game.Spells]{{Name: "v1", When: v.Always, Read: func(d *Decoder, s *game.Spells) {
			count := int(d.U16())
			if !d.Count("spell order", count, d.Limits.MaxSpells) {
				return
			}
			s.Order = make([]uint8, count)
			for i := range s.Order {
				s.Order[i] = d.U8()
			}
		}}},
	},
}

func ReadSpells(d *Decoder) (game.Spells, error) {
	var s game.Spells
	err := SpellsLayout.Decode(d, &s)
	return s, err
}

func WriteSpells(e *Encoder, s *game.Spells) {
	writeWords(e, s.Learned[:])
	writeWords(e, s.Worked[:])
	writeWords(e, s.Forgotten[:])
	e.Count16("spell exp", len(s.Exp), e.Limits.MaxSpells)
	writeI16s(e, s.Exp)
	e.Count16("spell order", len(s.Order), e.Limits.MaxSpells)
	for _, o := range s.Order {
		e.U8(o)
	}
}

// ReadInventory decodes (slot, item) pairs up to the end marker.
func ReadInventory(d *Decoder) ([]game.InventorySlot, error) {
	var inv []game.InventorySlot
	for {
		slot := d.U16()
		if err := d.Err(); err != nil {
			return nil, err
		}
		if slot == InventoryEnd {
			return inv, nil
		}
		if int(slot) >= d.Limits.MaxInventory {
			return nil, errdefs.Overflow("inventory slot", int(slot), d.Limits.MaxInventory-1)
		}
		if len(inv) >= d.Limits.MaxInventory {
			return nil, errdefs.Overflow("inventory", len(inv)+1, d.Limits.MaxInventory)
		}
		item, err := ReadItem(d)
		if err != nil {
			return nil, errors.Wrapf(err, "inventory slot %d", slot)
		}
		inv = append(inv, game.InventorySlot{Slot: slot, Item: item})
	}
}

func WriteInventory(e *Encoder, inv []game.InventorySlot) {
	e.Count("inventory", len(inv), e.Limits.MaxInventory)
	for i := range inv {
		if int(inv[i].Slot) >= e.Limits.MaxInventory {
			e.Fail(errdefs.Overflow("inventory slot", int(inv[i].Slot), e.Limits.MaxInventory-1))
		}
		e.U16(inv[i].Slot)
		WriteItem(e, &inv[i].Item)
	}
	e.U16(InventoryEnd)
}
