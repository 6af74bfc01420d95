// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// InscriptionMax bounds item inscriptions and artifact names.
const InscriptionMax = 80

// identCursedLegacy is the ident bit that stood for a curse before items
// carried explicit curse flags.
const identCursedLegacy uint8 = 0x40

// Item format flags.
const (
	ItemPval Flags = 1 << iota
	ItemDiscount
	ItemNumber
	ItemName1
	ItemName2
	ItemTimeout
	ItemToH
	ItemToD
	ItemToA
	ItemAC
	ItemDice
	ItemIdent
	ItemMarked
	ItemArtFlags0
	ItemArtFlags1
	ItemArtFlags2
	ItemCurseFlags
	ItemHeldMIdx
	ItemXtra1
	ItemXtra2
	ItemXtra3
	ItemInscription
	ItemArtName
)

func itemArtFlags(n int) Scalar[game.Item] {
	return U32(func(i *game.Item) *uint32 { return &i.ArtFlags[n] })
}

var (
	itemKIdx        = U16(func(i *game.Item) *uint16 { return &i.KIdx })
	itemY           = U8(func(i *game.Item) *uint8 { return &i.Y })
	itemX           = U8(func(i *game.Item) *uint8 { return &i.X })
	itemTval        = U8(func(i *game.Item) *uint8 { return &i.Tval })
	itemSval        = U8(func(i *game.Item) *uint8 { return &i.Sval })
	itemPval        = I16(func(i *game.Item) *int16 { return &i.Pval })
	itemDiscount    = U8(func(i *game.Item) *uint8 { return &i.Discount })
	itemNumber      = U8(func(i *game.Item) *uint8 { return &i.Number })
	itemWeight      = I16(func(i *game.Item) *int16 { return &i.Weight })
	itemName1       = U8(func(i *game.Item) *uint8 { return &i.Name1 })
	itemName2       = U8(func(i *game.Item) *uint8 { return &i.Name2 })
	itemTimeout     = I16(func(i *game.Item) *int16 { return &i.Timeout })
	itemToH         = I16(func(i *game.Item) *int16 { return &i.ToH })
	itemToD         = I16(func(i *game.Item) *int16 { return &i.ToD })
	itemToA         = I16(func(i *game.Item) *int16 { return &i.ToA })
	itemAC          = I16(func(i *game.Item) *int16 { return &i.AC })
	itemDD          = U8(func(i *game.Item) *uint8 { return &i.DD })
	itemDS          = U8(func(i *game.Item) *uint8 { return &i.DS })
	itemIdent       = U8(func(i *game.Item) *uint8 { return &i.Ident })
	itemMarked      = U8(func(i *game.Item) *uint8 { return &i.Marked })
	itemCurseFlags  = U32(func(i *game.Item) *uint32 { return &i.CurseFlags })
	itemHeldMIdx    = U16(func(i *game.Item) *uint16 { return &i.HeldMIdx })
	itemXtra1       = U8(func(i *game.Item) *uint8 { return &i.Xtra1 })
	itemXtra2       = U8(func(i *game.Item) *uint8 { return &i.Xtra2 })
	itemXtra3       = U8(func(i *game.Item) *uint8 { return &i.Xtra3 })
	itemInscription = Str(InscriptionMax, func(i *game.Item) *string { return &i.Inscription })
	itemArtName     = Str(InscriptionMax, func(i *game.Item) *string { return &i.ArtName })
)

// synthesizeCurse derives curse flags from the ident byte of streams that
// predate explicit curse flags, and clears the borrowed bit.
func synthesizeCurse(i *game.Item) {
	i.CurseFlags = 0
	if i.Ident&identCursedLegacy != 0 {
		i.CurseFlags |= game.CurseCursed
		i.Ident &^= identCursedLegacy
	}
}

// ItemCodec decodes items on floors, in stores and in the inventory.
var ItemCodec = Codec[game.Item]{
	Name:   "item",
	Modern: v.Since(v.CurrentFormatFlags),
	Legacy: Layout[game.Item]{
		itemKIdx.Step("k_idx"),
		itemY.Step("y"),
		itemX.Step("x"),
		itemTval.Step("tval"),
		itemSval.Step("sval"),
		itemPval.Step("pval"),
		itemDiscount.Step("discount"),
		itemNumber.Step("number"),
		itemWeight.Step("weight"),
		itemName1.Step("name1"),
		itemName2.Step("name2"),
		itemTimeout.Step("timeout"),
		itemToH.Step("to_h"),
		itemToD.Step("to_d"),
		itemToA.Step("to_a"),
		itemAC.Step("ac"),
		itemDD.Step("dd"),
		itemDS.Step("ds"),
		itemIdent.Step("ident"),
		itemMarked.Step("marked"),
		itemArtFlags(0).Step("art_flags0"),
		itemArtFlags(1).Step("art_flags1"),
		itemArtFlags(2).Since("art_flags2", v.LegacySince(v.LegacyArtFlags3), nil),
		itemCurseFlags.Since("curse_flags", v.Since(v.CurrentCurseFlags), synthesizeCurse),
		itemHeldMIdx.Step("held_m_idx"),
		itemXtra1.Step("xtra1"),
		itemXtra2.Step("xtra2"),
		itemXtra3.Step("xtra3"),
		itemInscription.Step("inscription"),
		itemArtName.Step("art_name"),
	},
	Record: Record[game.Item]{
		Fixed: []Field[game.Item]{
			itemKIdx.Fixed("k_idx"),
			itemY.Fixed("y"),
			itemX.Fixed("x"),
			itemTval.Fixed("tval"),
			itemSval.Fixed("sval"),
			itemWeight.Fixed("weight"),
		},
		Optional: []Field[game.Item]{
			itemPval.Opt("pval", ItemPval),
			itemDiscount.Opt("discount", ItemDiscount),
			{
				Name:    "number",
				Bit:     ItemNumber,
				Has:     func(i *game.Item) bool { return i.Number != 1 },
				Read:    itemNumber.read,
				Write:   itemNumber.write,
				Default: func(i *game.Item) { i.Number = 1 },
			},
			itemName1.Opt("name1", ItemName1),
			itemName2.Opt("name2", ItemName2),
			itemTimeout.Opt("timeout", ItemTimeout),
			itemToH.Opt("to_h", ItemToH),
			itemToD.Opt("to_d", ItemToD),
			itemToA.Opt("to_a", ItemToA),
			itemAC.Opt("ac", ItemAC),
			{
				Name: "dice",
				Bit:  ItemDice,
				Has:  func(i *game.Item) bool { return i.DD != 0 || i.DS != 0 },
				Read: func(d *Decoder, i *game.Item) {
					i.DD = d.U8()
					i.DS = d.U8()
				},
				Write: func(e *Encoder, i *game.Item) {
					e.U8(i.DD)
					e.U8(i.DS)
				},
			},
			itemIdent.Opt("ident", ItemIdent),
			itemMarked.Opt("marked", ItemMarked),
			itemArtFlags(0).Opt("art_flags0", ItemArtFlags0),
			itemArtFlags(1).Opt("art_flags1", ItemArtFlags1),
			itemArtFlags(2).Opt("art_flags2", ItemArtFlags2),
			itemCurseFlags.Opt("curse_flags", ItemCurseFlags),
			itemHeldMIdx.Opt("held_m_idx", ItemHeldMIdx),
			itemXtra1.Opt("xtra1", ItemXtra1),
			itemXtra2.Opt("xtra2", ItemXtra2),
			itemXtra3.Opt("xtra3", ItemXtra3),
			itemInscription.Opt("inscription", ItemInscription),
			itemArtName.Opt("art_name", ItemArtName),
		},
	},
	Fixup: func(d *Decoder, i *game.Item) {
		i.KIdx = uint16(d.Index("item kind", int(i.KIdx), d.Limits.MaxKinds, 0))
		i.Name1 = uint8(d.Index("artifact", int(i.Name1), d.Limits.MaxArtifacts, 0))
		i.Name2 = uint8(d.Index("ego", int(i.Name2), d.Limits.MaxEgos, 0))
	},
}

// ReadItem decodes one item in the layout of the stream's version.
func ReadItem(d *Decoder) (game.Item, error) {
	var item game.Item
	err := ItemCodec.Decode(d, &item)
	return item, err
}

// WriteItem encodes one item in the current layout.
func WriteItem(e *Encoder, item *game.Item) {
	ItemCodec.Encode(e, item)
}
