// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// Store format flags.
const (
	StoreOpen Flags = 1 << iota
	StoreInsult
	StoreGoodBuy
	StoreBadBuy
	StoreLastVisit
)

var (
	storeOpen      = I32(func(s *game.Store) *int32 { return &s.StoreOpen })
	storeInsult    = I16(func(s *game.Store) *int16 { return &s.InsultCur })
	storeOwner     = U8(func(s *game.Store) *uint8 { return &s.Owner })
	storeGoodBuy   = I16(func(s *game.Store) *int16 { return &s.GoodBuy })
	storeBadBuy    = I16(func(s *game.Store) *int16 { return &s.BadBuy })
	storeLastVisit = I32(func(s *game.Store) *int32 { return &s.LastVisit })
)

// readStock decodes count items. The count is checked before the slice is
// allocated.
func readStock(d *Decoder, s *game.Store, count int) {
	if !d.Count("store stock", count, d.Limits.MaxStoreStock) {
		return
	}
	s.Stock = make([]game.Item, 0, count)
	for i := 0; i < count; i++ {
		item, err := ReadItem(d)
		if err != nil {
			d.Fail(err)
			return
		}
		s.Stock = append(s.Stock, item)
	}
}

func writeStock(e *Encoder, s *game.Store) {
	e.Count16("store stock", len(s.Stock), e.Limits.MaxStoreStock)
	for i := range s.Stock {
		WriteItem(e, &s.Stock[i])
	}
}

// StoreCodec decodes the stock record of one store.
var StoreCodec = Codec[game.Store]{
	Name:   "store",
	Modern: v.Since(v.CurrentStoreFlags),
	Legacy: Layout[game.Store]{
		storeOpen.Step("store_open"),
		storeInsult.Step("insult_cur"),
		storeOwner.Step("owner"),
		{
			// The legacy count byte sits before good/bad buy, the stock after.
			Field: "stock",
			Ways: []Strategy[game.Store]{
				{Name: "wide", When: v.LegacySince(v.LegacyWideMonsters), Read: func(d *Decoder, s *game.Store) {
					count := int(d.U8())
					s.GoodBuy = d.I16()
					s.BadBuy = d.I16()
					readStock(d, s, count)
				}},
				{Name: "narrow", When: v.Always, Read: func(d *Decoder, s *game.Store) {
					readStock(d, s, int(d.U8()))
				}},
			},
		},
	},
	Record: Record[game.Store]{
		Fixed: []Field[game.Store]{
			storeOwner.Fixed("owner"),
			{
				Name:  "stock",
				Read:  func(d *Decoder, s *game.Store) { readStock(d, s, int(d.U16())) },
				Write: writeStock,
			},
		},
		Optional: []Field[game.Store]{
			storeOpen.Opt("store_open", StoreOpen),
			storeInsult.Opt("insult_cur", StoreInsult),
			storeGoodBuy.Opt("good_buy", StoreGoodBuy),
			storeBadBuy.Opt("bad_buy", StoreBadBuy),
			storeLastVisit.Opt("last_visit", StoreLastVisit),
		},
	},
	Fixup: func(d *Decoder, s *game.Store) {
		s.Owner = uint8(d.Index("store owner", int(s.Owner), d.Limits.MaxOwners, 0))
	},
}

func ReadStore(d *Decoder) (game.Store, error) {
	var s game.Store
	err := StoreCodec.Decode(d, &s)
	return s, err
}

func WriteStore(e *Encoder, s *game.Store) {
	StoreCodec.Encode(e, s)
}
