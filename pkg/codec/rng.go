// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// RNG format flags.
const (
	RNGSeedFlavor Flags = 1 << iota
	RNGSeedTown
)

var (
	rngPlace      = U16(func(r *game.RNGState) *uint16 { return &r.Place })
	rngSeedFlavor = U32(func(r *game.RNGState) *uint32 { return &r.SeedFlavor })
	rngSeedTown   = U32(func(r *game.RNGState) *uint32 { return &r.SeedTown })
)

func readRandState(d *Decoder, r *game.RNGState, count int) {
	if !d.Count("rng state", count, d.Limits.MaxRandState) {
		return
	}
	r.State = make([]uint32, count)
	for i := range r.State {
		r.State[i] = d.U32()
	}
}

// RNGCodec decodes the persisted generator state.
var RNGCodec = Codec[game.RNGState]{
	Name:   "rng",
	Modern: v.Since(v.CurrentRNGFlags),
	Legacy: Layout[game.RNGState]{
		rngPlace.Step("place"),
		{
			Field: "state",
			Ways: []Strategy[game.RNGState]{{Name: "fixed", When: v.Always, Read: func(d *Decoder, r *game.RNGState) {
				readRandState(d, r, RandStateLegacy)
			}}},
		},
		rngSeedFlavor.Step("seed_flavor"),
		rngSeedTown.Step("seed_town"),
	},
	Record: Record[game.RNGState]{
		Fixed: []Field[game.RNGState]{
			rngPlace.Fixed("place"),
			{
				Name: "state",
				Read: func(d *Decoder, r *game.RNGState) { readRandState(d, r, int(d.U16())) },
				Write: func(e *Encoder, r *game.RNGState) {
					e.Count16("rng state", len(r.State), e.Limits.MaxRandState)
					for _, w := range r.State {
						e.U32(w)
					}
				},
			},
		},
		Optional: []Field[game.RNGState]{
			rngSeedFlavor.Opt("seed_flavor", RNGSeedFlavor),
			rngSeedTown.Opt("seed_town", RNGSeedTown),
		},
	},
	Fixup: func(d *Decoder, r *game.RNGState) {
		if len(r.State) > 0 {
			r.Place = uint16(d.Index("rng place", int(r.Place), len(r.State), 0))
		}
	},
}
