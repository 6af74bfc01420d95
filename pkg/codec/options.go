// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/hengband/savekeep/pkg/game"
	v "github.com/hengband/savekeep/pkg/version"
)

// DefaultManaWarn is the mana warning level of streams that predate it.
const DefaultManaWarn = 2

// legacyOptionBools is the number of boolean options stored before the
// option word layout.
const legacyOptionBools = 32

// Option format flags.
const (
	OptionDelayFactor Flags = 1 << iota
	OptionHitpointWarn
	OptionManaWarn
	OptionAutosave
	OptionWindowFlags
)

var (
	optDelay    = U8(func(o *game.Options) *uint8 { return &o.DelayFactor })
	optHPWarn   = U8(func(o *game.Options) *uint8 { return &o.HitpointWarn })
	optManaWarn = U8(func(o *game.Options) *uint8 { return &o.ManaWarn })
)

func readWords(d *Decoder, words []uint32) {
	for i := range words {
		words[i] = d.U32()
	}
}

func writeWords(e *Encoder, words []uint32) {
	for _, w := range words {
		e.U32(w)
	}
}

func anyWord(words []uint32) bool {
	for _, w := range words {
		if w != 0 {
			return true
		}
	}
	return false
}

func readAutosave(d *Decoder, o *game.Options) {
	o.AutosaveL = d.Bool()
	o.AutosaveT = d.Bool()
	o.AutosaveFreq = d.I16()
}

// OptionsCodec decodes the option block.
var OptionsCodec = Codec[game.Options]{
	Name:   "options",
	Modern: v.Since(v.CurrentFloorPaging),
	Legacy: Layout[game.Options]{
		optDelay.Step("delay_factor"),
		optHPWarn.Step("hitpoint_warn"),
		optManaWarn.Since("mana_warn", v.Since(v.CurrentVirtues), func(o *game.Options) { o.ManaWarn = DefaultManaWarn }),
		{
			Field: "autosave",
			Ways:  []Strategy[game.Options]{{Name: "v1", When: v.Since(v.Current010), Read: readAutosave}},
		},
		{
			Field: "option_flags",
			Ways: []Strategy[game.Options]{
				{Name: "words", When: v.LegacySince(v.LegacyOptionWords), Read: func(d *Decoder, o *game.Options) {
					readWords(d, o.Flags[:])
					readWords(d, o.Masks[:])
				}},
				{Name: "booleans", When: v.Always, Read: func(d *Decoder, o *game.Options) {
					for i := 0; i < legacyOptionBools; i++ {
						if d.Bool() {
							o.Flags[0] |= 1 << i
						}
					}
					o.Masks[0] = 1<<legacyOptionBools - 1
				}},
			},
		},
		{
			Field: "window_flags",
			Ways: []Strategy[game.Options]{{Name: "v1", When: v.Always, Read: func(d *Decoder, o *game.Options) {
				readWords(d, o.WindowFlags[:])
			}}},
		},
	},
	Record: Record[game.Options]{
		Fixed: []Field[game.Options]{
			{
				Name: "option_flags",
				Read: func(d *Decoder, o *game.Options) {
					readWords(d, o.Flags[:])
					readWords(d, o.Masks[:])
				},
				Write: func(e *Encoder, o *game.Options) {
					writeWords(e, o.Flags[:])
					writeWords(e, o.Masks[:])
				},
			},
		},
		Optional: []Field[game.Options]{
			optDelay.Opt("delay_factor", OptionDelayFactor),
			optHPWarn.Opt("hitpoint_warn", OptionHitpointWarn),
			{
				Name:    "mana_warn",
				Bit:     OptionManaWarn,
				Has:     func(o *game.Options) bool { return o.ManaWarn != DefaultManaWarn },
				Read:    optManaWarn.read,
				Write:   optManaWarn.write,
				Default: func(o *game.Options) { o.ManaWarn = DefaultManaWarn },
			},
			{
				Name: "autosave",
				Bit:  OptionAutosave,
				Has:  func(o *game.Options) bool { return o.AutosaveL || o.AutosaveT || o.AutosaveFreq != 0 },
				Read: readAutosave,
				Write: func(e *Encoder, o *game.Options) {
					e.Bool(o.AutosaveL)
					e.Bool(o.AutosaveT)
					e.I16(o.AutosaveFreq)
				},
			},
			{
				Name:  "window_flags",
				Bit:   OptionWindowFlags,
				Has:   func(o *game.Options) bool { return anyWord(o.WindowFlags[:]) },
				Read:  func(d *Decoder, o *game.Options) { readWords(d, o.WindowFlags[:]) },
				Write: func(e *Encoder, o *game.Options) { writeWords(e, o.WindowFlags[:]) },
			},
		},
	},
}
