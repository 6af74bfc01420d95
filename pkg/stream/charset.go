// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Charset selects how stored text is normalized on read.
type Charset int

const (
	// UTF8 text is kept, invalid sequences become U+FFFD.
	UTF8 Charset = iota
	// Latin1 text was written by legacy-lineage writers.
	Latin1
)

func normalize(raw []byte, charset Charset) string {
	var text string
	switch charset {
	case Latin1:
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			decoded = raw
		}
		text = string(decoded)
	default:
		text = string(raw)
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '?'
		}
		return r
	}, text)
}
