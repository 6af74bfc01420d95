// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package floor

import (
	"fmt"
)

// State is the lifecycle position of a floor slot.
type State int

const (
	// Unvisited slots hold no floor.
	Unvisited State = iota
	// Active floors are resident in memory.
	Active
	// PagedOut floors live in their per-floor file.
	PagedOut
	// Invalid slots were reclaimed, their file is gone.
	Invalid
)

var stateNames = map[State]string{
	Unvisited: "unvisited",
	Active:    "active",
	PagedOut:  "paged-out",
	Invalid:   "invalid",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Record identifies one paged floor and links it to its stairway
// neighbors. Zero neighbor ids mean no neighbor.
type Record struct {
	FloorID   uint16 `json:"floor_id"`
	Slot      uint8  `json:"slot"`
	Depth     int16  `json:"depth"`
	LastVisit int32  `json:"last_visit"`
	VisitMark uint32 `json:"visit_mark"`
	Upper     uint16 `json:"upper"`
	Lower     uint16 `json:"lower"`
	State     State  `json:"-"`
}

// tracked reports whether the slot holds a live floor.
func (r *Record) tracked() bool {
	return r.State == Active || r.State == PagedOut
}

// sameHeader compares every persisted field of two records.
func (r Record) sameHeader(o Record) bool {
	r.State, o.State = 0, 0
	return r == o
}

func (r Record) String() string {
	return fmt.Sprintf("floor %d (slot %d, depth %d, mark %d)", r.FloorID, r.Slot, r.Depth, r.VisitMark)
}
