// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package version

// Format milestones. The list is append-only: a new layout change gets a
// new entry and a new strategy in the affected codec tables, existing
// entries never move.
var (
	LegacyMinimum      = Triple{2, 0, 0}
	LegacyWideMonsters = Triple{2, 1, 0}
	LegacyArtFlags3    = Triple{2, 1, 3}
	LegacyEnergyNeed   = Triple{2, 2, 0}
	LegacyOptionWords  = Triple{2, 2, 7}
	// CurrentLineage is the first legacy triple whose header carries a quad.
	// Current writers always emit it.
	CurrentLineage = Triple{2, 8, 0}

	Current010         = Quad{0, 1, 0, 0}
	CurrentVirtues     = Quad{0, 2, 0, 0}
	CurrentCurseFlags  = Quad{0, 3, 0, 0}
	CurrentFormatFlags = Quad{0, 4, 0, 0}
	CurrentFloorPaging = Quad{1, 0, 0, 0}
	CurrentStoreFlags  = Quad{1, 1, 0, 0}
	CurrentQuestFlags  = Quad{1, 2, 0, 0}
	CurrentRNGFlags    = Quad{1, 3, 0, 0}

	WriterCurrent = CurrentRNGFlags
)

// Milestone documents one format boundary.
type Milestone struct {
	Name   string
	Legacy *Triple
	Quad   *Quad
	Change string
}

// History lists every boundary in the order it was introduced.
var History = []Milestone{
	{Name: "legacy-minimum", Legacy: &LegacyMinimum, Change: "oldest decodable stream"},
	{Name: "legacy-wide-monsters", Legacy: &LegacyWideMonsters, Change: "monster max-max-hp and invulnerability; quest completion level; store good/bad buy; lore flag words 4 to 6; template mimic"},
	{Name: "legacy-art-flags3", Legacy: &LegacyArtFlags3, Change: "third item artifact flag word; third mutation word"},
	{Name: "legacy-energy-need", Legacy: &LegacyEnergyNeed, Change: "monster energy need word; message type; quest dungeon"},
	{Name: "legacy-option-words", Legacy: &LegacyOptionWords, Change: "option flag and mask words"},
	{Name: "current-lineage", Legacy: &CurrentLineage, Change: "current version quad in header"},
	{Name: "current-0.1", Quad: &Current010, Change: "first current format"},
	{Name: "current-virtues", Quad: &CurrentVirtues, Change: "lore alt kills; mana warning option; player virtues"},
	{Name: "current-curse-flags", Quad: &CurrentCurseFlags, Change: "explicit item curse flags"},
	{Name: "current-format-flags", Quad: &CurrentFormatFlags, Change: "items and monsters use format flags"},
	{Name: "current-floor-paging", Quad: &CurrentFloorPaging, Change: "floor directory and per-floor files; artifact floor; options and player extra use format flags"},
	{Name: "current-store-flags", Quad: &CurrentStoreFlags, Change: "store records use format flags"},
	{Name: "current-quest-flags", Quad: &CurrentQuestFlags, Change: "quest records use format flags"},
	{Name: "current-rng-flags", Quad: &CurrentRNGFlags, Change: "rng state uses format flags"},
}

// Gate selects a decode strategy for a version.
type Gate func(Version) bool

// Always matches every version.
func Always(Version) bool { return true }

// LegacyBefore matches streams older than the legacy version t.
func LegacyBefore(t Triple) Gate {
	return func(v Version) bool { return v.LegacyOlderThan(t) }
}

// LegacySince matches streams at or after the legacy version t.
func LegacySince(t Triple) Gate {
	return Not(LegacyBefore(t))
}

// Before matches streams older than the current version q.
func Before(q Quad) Gate {
	return func(v Version) bool { return v.OlderThan(q) }
}

// Since matches streams at or after the current version q.
func Since(q Quad) Gate {
	return Not(Before(q))
}

func Not(g Gate) Gate {
	return func(v Version) bool { return !g(v) }
}

func And(gates ...Gate) Gate {
	return func(v Version) bool {
		for _, g := range gates {
			if !g(v) {
				return false
			}
		}
		return true
	}
}
