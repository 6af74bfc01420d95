// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package codec

// Limits are the compiled maxima every declared count and index is
// checked against.
type Limits struct {
	MaxMessages     int `toml:"max_messages"`
	MaxMessageTypes int `toml:"max_message_types"`
	MaxRaces        int `toml:"max_races"`
	MaxKinds        int `toml:"max_kinds"`
	MaxEgos         int `toml:"max_egos"`
	MaxArtifacts    int `toml:"max_artifacts"`
	MaxTowns        int `toml:"max_towns"`
	MaxStores       int `toml:"max_stores"`
	MaxOwners       int `toml:"max_owners"`
	MaxStoreStock   int `toml:"max_store_stock"`
	MaxQuests       int `toml:"max_quests"`
	MaxWildHeight   int `toml:"max_wild_height"`
	MaxWildWidth    int `toml:"max_wild_width"`
	MaxLevels       int `toml:"max_levels"`
	MaxSpells       int `toml:"max_spells"`
	MaxInventory    int `toml:"max_inventory"`
	MaxRandState    int `toml:"max_rand_state"`
	MaxDungeons     int `toml:"max_dungeons"`
	MaxPlayerTimed  int `toml:"max_player_timed"`
	MaxSavedFloors  int `toml:"max_saved_floors"`
	MaxFloorHeight  int `toml:"max_floor_height"`
	MaxFloorWidth   int `toml:"max_floor_width"`
	MaxTemplates    int `toml:"max_templates"`
	MaxObjects      int `toml:"max_objects"`
	MaxMonsters     int `toml:"max_monsters"`
}

// RandStateLegacy is the fixed length of the RNG state in legacy layouts.
const RandStateLegacy = 64

// DefaultLimits returns the maxima the engine is built with.
func DefaultLimits() Limits {
	return Limits{
		MaxMessages:     2048,
		MaxMessageTypes: 32,
		MaxRaces:        1024,
		MaxKinds:        1024,
		MaxEgos:         128,
		MaxArtifacts:    256,
		MaxTowns:        8,
		MaxStores:       10,
		MaxOwners:       32,
		MaxStoreStock:   64,
		MaxQuests:       128,
		MaxWildHeight:   128,
		MaxWildWidth:    128,
		MaxLevels:       50,
		MaxSpells:       64,
		MaxInventory:    24,
		MaxRandState:    RandStateLegacy,
		MaxDungeons:     32,
		MaxPlayerTimed:  64,
		MaxSavedFloors:  20,
		MaxFloorHeight:  66,
		MaxFloorWidth:   198,
		MaxTemplates:    65535,
		MaxObjects:      1024,
		MaxMonsters:     1024,
	}
}
