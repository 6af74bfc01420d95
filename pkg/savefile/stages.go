// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package savefile

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/floor"
	"github.com/hengband/savekeep/pkg/game"
	"github.com/hengband/savekeep/pkg/version"
)

// session is the state threaded through the stages of one load or save.
type session struct {
	path string
	opt  Opt
	game *Game
	d    *codec.Decoder
	e    *codec.Encoder
	// checkpoint is the current floor staged by a save, committed together
	// with the save itself.
	checkpoint *floor.Pending
	// undo reverts in-memory changes of a save that did not land.
	undo []func()
}

// stage is one step of the save file. Stages run in table order for both
// directions. A fatal stage aborts the load on any error; a defaulting
// stage only aborts on stream errors and keeps going when a collaborator
// refuses the decoded data.
type stage struct {
	name  string
	fatal bool
	load  func(s *session) error
	save  func(s *session) error
}

var stages = []stage{
	{name: "header", fatal: true, load: loadHeader, save: saveHeader},
	{name: "rng", load: loadRNG, save: saveRNG},
	{name: "options", fatal: true, load: loadOptions, save: saveOptions},
	{name: "messages", load: loadMessages, save: saveMessages},
	{name: "lore", fatal: true, load: loadLore, save: saveLore},
	{name: "awareness", fatal: true, load: loadAwareness, save: saveAwareness},
	{name: "quests", fatal: true, load: loadQuests, save: saveQuests},
	{name: "wilderness", fatal: true, load: loadWilderness, save: saveWilderness},
	{name: "artifacts", fatal: true, load: loadArtifacts, save: saveArtifacts},
	{name: "player", fatal: true, load: loadPlayer, save: savePlayer},
	{name: "hitpoints", fatal: true, load: loadHP, save: saveHP},
	{name: "spells", fatal: true, load: loadSpells, save: saveSpells},
	{name: "inventory", fatal: true, load: loadInventory, save: saveInventory},
	{name: "stores", fatal: true, load: loadStores, save: saveStores},
	{name: "dungeon", fatal: true, load: loadDungeon, save: saveDungeon},
}

// StageNames lists the stages in stream order, the trailer last.
func StageNames() []string {
	names := make([]string, 0, len(stages)+1)
	for _, st := range stages {
		names = append(names, st.name)
	}
	return append(names, "trailer")
}

func loadHeader(s *session) error {
	h := &s.game.State.Header
	h.Version = s.d.Version
	h.System = s.d.U32()
	h.When = s.d.U32()
	h.Lives = s.d.U16()
	h.Saves = s.d.U16()
	return s.d.Err()
}

func saveHeader(s *session) error {
	h := &s.game.State.Header
	s.e.U32(h.System)
	s.e.U32(h.When)
	s.e.U16(h.Lives)
	s.e.U16(h.Saves)
	return nil
}

func loadRNG(s *session) error {
	st := &s.game.State
	if err := codec.RNGCodec.Decode(s.d, &st.RNG); err != nil {
		return err
	}
	if s.opt.RNG == nil {
		return nil
	}
	return errors.Wrap(s.opt.RNG.RestoreState(st.RNG), "restore rng state")
}

func saveRNG(s *session) error {
	st := &s.game.State
	if s.opt.RNG != nil {
		st.RNG = s.opt.RNG.SaveState()
	}
	codec.RNGCodec.Encode(s.e, &st.RNG)
	return nil
}

func loadOptions(s *session) error {
	return codec.OptionsCodec.Decode(s.d, &s.game.State.Options)
}

func saveOptions(s *session) error {
	codec.OptionsCodec.Encode(s.e, &s.game.State.Options)
	return nil
}

func loadMessages(s *session) error {
	msgs, err := codec.ReadMessages(s.d)
	if err != nil {
		return err
	}
	s.game.State.Messages = msgs
	if s.opt.Log == nil {
		return nil
	}
	var failed error
	for _, m := range msgs {
		if err := s.opt.Log.Append(m); err != nil && failed == nil {
			failed = errors.Wrapf(err, "append message %q", m.Text)
		}
	}
	return failed
}

func saveMessages(s *session) error {
	st := &s.game.State
	if s.opt.Log != nil {
		st.Messages = s.opt.Log.Messages()
	}
	if len(st.Messages) > s.opt.Limits.MaxMessages {
		st.Messages = st.Messages[len(st.Messages)-s.opt.Limits.MaxMessages:]
	}
	codec.WriteMessages(s.e, st.Messages)
	return nil
}

func loadLore(s *session) (err error) {
	s.game.State.Lore, err = codec.ReadLore(s.d)
	return err
}

func saveLore(s *session) error {
	codec.WriteLore(s.e, s.game.State.Lore)
	return nil
}

func loadAwareness(s *session) (err error) {
	s.game.State.Awareness, err = codec.ReadAwareness(s.d)
	return err
}

func saveAwareness(s *session) error {
	codec.WriteAwareness(s.e, s.game.State.Awareness)
	return nil
}

func loadQuests(s *session) (err error) {
	st := &s.game.State
	st.Towns, st.Quests, err = codec.ReadQuests(s.d)
	return err
}

func saveQuests(s *session) error {
	codec.WriteQuests(s.e, s.game.State.Towns, s.game.State.Quests)
	return nil
}

func loadWilderness(s *session) (err error) {
	s.game.State.Wilderness, err = codec.ReadWilderness(s.d)
	return err
}

func saveWilderness(s *session) error {
	codec.WriteWilderness(s.e, &s.game.State.Wilderness)
	return nil
}

func loadArtifacts(s *session) (err error) {
	s.game.State.Artifacts, err = codec.ReadArtifacts(s.d)
	return err
}

func saveArtifacts(s *session) error {
	codec.WriteArtifacts(s.e, s.game.State.Artifacts)
	return nil
}

func loadPlayer(s *session) error {
	return codec.PlayerCodec.Decode(s.d, &s.game.State.Player)
}

func savePlayer(s *session) error {
	codec.PlayerCodec.Encode(s.e, &s.game.State.Player)
	return nil
}

func loadHP(s *session) (err error) {
	s.game.State.HP, err = codec.ReadHP(s.d)
	return err
}

func saveHP(s *session) error {
	codec.WriteHP(s.e, s.game.State.HP)
	return nil
}

func loadSpells(s *session) (err error) {
	s.game.State.Spells, err = codec.ReadSpells(s.d)
	return err
}

func saveSpells(s *session) error {
	codec.WriteSpells(s.e, &s.game.State.Spells)
	return nil
}

func loadInventory(s *session) (err error) {
	s.game.State.Inventory, err = codec.ReadInventory(s.d)
	return err
}

func saveInventory(s *session) error {
	codec.WriteInventory(s.e, s.game.State.Inventory)
	return nil
}

// loadStores decodes the stores of every town counted by the quest stage.
func loadStores(s *session) error {
	st := &s.game.State
	st.Stores = make([][]game.Store, st.Towns)
	for town := range st.Stores {
		count := int(s.d.U16())
		if !s.d.Count("stores", count, s.d.Limits.MaxStores) {
			return s.d.Err()
		}
		st.Stores[town] = make([]game.Store, count)
		for i := range st.Stores[town] {
			if err := codec.StoreCodec.Decode(s.d, &st.Stores[town][i]); err != nil {
				return errors.Wrapf(err, "town %d store %d", town, i)
			}
		}
	}
	return nil
}

func saveStores(s *session) error {
	st := &s.game.State
	if len(st.Stores) != st.Towns {
		return errors.Errorf("%d store lists for %d towns", len(st.Stores), st.Towns)
	}
	for _, stores := range st.Stores {
		s.e.Count16("stores", len(stores), s.opt.Limits.MaxStores)
		for i := range stores {
			codec.StoreCodec.Encode(s.e, &stores[i])
		}
	}
	return nil
}

// loadDungeon restores the floor the player stands on. Saves before floor
// paging carry that floor inline; it becomes the only floor of a fresh
// directory.
func loadDungeon(s *session) error {
	st := &s.game.State
	if st.Player.IsDead {
		return nil
	}
	if s.d.Version.OlderThan(version.CurrentFloorPaging) {
		return adoptInlineLevel(s)
	}

	current := s.d.U16()
	pager, err := floor.ReadDirectory(s.d, floor.Opt{Base: s.path})
	if err != nil {
		return err
	}
	if err := pager.Validate(); err != nil {
		return err
	}
	s.game.Dungeon = Dungeon{Pager: pager, Current: current}
	if current == 0 {
		return nil
	}
	// The save on disk still refers to the file, so it stays.
	level, err := pager.PageIn(current, true)
	if err != nil {
		return err
	}
	s.game.Dungeon.Level = level
	return nil
}

func adoptInlineLevel(s *session) error {
	st := &s.game.State
	level, err := floor.ReadLevel(s.d)
	if err != nil {
		return err
	}
	dungeon := NewDungeon(s.path, s.d.Limits)
	rec, err := dungeon.Pager.Create(st.Player.Depth, 0, 0, int32(st.Player.Turn))
	if err != nil {
		return err
	}
	dungeon.Current = rec.FloorID
	dungeon.Level = level
	st.Player.FloorID = rec.FloorID
	s.game.Dungeon = dungeon
	logrus.Infof("Adopted inline level at depth %d as %s", st.Player.Depth, rec)
	return nil
}

func saveDungeon(s *session) error {
	st := &s.game.State
	if st.Player.IsDead {
		return nil
	}
	dungeon := &s.game.Dungeon
	if dungeon.Pager == nil {
		*dungeon = NewDungeon(s.path, s.opt.Limits)
		s.undo = append(s.undo, func() { *dungeon = Dungeon{} })
	}
	pager := dungeon.Pager
	if base := pager.Base(); base != s.path {
		if err := pager.Relocate(s.path); err != nil {
			return err
		}
		s.undo = append(s.undo, func() { pager.Rebase(base) })
	}
	for _, rec := range pager.Records() {
		if rec.State == floor.Active && rec.FloorID != dungeon.Current {
			return errors.Errorf("%s is resident, page it out before saving", rec)
		}
	}
	if dungeon.Current != 0 {
		if dungeon.Level == nil {
			return errors.Wrapf(errdefs.ErrMissingFloorFile, "no level for current floor %d", dungeon.Current)
		}
		pending, err := pager.Prepare(dungeon.Current, dungeon.Level, int32(st.Player.Turn))
		if err != nil {
			return err
		}
		s.checkpoint = pending
	}
	s.e.U16(dungeon.Current)
	pager.WriteDirectory(s.e)
	return nil
}
