// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package savefile composes the stream, version, entity and floor layers
// into the fixed sequence of stages that loads or saves a whole game.
package savefile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/errdefs"
	"github.com/hengband/savekeep/pkg/floor"
	"github.com/hengband/savekeep/pkg/game"
)

// RandomSource is the generator whose state is persisted.
type RandomSource interface {
	SaveState() game.RNGState
	RestoreState(game.RNGState) error
}

// MessageLog is the append-only message history.
type MessageLog interface {
	Append(game.Message) error
	Messages() []game.Message
}

// Dungeon is the paged floor directory plus the floor the player is on.
type Dungeon struct {
	Pager *floor.Pager
	// Current is the floor id of Level, zero when the player is on no
	// paged floor.
	Current uint16
	Level   *game.Level
}

// Game is the result of a load and the input of a save.
type Game struct {
	State   game.State
	Dungeon Dungeon
}

// Opt configures load and save.
type Opt struct {
	Limits codec.Limits
	// RNG and Log are optional collaborators. When set, a load restores
	// into them and a save reads from them.
	RNG RandomSource
	Log MessageLog
}

func (opt Opt) limits() codec.Limits {
	if opt.Limits.MaxSavedFloors == 0 {
		return codec.DefaultLimits()
	}
	return opt.Limits
}

// NewDungeon starts an empty floor directory for a save at base. The sign
// ties the floor files to this game.
func NewDungeon(base string, limits codec.Limits) Dungeon {
	return Dungeon{
		Pager: floor.New(floor.Opt{Base: base, Sign: uuid.New().ID(), Limits: limits}),
	}
}

// LoadError is the coded failure of a load.
type LoadError struct {
	Stage string
	Kind  errdefs.Kind
	Err   error
}

func newLoadError(stage string, err error) *LoadError {
	return &LoadError{Stage: stage, Kind: errdefs.KindOf(err), Err: err}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed at stage %s: %s", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Code is the stable failure code reported to callers.
func (e *LoadError) Code() string {
	return e.Kind.String()
}

// AsLoadError extracts a LoadError from err.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
