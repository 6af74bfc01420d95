// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/stream"
	"github.com/hengband/savekeep/pkg/version"
)

// ChecksumRule validates the trailer sums of the raw save image.
type ChecksumRule struct {
	Path string
	Data []byte
}

func (rule *ChecksumRule) Name() string {
	return "Checksum"
}

func (rule *ChecksumRule) Validate() error {
	logrus.Infof("Checking save checksum")
	return stream.Verify(rule.Path, rule.Data)
}

// HeaderRule validates that the recorded versions are decodable. The
// decoded version is kept in Version.
type HeaderRule struct {
	Path    string
	Data    []byte
	Version version.Version
}

func (rule *HeaderRule) Name() string {
	return "Header"
}

func (rule *HeaderRule) Validate() error {
	logrus.Infof("Checking save header")
	r, prelude, err := stream.NewReader(rule.Path, rule.Data)
	if err != nil {
		return err
	}
	ver, err := savefile.ReadVersion(r, prelude)
	if err != nil {
		return errors.Wrap(err, "invalid save header")
	}
	rule.Version = ver
	logrus.Debugf("Save format %s", ver)
	return nil
}

// StagesRule decodes every stage of the save. The loaded game is kept in
// Game for the floor rules.
type StagesRule struct {
	Path string
	Opt  savefile.Opt
	Game *savefile.Game
}

func (rule *StagesRule) Name() string {
	return "Stages"
}

func (rule *StagesRule) Validate() error {
	logrus.Infof("Checking save stages")
	g, err := savefile.Load(rule.Path, rule.Opt)
	if err != nil {
		return err
	}
	rule.Game = g
	return nil
}
