// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hengband/savekeep/pkg/checker/rule"
	"github.com/hengband/savekeep/pkg/codec"
	"github.com/hengband/savekeep/pkg/savefile"
)

// Opt defines Checker options.
type Opt struct {
	Path   string
	Limits codec.Limits
	// Workers bounds the floor files checked at once, zero for no bound.
	Workers int
}

// Result is the outcome of one rule.
type Result struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// Report is everything a check found out about a save.
type Report struct {
	Path    string            `json:"path"`
	Version string            `json:"version,omitempty"`
	Results []Result          `json:"results"`
	Floors  map[uint16]string `json:"floor_digests,omitempty"`
	Stray   []string          `json:"stray_files,omitempty"`
}

// Checker validates a save file and its floor files, the check workflow
// is composed of various rules.
type Checker struct {
	Opt
}

// New creates Checker instance.
func New(opt Opt) *Checker {
	if opt.Limits.MaxSavedFloors == 0 {
		opt.Limits = codec.DefaultLimits()
	}
	return &Checker{Opt: opt}
}

func (checker *Checker) run(report *Report, rules ...rule.Rule) error {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			report.Results = append(report.Results, Result{Rule: rule.Name(), Error: err.Error()})
			return errors.Wrapf(err, "validate rule %s", rule.Name())
		}
		report.Results = append(report.Results, Result{Rule: rule.Name(), Passed: true})
	}
	return nil
}

// Check runs every rule in order and stops at the first failing one. The
// report lists the rules that ran, including the failed one.
func (checker *Checker) Check(ctx context.Context) (*Report, error) {
	report := &Report{Path: checker.Path}
	data, err := os.ReadFile(checker.Path)
	if err != nil {
		return report, errors.Wrapf(err, "read %s", checker.Path)
	}

	header := &rule.HeaderRule{Path: checker.Path, Data: data}
	stages := &rule.StagesRule{Path: checker.Path, Opt: savefile.Opt{Limits: checker.Limits}}
	if err := checker.run(report,
		&rule.ChecksumRule{Path: checker.Path, Data: data},
		header,
		stages,
	); err != nil {
		return report, err
	}
	report.Version = header.Version.String()

	dungeon := &stages.Game.Dungeon
	directory := &rule.FloorDirectoryRule{Dungeon: dungeon}
	files := &rule.FloorFilesRule{Context: ctx, Pager: dungeon.Pager, Workers: checker.Workers}
	err = checker.run(report, directory, files)
	report.Stray = directory.Stray
	if err != nil {
		return report, err
	}
	report.Floors = files.Digests

	logrus.Infof("Verified save %s", checker.Path)
	return report, nil
}
