// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package errdefs

import (
	"github.com/pkg/errors"
)

var (
	// ErrCorruptSave errors when a stream ends early, carries trailing
	// bytes or fails its checksum comparison.
	ErrCorruptSave = errors.New("corrupt save")
	// ErrUnsupportedVersion errors when the recorded format versions are
	// outside the decodable range.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrOverflowLimit errors when a declared count or index exceeds a
	// compiled maximum.
	ErrOverflowLimit = errors.New("overflow limit")
	// ErrMissingFloorFile errors when an expected floor record or per-floor
	// file does not exist.
	ErrMissingFloorFile = errors.New("missing floor file")
	// ErrFloorMismatch errors when a per-floor file header disagrees with
	// its directory record.
	ErrFloorMismatch = errors.New("floor mismatch")
)

// Kind classifies an engine error.
type Kind int

const (
	KindUnknown Kind = iota
	KindCorruptSave
	KindUnsupportedVersion
	KindOverflowLimit
	KindMissingFloorFile
	KindFloorMismatch
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindCorruptSave:        "corrupt-save",
	KindUnsupportedVersion: "unsupported-version",
	KindOverflowLimit:      "overflow-limit",
	KindMissingFloorFile:   "missing-floor-file",
	KindFloorMismatch:      "floor-mismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// KindOf returns the kind of the first engine sentinel found in the
// error chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCorruptSave):
		return KindCorruptSave
	case errors.Is(err, ErrUnsupportedVersion):
		return KindUnsupportedVersion
	case errors.Is(err, ErrOverflowLimit):
		return KindOverflowLimit
	case errors.Is(err, ErrMissingFloorFile):
		return KindMissingFloorFile
	case errors.Is(err, ErrFloorMismatch):
		return KindFloorMismatch
	default:
		return KindUnknown
	}
}

// IsCorruptSave returns true if the error is due to a damaged stream
func IsCorruptSave(err error) bool {
	return errors.Is(err, ErrCorruptSave)
}

// IsUnsupportedVersion returns true if the error is due to an undecodable version
func IsUnsupportedVersion(err error) bool {
	return errors.Is(err, ErrUnsupportedVersion)
}

// IsOverflowLimit returns true if the error is due to a count over its maximum
func IsOverflowLimit(err error) bool {
	return errors.Is(err, ErrOverflowLimit)
}

// IsMissingFloorFile returns true if the error is due to an absent floor
func IsMissingFloorFile(err error) bool {
	return errors.Is(err, ErrMissingFloorFile)
}

// IsFloorMismatch returns true if the error is due to a floor header mismatch
func IsFloorMismatch(err error) bool {
	return errors.Is(err, ErrFloorMismatch)
}

// IsFatalStream returns true for errors after which the decode position of
// the stream can no longer be trusted.
func IsFatalStream(err error) bool {
	return IsCorruptSave(err) || IsOverflowLimit(err) || IsUnsupportedVersion(err)
}

// Overflow reports a declared count over its compiled maximum.
func Overflow(what string, got, max int) error {
	return errors.Wrapf(ErrOverflowLimit, "%s: %d exceeds maximum %d", what, got, max)
}
