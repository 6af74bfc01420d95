// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"lukechampine.com/blake3"
)

const defaultRetryAttempts = 3

// RetryInterval is the pause between two attempts of WithRetry.
var RetryInterval = time.Millisecond * 200

// IsPermanent reports errors that a retry cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist)
}

// WithRetry runs op until it succeeds, fails permanently or runs out of
// attempts, and returns the last error.
func WithRetry(op func() error) error {
	var err error
	attempts := defaultRetryAttempts
	for attempts > 0 {
		attempts--
		if err != nil {
			if IsPermanent(err) {
				return err
			}
			logrus.Warnf("Retry due to error: %s", err)
			time.Sleep(RetryInterval)
		}
		if err = op(); err == nil {
			break
		}
	}
	return err
}

func IsPathExists(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	return false
}

// HashFile returns the blake3-256 digest of a file.
func HashFile(path string) ([]byte, error) {
	hasher := blake3.New(32, nil)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open file before hashing file")
	}
	defer file.Close()

	buf := make([]byte, 2<<15) // 64KB
	for {
		n, err := file.Read(buf)
		if n > 0 {
			if _, err := hasher.Write(buf[:n]); err != nil {
				return nil, errors.Wrap(err, "calculate hash of file")
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read file during hashing file")
		}
	}

	return hasher.Sum(nil), nil
}

// HashBytes returns the hex blake3-256 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
