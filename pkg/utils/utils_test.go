// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestWithRetry(t *testing.T) {
	RetryInterval = 0

	calls := 0
	err := WithRetry(func() error {
		calls++
		if calls < 2 {
			return errors.New("busy")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	calls = 0
	err = WithRetry(func() error {
		calls++
		return errors.New("busy")
	})
	require.Error(t, err)
	require.Equal(t, defaultRetryAttempts, calls)

	calls = 0
	err = WithRetry(func() error {
		calls++
		return errors.Wrap(os.ErrNotExist, "open")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestHashFile(t *testing.T) {
	data := make([]byte, 100000)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, data, 0644))

	sum, err := HashFile(path)
	require.NoError(t, err)
	want := blake3.Sum256(data)
	require.Equal(t, want[:], sum)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
