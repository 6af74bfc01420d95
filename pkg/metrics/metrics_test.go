// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hengband/savekeep/pkg/errdefs"
)

func TestResult(t *testing.T) {
	require.Equal(t, "ok", Result(nil))
	require.Equal(t, "corrupt-save", Result(errors.Wrap(errdefs.ErrCorruptSave, "trailer")))
	require.Equal(t, "unknown", Result(errors.New("disk full")))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(floorIO.WithLabelValues("write", "ok"))
	FloorWrite(nil)
	require.Equal(t, before+1, testutil.ToFloat64(floorIO.WithLabelValues("write", "ok")))

	before = testutil.ToFloat64(loadCount.WithLabelValues("overflow-limit"))
	LoadCount(errdefs.Overflow("messages", 3, 2))
	require.Equal(t, before+1, testutil.ToFloat64(loadCount.WithLabelValues("overflow-limit")))

	LoadDuration(nil, time.Now())
	Export()
}
