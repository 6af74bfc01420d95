// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hengband/savekeep/pkg/errdefs"
)

type Exporter interface {
	Export()
}

const (
	loadDurationKey     = "load_duration_seconds"
	loadCountKey        = "load_count"
	saveCountKey        = "save_count"
	floorTransitionsKey = "floor_transitions"
	floorIOKey          = "floor_io"
	namespace           = "savekeep"
)

var (
	loadDuration = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "savefile",
			Name:      loadDurationKey,
			Help:      "The total duration of loading save files. Broken down by result.",
		},
		[]string{"result"},
	)

	loadCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "savefile",
			Name:      loadCountKey,
			Help:      "The total loading times. Broken down by result.",
		},
		[]string{"result"},
	)

	saveCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "savefile",
			Name:      saveCountKey,
			Help:      "The total saving times. Broken down by result.",
		},
		[]string{"result"},
	)

	floorTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "floor",
			Name:      floorTransitionsKey,
			Help:      "The total floor state transitions. Broken down by target state.",
		},
		[]string{"state"},
	)

	floorIO = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "floor",
			Name:      floorIOKey,
			Help:      "The total floor file reads and writes. Broken down by operation and result.",
		},
		[]string{"op", "result"},
	)
)

var register sync.Once
var Registry *prometheus.Registry
var exporter Exporter

func sinceInSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// Register registers metrics. This is always called only once.
func Register(exp Exporter) {
	register.Do(func() {
		Registry = prometheus.NewRegistry()
		Registry.MustRegister(loadDuration, loadCount, saveCount, floorTransitions, floorIO)
		exporter = exp
	})
}

// Export writes the registry through the registered exporter, if any.
func Export() {
	if exporter != nil {
		exporter.Export()
	}
}

// Result labels an outcome by its error kind.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return errdefs.KindOf(err).String()
}

func LoadDuration(err error, start time.Time) {
	loadDuration.WithLabelValues(Result(err)).Add(sinceInSeconds(start))
}

func LoadCount(err error) {
	loadCount.WithLabelValues(Result(err)).Inc()
}

func SaveCount(err error) {
	saveCount.WithLabelValues(Result(err)).Inc()
}

func FloorTransition(state string) {
	floorTransitions.WithLabelValues(state).Inc()
}

func FloorWrite(err error) {
	floorIO.WithLabelValues("write", Result(err)).Inc()
}

func FloorRead(err error) {
	floorIO.WithLabelValues("read", Result(err)).Inc()
}
