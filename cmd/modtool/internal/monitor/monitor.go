// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package monitor runs the periodic background health probe.
//
// The monitor is the only long-lived concurrent unit in the process. It
// keeps a bounded overwrite-oldest history of probe results; a probe that
// has started always runs to completion, and stop requests are observed
// only between probes. A panicking probe ends the loop without taking the
// process down.
package monitor

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
)

// DefaultHistorySize bounds the probe history when no size is configured.
const DefaultHistorySize = 32

var (
	// ErrNilProbe is returned when the probe function is nil.
	ErrNilProbe = errors.New("monitor probe must not be nil")

	// ErrNonPositiveInterval is returned when the probe interval is zero
	// or negative.
	ErrNonPositiveInterval = errors.New("monitor interval must be positive")
)

// ProbeFunc performs one health probe and returns its one-line summary
// plus the paths it repaired, if any.
type ProbeFunc func() (summary string, repaired []string)

// ProbeResult is one completed probe.
type ProbeResult struct {
	// Sequence numbers probes from 1, monotonic across restarts.
	Sequence uint64

	// Timestamp is when the probe completed.
	Timestamp time.Time

	// Summary is the probe's one-line outcome.
	Summary string

	// Repaired lists the paths the probe recreated, nil when none.
	Repaired []string
}

// HealthMonitor probes on a fixed interval between Start and Stop.
//
// # Description
//
// The monitor is Idle or Running, tracked by goroutine liveness: a done
// channel observed with a non-blocking select. Start and Stop must be
// called from the orchestrating goroutine; Recent and ProbeCount may be
// read from anywhere.
//
// # Thread Safety
//
// Start and Stop are not safe for concurrent use with each other. All
// read methods are.
type HealthMonitor struct {
	probe    ProbeFunc
	log      func(string)
	interval time.Duration
	history  *util.RingBuffer[ProbeResult]
	count    atomic.Uint64

	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// New creates an Idle monitor. The probe must be non-nil and the interval
// positive; a nil log sink discards, a non-positive history size falls
// back to DefaultHistorySize.
func New(probe ProbeFunc, log func(string), interval time.Duration, historySize int) (*HealthMonitor, error) {
	if probe == nil {
		return nil, ErrNilProbe
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPositiveInterval, interval)
	}
	if log == nil {
		log = func(string) {}
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &HealthMonitor{
		probe:    probe,
		log:      log,
		interval: interval,
		history:  util.NewRingBuffer[ProbeResult](historySize),
	}, nil
}

// Start spawns the probe loop. Returns false when already Running.
func (m *HealthMonitor) Start() bool {
	if m.running() {
		return false
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.stopped = false

	stop, done := m.stop, m.done
	util.SafeGo(
		func() { m.loop(stop, done) },
		func(report util.PanicReport) {
			m.log(fmt.Sprintf("background monitor: probe panicked: %v", report.Value))
		},
	)
	return true
}

// Stop signals the loop and waits up to timeout for it to exit. Returns
// false when the monitor was never started or the wait expired; stopping
// an already-stopped monitor returns true immediately.
func (m *HealthMonitor) Stop(timeout time.Duration) bool {
	if m.done == nil {
		return false
	}
	if !m.stopped {
		m.stopped = true
		close(m.stop)
	}
	select {
	case <-m.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Recent returns the retained probe history, oldest first.
func (m *HealthMonitor) Recent() []ProbeResult {
	return m.history.Items()
}

// ProbeCount returns how many probes have completed since creation.
func (m *HealthMonitor) ProbeCount() uint64 {
	return m.count.Load()
}

// running reports goroutine liveness without blocking.
func (m *HealthMonitor) running() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// loop waits one interval, probes, and repeats. A stop signal observed
// during the wait exits with no final probe; done closes even when the
// probe panics.
func (m *HealthMonitor) loop(stop, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		result := m.runProbe()
		m.history.Push(result)
		m.log("background monitor: " + result.Summary)

		timer.Reset(m.interval)
	}
}

func (m *HealthMonitor) runProbe() ProbeResult {
	summary, repaired := m.probe()
	return ProbeResult{
		Sequence:  m.count.Add(1),
		Timestamp: time.Now(),
		Summary:   summary,
		Repaired:  repaired,
	}
}
