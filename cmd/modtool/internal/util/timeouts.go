// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import "time"

// =============================================================================
// CONSTANTS
// =============================================================================

// Timeout floors and defaults. The floors keep a misconfigured zero from
// turning into an infinite hang; the defaults match the shipped
// modtool.yaml.
const (
	// MinCommandTimeout is the absolute minimum for any child process run.
	MinCommandTimeout = 1 * time.Second

	// MinMonitorInterval is the absolute minimum between liveness probes.
	MinMonitorInterval = 100 * time.Millisecond

	// DefaultCommandTimeout bounds short commands such as syntax checks
	// and version probes.
	DefaultCommandTimeout = 30 * time.Second

	// DefaultTestTimeout bounds one test suite run.
	DefaultTestTimeout = 2 * time.Minute

	// DefaultInstallTimeout bounds one dependency installation pass.
	DefaultInstallTimeout = 10 * time.Minute

	// DefaultMonitorInterval is the pause between liveness probes.
	DefaultMonitorInterval = 5 * time.Second

	// DefaultMonitorStopTimeout bounds the wait for the monitor goroutine
	// to acknowledge a stop request.
	DefaultMonitorStopTimeout = 1 * time.Second
)

// =============================================================================
// DEADLINES
// =============================================================================

// Deadlines holds the per-operation time budgets used across the bootstrap
// pipeline. Use Validated before handing values to runners.
type Deadlines struct {
	// Command bounds short one-shot commands (syntax check, pip probe).
	Command time.Duration

	// Tests bounds one full test suite run.
	Tests time.Duration

	// Install bounds one dependency installation pass.
	Install time.Duration
}

// Validated returns a copy with every budget raised to at least
// MinCommandTimeout and zeroes replaced by the defaults.
func (d Deadlines) Validated() Deadlines {
	return Deadlines{
		Command: EnforceMinTimeout(EnforceDefaultTimeout(d.Command, DefaultCommandTimeout), MinCommandTimeout),
		Tests:   EnforceMinTimeout(EnforceDefaultTimeout(d.Tests, DefaultTestTimeout), MinCommandTimeout),
		Install: EnforceMinTimeout(EnforceDefaultTimeout(d.Install, DefaultInstallTimeout), MinCommandTimeout),
	}
}

// DefaultDeadlines returns the shipped time budgets.
func DefaultDeadlines() Deadlines {
	return Deadlines{
		Command: DefaultCommandTimeout,
		Tests:   DefaultTestTimeout,
		Install: DefaultInstallTimeout,
	}
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// EnforceMinTimeout returns at least the minimum timeout. Zero, negative,
// and sub-minimum values all become the minimum.
func EnforceMinTimeout(requested, minimum time.Duration) time.Duration {
	if requested <= 0 || requested < minimum {
		return minimum
	}
	return requested
}

// EnforceDefaultTimeout returns the default when requested is zero or
// negative, otherwise the requested value unchanged.
func EnforceDefaultTimeout(requested, defaultVal time.Duration) time.Duration {
	if requested <= 0 {
		return defaultVal
	}
	return requested
}
