// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package util provides foundational utilities for the modtool CLI.
//
// This is a leaf package: everything here depends only on the Go standard
// library, so any internal package may import it without cycles.
//
// # Overview
//
//   - Ring Buffer: bounded, thread-safe history collection (monitor probes)
//   - Command Errors: rich error wrapping for child process failures
//   - Goroutine Safety: panic recovery for background goroutines
//   - Deadlines: minimum/default enforcement for configured timeouts
//   - Environment Variables: typed child-environment assembly
//
// # Thread Safety
//
// [RingBuffer] is fully thread-safe. [EnvVars] is not; build it on one
// goroutine and treat it as read-only afterwards. Everything else is
// stateless.
package util
