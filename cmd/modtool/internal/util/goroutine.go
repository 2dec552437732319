// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import "runtime/debug"

// PanicReport captures a recovered panic with its stack trace.
type PanicReport struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the full stack trace at panic time.
	Stack string
}

// SafeGo runs fn in a goroutine with panic recovery. A panicking fn is
// reported to onPanic instead of crashing the process; the background
// monitor must never take the CLI down with it.
//
// onPanic may be nil to recover silently. It runs synchronously in the
// recovered goroutine and must not itself panic.
func SafeGo(fn func(), onPanic func(PanicReport)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if onPanic != nil {
					onPanic(PanicReport{
						Value: r,
						Stack: string(debug.Stack()),
					})
				}
			}
		}()
		fn()
	}()
}
