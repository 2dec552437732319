// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package procrun

import (
	"context"
	"sync"
)

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockRunner is a test double for Runner.
//
// Configure the mock by setting function fields before use. If a function
// field is nil and the corresponding method is called, it will panic.
//
// # Examples
//
//	mock := &procrun.MockRunner{
//	    RunFunc: func(ctx context.Context, cmd procrun.Command) procrun.Result {
//	        if cmd.Args[1] == "pip" {
//	            return procrun.Result{ExitCode: 0, Stdout: "pip 24.0"}
//	        }
//	        return procrun.Result{ExitCode: 1}
//	    },
//	}
type MockRunner struct {
	// RunFunc is called when Run is invoked
	RunFunc func(ctx context.Context, cmd Command) Result

	// LaunchFunc is called when Launch is invoked
	LaunchFunc func(cmd Command) (Child, error)

	// LookPathFunc is called when LookPath is invoked
	LookPathFunc func(name string) (string, bool)

	// Calls records all method invocations for verification
	Calls []RunnerCall

	// mu protects Calls for concurrent access
	mu sync.Mutex
}

// RunnerCall records a single method invocation.
type RunnerCall struct {
	Method  string
	Command Command
	Name    string
}

// Run delegates to RunFunc and records the call.
func (m *MockRunner) Run(ctx context.Context, cmd Command) Result {
	m.mu.Lock()
	m.Calls = append(m.Calls, RunnerCall{Method: "Run", Command: cmd})
	m.mu.Unlock()
	if m.RunFunc == nil {
		panic("MockRunner.RunFunc not set")
	}
	return m.RunFunc(ctx, cmd)
}

// Launch delegates to LaunchFunc and records the call.
func (m *MockRunner) Launch(cmd Command) (Child, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RunnerCall{Method: "Launch", Command: cmd})
	m.mu.Unlock()
	if m.LaunchFunc == nil {
		panic("MockRunner.LaunchFunc not set")
	}
	return m.LaunchFunc(cmd)
}

// LookPath delegates to LookPathFunc and records the call.
func (m *MockRunner) LookPath(name string) (string, bool) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RunnerCall{Method: "LookPath", Name: name})
	m.mu.Unlock()
	if m.LookPathFunc == nil {
		panic("MockRunner.LookPathFunc not set")
	}
	return m.LookPathFunc(name)
}

// Reset clears all recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// GetCalls returns a copy of all recorded calls.
func (m *MockRunner) GetCalls() []RunnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]RunnerCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// MockChild is a test double for Child.
type MockChild struct {
	// PidValue is returned by Pid.
	PidValue int

	// WaitFunc is called when Wait is invoked; nil returns WaitCode.
	WaitFunc func() int

	// WaitCode is returned by Wait when WaitFunc is nil.
	WaitCode int
}

// Pid returns PidValue.
func (m *MockChild) Pid() int { return m.PidValue }

// Wait delegates to WaitFunc or returns WaitCode.
func (m *MockChild) Wait() int {
	if m.WaitFunc != nil {
		return m.WaitFunc()
	}
	return m.WaitCode
}

// Compile-time interface compliance check.
var (
	_ Runner = (*MockRunner)(nil)
	_ Child  = (*MockChild)(nil)
)
