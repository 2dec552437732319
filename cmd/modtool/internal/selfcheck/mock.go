// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selfcheck

import (
	"context"
	"sync"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
)

// MockChecker is a test double for Checker. Set the function fields to
// script behavior; calls panic when their field is unset.
type MockChecker struct {
	FullCheckFunc   func(ctx context.Context, descriptor envprov.Descriptor) *Report
	QuickHealthFunc func() (string, []string)

	mu    sync.Mutex
	Calls []string
}

// record appends a call name under the lock.
func (m *MockChecker) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// FullCheck delegates to FullCheckFunc.
func (m *MockChecker) FullCheck(ctx context.Context, descriptor envprov.Descriptor) *Report {
	m.record("FullCheck")
	if m.FullCheckFunc == nil {
		panic("MockChecker.FullCheckFunc not set")
	}
	return m.FullCheckFunc(ctx, descriptor)
}

// QuickHealth delegates to QuickHealthFunc.
func (m *MockChecker) QuickHealth() (string, []string) {
	m.record("QuickHealth")
	if m.QuickHealthFunc == nil {
		panic("MockChecker.QuickHealthFunc not set")
	}
	return m.QuickHealthFunc()
}

// GetCalls returns a copy of the recorded call names.
func (m *MockChecker) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// Reset clears recorded calls.
func (m *MockChecker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var _ Checker = (*MockChecker)(nil)
