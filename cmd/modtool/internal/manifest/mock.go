// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package manifest

import (
	"context"
	"sync"
)

// =============================================================================
// MOCK IMPLEMENTATION
// =============================================================================

// MockRegistry is a test double for Registry.
type MockRegistry struct {
	// EnsureFunc is called by Ensure. Panics if nil.
	EnsureFunc func(ctx context.Context) Result

	// ReadFunc is called by Read. Panics if nil.
	ReadFunc func() (Document, error)

	// VersionsFunc is called by Versions. Panics if nil.
	VersionsFunc func() (string, error)

	// Calls records the method name of each call in order.
	Calls []string

	mu sync.Mutex
}

// Ensure records the call and delegates to EnsureFunc.
func (m *MockRegistry) Ensure(ctx context.Context) Result {
	m.record("Ensure")
	if m.EnsureFunc == nil {
		panic("MockRegistry.EnsureFunc not set")
	}
	return m.EnsureFunc(ctx)
}

// Read records the call and delegates to ReadFunc.
func (m *MockRegistry) Read() (Document, error) {
	m.record("Read")
	if m.ReadFunc == nil {
		panic("MockRegistry.ReadFunc not set")
	}
	return m.ReadFunc()
}

// Versions records the call and delegates to VersionsFunc.
func (m *MockRegistry) Versions() (string, error) {
	m.record("Versions")
	if m.VersionsFunc == nil {
		panic("MockRegistry.VersionsFunc not set")
	}
	return m.VersionsFunc()
}

// Reset clears recorded calls.
func (m *MockRegistry) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

func (m *MockRegistry) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, method)
}

// Compile-time interface compliance check.
var _ Registry = (*MockRegistry)(nil)
