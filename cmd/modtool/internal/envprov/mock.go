// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package envprov

import (
	"context"
	"sync"
)

// MockProvisioner is a test double for Provisioner. If EnsureFunc is nil
// and Ensure is called, it panics.
type MockProvisioner struct {
	// EnsureFunc is called when Ensure is invoked
	EnsureFunc func(ctx context.Context, rootPath string) (Outcome, error)

	// Calls records the root paths passed to Ensure
	Calls []string

	// mu protects Calls for concurrent access
	mu sync.Mutex
}

// Ensure delegates to EnsureFunc and records the call.
func (m *MockProvisioner) Ensure(ctx context.Context, rootPath string) (Outcome, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, rootPath)
	m.mu.Unlock()
	if m.EnsureFunc == nil {
		panic("MockProvisioner.EnsureFunc not set")
	}
	return m.EnsureFunc(ctx, rootPath)
}

// Reset clears all recorded calls.
func (m *MockProvisioner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var _ Provisioner = (*MockProvisioner)(nil)
