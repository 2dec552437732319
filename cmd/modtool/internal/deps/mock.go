// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package deps

import (
	"context"
	"sync"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
)

// =============================================================================
// MOCK IMPLEMENTATION
// =============================================================================

// MockInstaller is a test double for Installer.
type MockInstaller struct {
	// InstallFunc is called by Install. Panics if nil.
	InstallFunc func(ctx context.Context, descriptor envprov.Descriptor, manifestPath string) Outcome

	// ProbeFunc is called by Probe. Panics if nil.
	ProbeFunc func(ctx context.Context, descriptor envprov.Descriptor) (board.Status, string)

	// Calls records the method name of each call in order.
	Calls []string

	mu sync.Mutex
}

// Install records the call and delegates to InstallFunc.
func (m *MockInstaller) Install(ctx context.Context, descriptor envprov.Descriptor, manifestPath string) Outcome {
	m.record("Install")
	if m.InstallFunc == nil {
		panic("MockInstaller.InstallFunc not set")
	}
	return m.InstallFunc(ctx, descriptor, manifestPath)
}

// Probe records the call and delegates to ProbeFunc.
func (m *MockInstaller) Probe(ctx context.Context, descriptor envprov.Descriptor) (board.Status, string) {
	m.record("Probe")
	if m.ProbeFunc == nil {
		panic("MockInstaller.ProbeFunc not set")
	}
	return m.ProbeFunc(ctx, descriptor)
}

// Reset clears recorded calls.
func (m *MockInstaller) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

func (m *MockInstaller) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, method)
}

// Compile-time interface compliance check.
var _ Installer = (*MockInstaller)(nil)
