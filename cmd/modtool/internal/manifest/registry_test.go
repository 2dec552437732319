// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func tempRegistry(t *testing.T) *DefaultRegistry {
	t.Helper()
	return NewDefaultRegistry(filepath.Join(t.TempDir(), "manifest.json"), nil)
}

// createdStamp extracts the version stamp from a created Result detail.
func createdStamp(t *testing.T, result Result) string {
	t.Helper()
	require.Equal(t, StatusCreated, result.Status)
	stamp := strings.TrimPrefix(result.Detail, "regenerated at version ")
	require.NotEqual(t, result.Detail, stamp, "detail must carry the new stamp")
	return stamp
}

// =============================================================================
// DOCUMENT TESTS
// =============================================================================

func TestDefaultDocument_Validates(t *testing.T) {
	doc := DefaultDocument("2025-01-01T00:00:00.000")
	require.NoError(t, doc.Validate())

	assert.Equal(t, DefaultProject, doc.Structure.Project)
	assert.Len(t, doc.Structure.AutomationSteps, 6)
	assert.Len(t, doc.Structure.HealthChecks, 4)
	assert.Len(t, doc.Layout.Sections, 3)
	assert.Contains(t, doc.Layout.Themes, "High Contrast")
	assert.Equal(t, doc.Structure.Version, doc.Layout.Version)
}

func TestDocument_ValidationRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing structure version", func(d *Document) { d.Structure.Version = "" }},
		{"missing layout version", func(d *Document) { d.Layout.Version = "" }},
		{"missing project", func(d *Document) { d.Structure.Project = "" }},
		{"no sections", func(d *Document) { d.Layout.Sections = nil }},
		{"section without accessibility label", func(d *Document) { d.Layout.Sections[0].AccessibilityLabel = "" }},
		{"no themes", func(d *Document) { d.Layout.Themes = nil }},
		{"blank theme", func(d *Document) { d.Layout.Themes = []string{""} }},
		{"no automation steps", func(d *Document) { d.Structure.AutomationSteps = nil }},
		{"no health checks", func(d *Document) { d.Structure.HealthChecks = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := DefaultDocument("1.0")
			tt.mutate(&doc)
			assert.Error(t, doc.Validate())
		})
	}
}

// =============================================================================
// ENSURE TESTS
// =============================================================================

func TestEnsure_CreatesWhenMissing(t *testing.T) {
	registry := tempRegistry(t)

	result := registry.Ensure(context.Background())

	stamp := createdStamp(t, result)
	doc, err := registry.Read()
	require.NoError(t, err)
	assert.Equal(t, stamp, doc.Structure.Version)
	assert.Equal(t, stamp, doc.Layout.Version)
}

func TestEnsure_RoundTrip(t *testing.T) {
	registry := tempRegistry(t)

	stamp := createdStamp(t, registry.Ensure(context.Background()))
	second := registry.Ensure(context.Background())

	assert.Equal(t, StatusPresent, second.Status)
	assert.Equal(t, "structure v"+stamp+", layout v"+stamp, second.Detail)
}

func TestEnsure_HandwrittenDocumentIsPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	doc := DefaultDocument("9.9")
	doc.Layout.Version = "8.8"
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o640))

	registry := NewDefaultRegistry(path, nil)
	result := registry.Ensure(context.Background())

	assert.Equal(t, StatusPresent, result.Status)
	assert.Equal(t, "structure v9.9, layout v8.8", result.Detail)
}

func TestEnsure_CorruptionRegenerates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{defekt}"},
		{"truncated json", `{"structure_manifest": {"version": "1.`},
		{"versions only", `{"structure_manifest": {"version": "2.0"}, "layout_manifest": {"version": "2.1"}}`},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := tempRegistry(t)
			first := createdStamp(t, registry.Ensure(context.Background()))

			require.NoError(t, os.WriteFile(registry.path, []byte(tt.content), 0o640))
			second := createdStamp(t, registry.Ensure(context.Background()))

			assert.Greater(t, second, first, "regenerated stamp must be strictly newer")
			_, err := registry.Read()
			assert.NoError(t, err, "regenerated document must be valid")
		})
	}
}

func TestEnsure_Concurrent(t *testing.T) {
	registry := tempRegistry(t)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = registry.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Contains(t, []Status{StatusPresent, StatusCreated}, result.Status)
	}
	_, err := registry.Read()
	assert.NoError(t, err)
}

// =============================================================================
// VERSION TESTS
// =============================================================================

func TestVersions(t *testing.T) {
	registry := tempRegistry(t)

	_, err := registry.Versions()
	require.Error(t, err, "no document yet")

	stamp := createdStamp(t, registry.Ensure(context.Background()))
	versions, err := registry.Versions()
	require.NoError(t, err)
	assert.Equal(t, "structure v"+stamp+", layout v"+stamp, versions)
}

func TestNextStamp_Monotonic(t *testing.T) {
	registry := tempRegistry(t)

	previous := ""
	for i := 0; i < 5; i++ {
		stamp := registry.nextStamp()
		assert.Greater(t, stamp, previous)
		previous = stamp
	}
}

func TestWrite_IndentedStableOrder(t *testing.T) {
	registry := tempRegistry(t)
	registry.Ensure(context.Background())

	data, err := os.ReadFile(registry.path)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "{\n  \"structure_manifest\""),
		"structure manifest must come first, indented")
	assert.Less(t,
		strings.Index(content, "structure_manifest"),
		strings.Index(content, "layout_manifest"))
}

// =============================================================================
// MOCK TESTS
// =============================================================================

func TestMockRegistry(t *testing.T) {
	mock := &MockRegistry{
		EnsureFunc: func(context.Context) Result {
			return Result{Status: StatusPresent, Detail: "scripted"}
		},
		VersionsFunc: func() (string, error) {
			return "structure v1, layout v1", nil
		},
	}

	result := mock.Ensure(context.Background())
	assert.Equal(t, StatusPresent, result.Status)

	versions, err := mock.Versions()
	require.NoError(t, err)
	assert.Equal(t, "structure v1, layout v1", versions)
	assert.Equal(t, []string{"Ensure", "Versions"}, mock.Calls)

	mock.Reset()
	assert.Empty(t, mock.Calls)

	bare := &MockRegistry{}
	assert.Panics(t, func() { bare.Read() })
}
