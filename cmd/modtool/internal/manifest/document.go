// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package manifest maintains the structure/layout manifest document on disk.
//
// The document is a diagnostic artifact, not a source of truth: any read,
// parse, or validation failure regenerates it from defaults. Version stamps
// are human-sortable timestamps and strictly monotonic within one registry.
package manifest

import (
	"github.com/go-playground/validator/v10"
)

// VersionLayout is the time layout for manifest version stamps. The format
// sorts lexicographically in chronological order.
const VersionLayout = "2006-01-02T15:04:05.000"

// DefaultProject is the project name stamped into regenerated documents.
const DefaultProject = "MOD Tool Control Center"

// =============================================================================
// SHARED VALIDATOR INSTANCE
// =============================================================================

// documentValidate is the validator instance for manifest documents.
var documentValidate *validator.Validate

func init() {
	documentValidate = validator.New()
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Section describes one UI zone for accessibility and layout docs.
type Section struct {
	ID                 string `json:"id" validate:"required"`
	Title              string `json:"title" validate:"required"`
	Purpose            string `json:"purpose" validate:"required"`
	AccessibilityLabel string `json:"accessibility_label" validate:"required"`
}

// LayoutManifest describes the visible layout and theming.
type LayoutManifest struct {
	Version  string    `json:"version" validate:"required"`
	Sections []Section `json:"sections" validate:"required,min=1,dive"`
	Themes   []string  `json:"themes" validate:"required,min=1,dive,required"`
}

// StructureManifest describes the project's automation and health surface.
type StructureManifest struct {
	Version         string            `json:"version" validate:"required"`
	Project         string            `json:"project" validate:"required"`
	AutomationSteps []string          `json:"automation_steps" validate:"required,min=1"`
	HealthChecks    []string          `json:"health_checks" validate:"required,min=1"`
	Accessibility   map[string]string `json:"accessibility"`
}

// Document is the full on-disk manifest.
//
// # Description
//
// Serialized as a two-key JSON object (`structure_manifest`,
// `layout_manifest`), indented for human diffing, UTF-8, stable key order.
// A document must pass Validate to count as present; anything less is
// regenerated wholesale.
//
// # Validation
//
// Uses go-playground/validator:
//   - both Version fields: required
//   - Project: required
//   - Sections: at least one, every field of every section non-empty
//   - Themes: at least one, none empty
//   - AutomationSteps, HealthChecks: at least one entry each
type Document struct {
	Structure StructureManifest `json:"structure_manifest"`
	Layout    LayoutManifest    `json:"layout_manifest"`
}

// Validate checks the document against the structural rules above.
func (d *Document) Validate() error {
	return documentValidate.Struct(d)
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultDocument builds the baseline manifest for the dashboard grid,
// stamping both manifests with the given version.
func DefaultDocument(version string) Document {
	return Document{
		Structure: StructureManifest{
			Version: version,
			Project: DefaultProject,
			AutomationSteps: []string{
				"Verify virtual environment",
				"Install dependencies automatically",
				"Repair required directories",
				"Run syntax and format checks",
				"Run quick tests",
				"Load plugins",
			},
			HealthChecks: []string{
				"Required directories present",
				"Code compiles",
				"Tests green or skipped",
				"Manifest present",
			},
			Accessibility: map[string]string{
				"screenreader": "Clear labels and status text for every zone",
				"kontrast":     "Multiple color themes including high contrast",
				"tastatur":     "Tab-order navigation from top to bottom",
			},
		},
		Layout: LayoutManifest{
			Version: version,
			Sections: []Section{
				{
					ID:                 "header",
					Title:              "Control center",
					Purpose:            "Click & start, quick check, theme selection",
					AccessibilityLabel: "Top bar with status displays and start buttons",
				},
				{
					ID:                 "workspace",
					Title:              "Workspace",
					Purpose:            "Four flexibly assignable quadrants",
					AccessibilityLabel: "Main area with four module panels",
				},
				{
					ID:                 "footer",
					Title:              "Footer",
					Purpose:            "Debugging, logging, hints",
					AccessibilityLabel: "Bottom area with log and help text",
				},
			},
			Themes: []string{"Light", "Dark", "High Contrast", "Blue", "Forest"},
		},
	}
}
