// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Unit tests for the CLI plumbing that runs before any collaborator is
// built. Nothing here spawns a process or touches a real environment.

package main

import (
	"path/filepath"
	"testing"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/pkg/logging"
	"github.com/AleutianAI/modtool/pkg/ux"
)

// resetFlags restores the mutable flag globals after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	prevConfig, prevRoot := flagConfigPath, flagProjectRoot
	t.Cleanup(func() {
		flagConfigPath = prevConfig
		flagProjectRoot = prevRoot
	})
}

func TestConfigPath(t *testing.T) {
	resetFlags(t)

	tests := []struct {
		name       string
		flagConfig string
		envConfig  string
		flagRoot   string
		want       string
	}{
		{
			name:       "explicit flag wins over everything",
			flagConfig: "/etc/modtool/custom.yaml",
			envConfig:  "/ignored.yaml",
			flagRoot:   "/srv/app",
			want:       "/etc/modtool/custom.yaml",
		},
		{
			name:      "environment variable when no flag",
			envConfig: "/opt/modtool.yaml",
			flagRoot:  "/srv/app",
			want:      "/opt/modtool.yaml",
		},
		{
			name:     "default file under project root",
			flagRoot: "/srv/app",
			want:     filepath.Join("/srv/app", "modtool.yaml"),
		},
		{
			name: "default file in working directory",
			want: "modtool.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagConfigPath = tt.flagConfig
			flagProjectRoot = tt.flagRoot
			t.Setenv("MOD_TOOL_CONFIG", tt.envConfig)

			if got := configPath(); got != tt.want {
				t.Errorf("configPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		rollup board.Status
		want   int
	}{
		{board.StatusOK, CLIExitSuccess},
		{board.StatusWarning, CLIExitSuccess},
		{board.StatusError, CLIExitError},
	}

	for _, tt := range tests {
		t.Run(string(tt.rollup), func(t *testing.T) {
			if got := exitCodeFor(tt.rollup); got != tt.want {
				t.Errorf("exitCodeFor(%s) = %d, want %d", tt.rollup, got, tt.want)
			}
		})
	}
}

// TestNewFeedback_LogsEveryLine verifies the sink mirrors each feedback
// line to the structured log.
func TestNewFeedback_LogsEveryLine(t *testing.T) {
	ux.SetPlain(true)
	t.Cleanup(func() { ux.SetPlain(false) })

	exporter := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter})

	feedback := newFeedback(logger)
	feedback("Startup: automatic sequence started.")
	feedback("Virtual environment: created – fresh environment")

	entries := exporter.Entries()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	for i, entry := range entries {
		if entry.Message != "feedback" {
			t.Errorf("entry %d message = %q, want %q", i, entry.Message, "feedback")
		}
	}
	if got := entries[0].Attrs["message"]; got != "Startup: automatic sequence started." {
		t.Errorf("first feedback line = %v, want the startup line", got)
	}
}
