// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig_Valid verifies the shipped defaults pass validation.
func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.VenvDir != ".venv" {
		t.Errorf("VenvDir = %q, want %q", cfg.VenvDir, ".venv")
	}
	if cfg.BaseInterpreter != "python3" {
		t.Errorf("BaseInterpreter = %q, want %q", cfg.BaseInterpreter, "python3")
	}
	if !cfg.AutoRelaunch {
		t.Error("AutoRelaunch = false, want true")
	}
	if got := len(cfg.RequiredPaths); got != 3 {
		t.Errorf("len(RequiredPaths) = %d, want 3", got)
	}
}

// TestConfig_Validate verifies rejection of broken values.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "zero monitor interval",
			mutate: func(c *Config) { c.Monitor.IntervalSeconds = 0 },
		},
		{
			name:   "negative history size",
			mutate: func(c *Config) { c.Monitor.HistorySize = -1 },
		},
		{
			name:   "zero provision deadline",
			mutate: func(c *Config) { c.Deadlines.ProvisionSeconds = 0 },
		},
		{
			name:   "empty interpreter",
			mutate: func(c *Config) { c.BaseInterpreter = "" },
		},
		{
			name:   "empty tests dir",
			mutate: func(c *Config) { c.TestsDir = "" },
		},
		{
			name:   "no required paths",
			mutate: func(c *Config) { c.RequiredPaths = nil },
		},
		{
			name:   "blank required path entry",
			mutate: func(c *Config) { c.RequiredPaths = []string{"logs", ""} },
		},
		{
			name:   "empty entrypoint",
			mutate: func(c *Config) { c.Entrypoint = []string{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Validate() = %v, want message containing %q",
					err, "invalid configuration")
			}
		})
	}
}

// TestConfig_PathResolution verifies relative paths join the project root
// while absolute paths pass through.
func TestConfig_PathResolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProjectRoot = filepath.Join("/srv", "modtool")

	if got, want := cfg.VenvPath(), filepath.Join("/srv", "modtool", ".venv"); got != want {
		t.Errorf("VenvPath() = %q, want %q", got, want)
	}
	if got, want := cfg.RequirementsPath(), filepath.Join("/srv", "modtool", "requirements.txt"); got != want {
		t.Errorf("RequirementsPath() = %q, want %q", got, want)
	}
	if got, want := cfg.ManifestPath(), filepath.Join("/srv", "modtool", "manifest.json"); got != want {
		t.Errorf("ManifestPath() = %q, want %q", got, want)
	}
	if got, want := cfg.LogDir(), filepath.Join("/srv", "modtool", "logs"); got != want {
		t.Errorf("LogDir() = %q, want %q", got, want)
	}

	abs := filepath.Join("/opt", "envs", "shared")
	cfg.VenvDir = abs
	if got := cfg.VenvPath(); got != abs {
		t.Errorf("VenvPath() with absolute dir = %q, want %q", got, abs)
	}

	cfg.Logging.Dir = ""
	if got := cfg.LogDir(); got != "" {
		t.Errorf("LogDir() with empty dir = %q, want empty", got)
	}
}

// TestConfig_CommandDeadlines verifies the translation into the runner
// deadline bundle.
func TestConfig_CommandDeadlines(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadlines.TestSeconds = 45
	cfg.Deadlines.InstallSeconds = 300

	d := cfg.CommandDeadlines()
	if d.Tests != 45*time.Second {
		t.Errorf("Tests = %v, want 45s", d.Tests)
	}
	if d.Install != 300*time.Second {
		t.Errorf("Install = %v, want 5m", d.Install)
	}
	if d.Command <= 0 {
		t.Errorf("Command = %v, want a positive default", d.Command)
	}
}

// TestMonitorConfig_Durations verifies second counts become durations.
func TestMonitorConfig_Durations(t *testing.T) {
	mc := MonitorConfig{IntervalSeconds: 7, StopTimeoutSeconds: 2, HistorySize: 16}

	if got := mc.Interval(); got != 7*time.Second {
		t.Errorf("Interval() = %v, want 7s", got)
	}
	if got := mc.StopTimeout(); got != 2*time.Second {
		t.Errorf("StopTimeout() = %v, want 2s", got)
	}
}

// TestDeadlineConfig_ProvisionTimeout verifies the provisioning budget.
func TestDeadlineConfig_ProvisionTimeout(t *testing.T) {
	dc := DeadlineConfig{ProvisionSeconds: 90, InstallSeconds: 600, TestSeconds: 30}

	if got := dc.ProvisionTimeout(); got != 90*time.Second {
		t.Errorf("ProvisionTimeout() = %v, want 90s", got)
	}
}
