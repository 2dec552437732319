// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config defines and loads the modtool.yaml configuration.
//
// Every field has a default; a missing file is written out commented on
// first run so users can discover the knobs. Relative paths resolve
// against project_root.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
)

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
}

// Config is the full modtool.yaml schema.
//
// # Description
//
// Paths are relative to ProjectRoot unless absolute. The zero value is
// not usable; start from DefaultConfig or Load.
//
// # Validation
//
// Intervals, deadlines, and the history size must be positive; the
// interpreter, directories, and path lists must be non-empty.
type Config struct {
	// ProjectRoot anchors every relative path.
	ProjectRoot string `mapstructure:"project_root" yaml:"project_root" validate:"required"`

	// VenvDir is the virtual environment root.
	VenvDir string `mapstructure:"venv_dir" yaml:"venv_dir" validate:"required"`

	// RequirementsFile is the dependency manifest.
	RequirementsFile string `mapstructure:"requirements_file" yaml:"requirements_file" validate:"required"`

	// ManifestFile is the UI structure/layout manifest.
	ManifestFile string `mapstructure:"manifest_file" yaml:"manifest_file" validate:"required"`

	// SourceDir is the package tree checked by the syntax gate.
	SourceDir string `mapstructure:"source_dir" yaml:"source_dir" validate:"required"`

	// TestsDir is the test discovery root.
	TestsDir string `mapstructure:"tests_dir" yaml:"tests_dir" validate:"required"`

	// RequiredPaths are directories the self-check keeps alive.
	RequiredPaths []string `mapstructure:"required_paths" yaml:"required_paths" validate:"required,min=1,dive,required"`

	// BaseInterpreter builds environments and runs gates when the
	// environment interpreter is missing.
	BaseInterpreter string `mapstructure:"base_interpreter" yaml:"base_interpreter" validate:"required"`

	// Entrypoint is the argument list relaunched inside the environment.
	Entrypoint []string `mapstructure:"entrypoint" yaml:"entrypoint" validate:"required,min=1,dive,required"`

	// AutoRelaunch enables the in-environment restart after bootstrap.
	AutoRelaunch bool `mapstructure:"auto_relaunch" yaml:"auto_relaunch"`

	// Monitor configures the background health monitor.
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`

	// Deadlines configures the per-command budgets.
	Deadlines DeadlineConfig `mapstructure:"deadlines" yaml:"deadlines"`

	// Logging configures the structured logger.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// MonitorConfig tunes the background health monitor.
type MonitorConfig struct {
	// IntervalSeconds is the wait between probes.
	IntervalSeconds int `mapstructure:"interval_seconds" yaml:"interval_seconds" validate:"gt=0"`

	// StopTimeoutSeconds bounds the shutdown wait for the probe loop.
	StopTimeoutSeconds int `mapstructure:"stop_timeout_seconds" yaml:"stop_timeout_seconds" validate:"gt=0"`

	// HistorySize bounds the retained probe results.
	HistorySize int `mapstructure:"history_size" yaml:"history_size" validate:"gt=0"`
}

// Interval returns the probe interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// StopTimeout returns the shutdown wait as a duration.
func (m MonitorConfig) StopTimeout() time.Duration {
	return time.Duration(m.StopTimeoutSeconds) * time.Second
}

// DeadlineConfig tunes the child process budgets, in seconds.
type DeadlineConfig struct {
	// ProvisionSeconds bounds each environment creation command.
	ProvisionSeconds int `mapstructure:"provision_seconds" yaml:"provision_seconds" validate:"gt=0"`

	// InstallSeconds bounds one dependency installation pass.
	InstallSeconds int `mapstructure:"install_seconds" yaml:"install_seconds" validate:"gt=0"`

	// TestSeconds bounds one test suite or compile run.
	TestSeconds int `mapstructure:"test_seconds" yaml:"test_seconds" validate:"gt=0"`
}

// ProvisionTimeout returns the environment creation budget.
func (d DeadlineConfig) ProvisionTimeout() time.Duration {
	return time.Duration(d.ProvisionSeconds) * time.Second
}

// LoggingConfig tunes the structured logger. An unknown level falls back
// to info rather than failing validation.
type LoggingConfig struct {
	// Level is the minimum severity: debug, info, warn, or error.
	Level string `mapstructure:"level" yaml:"level"`

	// Dir enables file logging when non-empty.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// JSON switches the stderr handler to JSON lines.
	JSON bool `mapstructure:"json" yaml:"json"`
}

// DefaultConfig returns the fully-populated default configuration.
// defaultConfigYAML is the single source of defaults; this decodes it so
// the documented template and the in-memory defaults cannot drift apart.
func DefaultConfig() Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: default template is invalid: %v", err))
	}
	return cfg
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CommandDeadlines converts the configured second counts into the
// process-layer deadline set.
func (c Config) CommandDeadlines() util.Deadlines {
	return util.Deadlines{
		Tests:   time.Duration(c.Deadlines.TestSeconds) * time.Second,
		Install: time.Duration(c.Deadlines.InstallSeconds) * time.Second,
	}.Validated()
}

// VenvPath returns the environment root resolved against ProjectRoot.
func (c Config) VenvPath() string {
	return c.resolve(c.VenvDir)
}

// RequirementsPath returns the dependency manifest path resolved against
// ProjectRoot.
func (c Config) RequirementsPath() string {
	return c.resolve(c.RequirementsFile)
}

// ManifestPath returns the UI manifest path resolved against ProjectRoot.
func (c Config) ManifestPath() string {
	return c.resolve(c.ManifestFile)
}

// LogDir returns the log directory resolved against ProjectRoot, or ""
// when file logging is disabled.
func (c Config) LogDir() string {
	if c.Logging.Dir == "" {
		return ""
	}
	return c.resolve(c.Logging.Dir)
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectRoot, path)
}
