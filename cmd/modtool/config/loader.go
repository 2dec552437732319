// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFileName is the config file looked up in the working directory
// when no --config flag or MOD_TOOL_CONFIG variable is set.
const DefaultFileName = "modtool.yaml"

// EnvPrefix namespaces environment overrides; nested keys use
// underscores (MOD_TOOL_MONITOR_INTERVAL_SECONDS).
const EnvPrefix = "MOD_TOOL"

// defaultConfigYAML is the commented first-run file and the single source
// of defaults: DefaultConfig decodes it rather than re-stating the values.
const defaultConfigYAML = `# MOD Tool Control Center bootstrap configuration.
# Relative paths resolve against project_root.

project_root: "."

# Virtual environment root. Created on first start when missing.
venv_dir: ".venv"

# Dependency manifest. Absent or empty means nothing to install.
requirements_file: "requirements.txt"

# UI structure/layout manifest. Regenerated when missing or corrupt.
manifest_file: "manifest.json"

# Package tree checked by the syntax gate.
source_dir: "mod_tool"

# Test discovery root. Absent means the test gates are skipped.
tests_dir: "tests"

# Directories the self-check keeps alive.
required_paths: ["logs", "plugins", "config"]

# Interpreter used to build environments and as the gate fallback.
base_interpreter: "python3"

# Argument list relaunched inside the provisioned environment.
entrypoint: ["-m", "mod_tool"]

# Restart inside the environment after a successful bootstrap.
auto_relaunch: true

monitor:
  # Wait between background health probes.
  interval_seconds: 5
  # Shutdown wait for the probe loop.
  stop_timeout_seconds: 1
  # Retained probe results (oldest dropped first).
  history_size: 32

deadlines:
  # Budget for each environment creation command.
  provision_seconds: 120
  # Budget for one dependency installation pass.
  install_seconds: 600
  # Budget for one test suite or compile run.
  test_seconds: 30

logging:
  # Minimum severity: debug, info, warn, error.
  level: "info"
  # Log directory; empty disables file logging.
  dir: "logs"
  # Emit JSON lines on stderr instead of text.
  json: false
`

// Load reads and validates the configuration at path. An empty path
// means DefaultFileName in the working directory. A missing file is
// written out with the commented defaults first, so every run after the
// first edits a real file. Environment variables prefixed with EnvPrefix
// override file values.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("First run detected, creating the config at %s\n", path)
		if err := writeDefault(path); err != nil {
			return Config{}, err
		}
	} else if err != nil {
		return Config{}, fmt.Errorf("check config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// writeDefault creates the commented default file, including any missing
// parent directories.
func writeDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o640); err != nil {
		return fmt.Errorf("write default config %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so partial files and environment
// overrides land on a fully-populated struct.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("project_root", defaults.ProjectRoot)
	v.SetDefault("venv_dir", defaults.VenvDir)
	v.SetDefault("requirements_file", defaults.RequirementsFile)
	v.SetDefault("manifest_file", defaults.ManifestFile)
	v.SetDefault("source_dir", defaults.SourceDir)
	v.SetDefault("tests_dir", defaults.TestsDir)
	v.SetDefault("required_paths", defaults.RequiredPaths)
	v.SetDefault("base_interpreter", defaults.BaseInterpreter)
	v.SetDefault("entrypoint", defaults.Entrypoint)
	v.SetDefault("auto_relaunch", defaults.AutoRelaunch)
	v.SetDefault("monitor.interval_seconds", defaults.Monitor.IntervalSeconds)
	v.SetDefault("monitor.stop_timeout_seconds", defaults.Monitor.StopTimeoutSeconds)
	v.SetDefault("monitor.history_size", defaults.Monitor.HistorySize)
	v.SetDefault("deadlines.provision_seconds", defaults.Deadlines.ProvisionSeconds)
	v.SetDefault("deadlines.install_seconds", defaults.Deadlines.InstallSeconds)
	v.SetDefault("deadlines.test_seconds", defaults.Deadlines.TestSeconds)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.json", defaults.Logging.JSON)
}
