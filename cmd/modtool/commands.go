// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/modtool/cmd/modtool/config"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/starter"
	"github.com/AleutianAI/modtool/pkg/logging"
	"github.com/AleutianAI/modtool/pkg/ux"
)

// version is stamped by the release build.
var version = "dev"

// Shared runtime state, populated once by the root PersistentPreRun for
// the commands that need a loaded configuration.
var (
	cfg          config.Config
	appLogger    *logging.Logger
	bootstrapped bool
)

// --- Global Command Variables ---
var (
	flagConfigPath  string
	flagProjectRoot string
	flagQuiet       bool
	flagJSONLogs    bool
	noRelaunch      bool

	rootCmd = &cobra.Command{
		Use:   "modtool",
		Short: "Supervisor for the MOD Tool Control Center dashboard",
		Long: `modtool prepares the dashboard's isolated Python workspace, installs
				and repairs its dependencies, runs time-bounded verification, keeps
				the structure/layout manifest healthy, and launches the dashboard
				inside the provisioned environment.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch cmd {
			case upCmd, checkCmd, manifestCmd:
				setupRuntime()
			}
		},
	}

	upCmd = &cobra.Command{
		Use:   "up [-- args...]",
		Short: "Provision, verify, and launch the dashboard in its environment",
		Run:   runUp, // Defined in run_up.go
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Run the self-check gates against the existing environment",
		Run:   runCheck, // Defined in run_check.go
	}

	manifestCmd = &cobra.Command{
		Use:   "manifest",
		Short: "Verify the structure/layout manifest, regenerating it when broken",
		Run:   runManifest, // Defined in run_manifest.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the modtool version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modtool %s\n", version)
		},
	}
)

// setupRuntime loads the configuration and builds the shared logger.
// Configuration failures are fatal; every command below this point needs
// both.
func setupRuntime() {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	ux.SetPlain(!interactive)

	loaded, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if flagProjectRoot != "" {
		loaded.ProjectRoot = flagProjectRoot
	}
	cfg = loaded

	appLogger = logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		Dir:     cfg.LogDir(),
		Service: "modtool",
		JSON:    flagJSONLogs || cfg.Logging.JSON,
		Quiet:   flagQuiet,
	})

	// Read once per process; MaybeRelaunch consults the stored value so a
	// relaunched child can never spawn another child.
	bootstrapped = os.Getenv(starter.BootstrapEnvFlag) == "1"
}

// configPath resolves the config file location: --config flag first,
// then MOD_TOOL_CONFIG, then modtool.yaml under the project root.
func configPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	if env := os.Getenv("MOD_TOOL_CONFIG"); env != "" {
		return env
	}
	root := flagProjectRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, config.DefaultFileName)
}

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Path to modtool.yaml (default: <project-root>/modtool.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagProjectRoot, "project-root", "",
		"Dashboard project root; overrides project_root from the config")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false,
		"Suppress log lines on stderr (file logging is unaffected)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false,
		"Emit stderr logs as JSON lines")

	rootCmd.AddCommand(upCmd)
	upCmd.Flags().BoolVar(&noRelaunch, "no-relaunch", false,
		"Bootstrap and monitor only; do not launch the dashboard")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(versionCmd)
}
