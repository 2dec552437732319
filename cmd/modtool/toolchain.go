// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/AleutianAI/modtool/cmd/modtool/internal/deps"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/manifest"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/selfcheck"
)

// toolchain bundles the concrete collaborators the commands drive. One
// toolchain per command invocation; the pieces share a single runner and
// the command-wide deadlines from the loaded configuration.
type toolchain struct {
	runner    *procrun.DefaultRunner
	installer *deps.DefaultInstaller
	registry  *manifest.DefaultRegistry
	checker   *selfcheck.DefaultChecker
}

// newToolchain assembles the collaborators from the loaded configuration.
// Must run after setupRuntime.
func newToolchain() toolchain {
	runner := procrun.NewDefaultRunner(appLogger)
	installer := deps.NewDefaultInstaller(runner, appLogger, deps.Config{
		Deadlines: cfg.CommandDeadlines(),
	})
	registry := manifest.NewDefaultRegistry(cfg.ManifestPath(), appLogger)
	checker := selfcheck.NewDefaultChecker(runner, registry, installer, appLogger, selfcheck.Config{
		ProjectRoot:     cfg.ProjectRoot,
		SourceDir:       cfg.SourceDir,
		TestsDir:        cfg.TestsDir,
		RequiredPaths:   cfg.RequiredPaths,
		BaseInterpreter: cfg.BaseInterpreter,
		Deadlines:       cfg.CommandDeadlines(),
	})

	return toolchain{
		runner:    runner,
		installer: installer,
		registry:  registry,
		checker:   checker,
	}
}
