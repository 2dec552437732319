// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/monitor"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/starter"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
	"github.com/AleutianAI/modtool/pkg/ux"
)

// runUp drives the full bootstrap: provision, install, self-check, plugin
// report. Afterwards it either relaunches the dashboard inside the
// environment (waiting on it and mirroring its exit code) or keeps the
// health monitor running until SIGINT/SIGTERM.
func runUp(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	tc := newToolchain()
	provisioner := envprov.NewDefaultProvisioner(tc.runner, appLogger, envprov.Config{
		BaseInterpreter: cfg.BaseInterpreter,
		CreateTimeout:   cfg.Deadlines.ProvisionTimeout(),
	})
	plugins := starter.NewDirPluginReporter(filepath.Join(cfg.ProjectRoot, "plugins"), appLogger)
	feedback := newFeedback(appLogger)

	boot, err := starter.New(starter.Collaborators{
		Provisioner: provisioner,
		Installer:   tc.installer,
		Checker:     tc.checker,
		Runner:      tc.runner,
		Plugins:     plugins,
	}, feedback, appLogger, starter.Config{
		EnvRoot:             cfg.VenvPath(),
		RequirementsFile:    cfg.RequirementsPath(),
		Entrypoint:          cfg.Entrypoint,
		AlreadyBootstrapped: bootstrapped,
	})
	if err != nil {
		ux.Error("Bootstrap wiring failed: " + err.Error())
		os.Exit(CLIExitError)
	}

	outcome, err := boot.Run(ctx)
	if err != nil {
		// Feedback already narrated the failure in plain language.
		ux.Error("Bootstrap failed: " + err.Error())
		if stderr := util.ExtractStderr(err); stderr != "" {
			ux.ErrorBox("Command Output", stderr)
		}
		os.Exit(CLIExitError)
	}

	mon, err := monitor.New(tc.checker.QuickHealth,
		func(line string) { appLogger.Info(line) },
		cfg.Monitor.Interval(), cfg.Monitor.HistorySize)
	if err != nil {
		ux.Error("Monitor configuration invalid: " + err.Error())
		os.Exit(CLIExitError)
	}
	mon.Start()

	if cfg.AutoRelaunch && !noRelaunch {
		child, started, err := boot.MaybeRelaunch(outcome.Descriptor, args)
		if err != nil {
			mon.Stop(cfg.Monitor.StopTimeout())
			os.Exit(CLIExitError)
		}
		if started {
			code := child.Wait()
			appLogger.Info("dashboard exited", "exit_code", code)
			mon.Stop(cfg.Monitor.StopTimeout())
			if code < 0 {
				code = CLIExitError
			}
			os.Exit(code)
		}
		// Relaunch declined: already inside the environment, or the
		// interpreter vanished. Supervisor mode below still applies.
	}

	feedback("Monitoring the environment. Press Ctrl-C to stop.")
	<-ctx.Done()
	mon.Stop(cfg.Monitor.StopTimeout())
	appLogger.Info("supervisor stopped", "rollup", string(outcome.Rollup), "probes", mon.ProbeCount())
	os.Exit(exitCodeFor(outcome.Rollup))
}
