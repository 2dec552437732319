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
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
	"github.com/AleutianAI/modtool/pkg/ux"
)

// runCheck runs every self-check gate against the environment as it
// stands. Nothing is provisioned or installed; a missing environment
// simply degrades the gates that need the interpreter.
func runCheck(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	tc := newToolchain()
	descriptor := envprov.DescriptorFor(cfg.VenvPath())

	spin := ux.NewSpinner("Running self-check gates")
	spin.Start()
	report := tc.checker.FullCheck(ctx, descriptor)
	spin.Stop()

	printReport(report)

	if report.Classify() == board.StatusError {
		os.Exit(CLIExitError)
	}
	os.Exit(CLIExitSuccess)
}
