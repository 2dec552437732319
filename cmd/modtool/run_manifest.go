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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/modtool/pkg/ux"
)

// runManifest verifies the structure/layout manifest, regenerating it
// when missing or broken, and reports the resulting version stamps.
func runManifest(cmd *cobra.Command, args []string) {
	tc := newToolchain()

	result := tc.registry.Ensure(context.Background())
	ux.StepLine("Manifest", string(result.Status), result.Detail)

	versions, err := tc.registry.Versions()
	if err != nil {
		ux.Error("Manifest written but unreadable: " + err.Error())
		os.Exit(CLIExitError)
	}
	ux.Info("Versions: " + versions)
	os.Exit(CLIExitSuccess)
}
