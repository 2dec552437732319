// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/selfcheck"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/starter"
	"github.com/AleutianAI/modtool/pkg/logging"
	"github.com/AleutianAI/modtool/pkg/ux"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess = 0 // Healthy or degraded-but-usable outcome
	CLIExitError   = 1 // Error rollup, or the sequence failed outright
)

// newFeedback builds the default feedback sink: every event becomes one
// styled (plain when stdout is not a terminal) line on stdout and one
// info-level log entry. Nothing is dropped in either channel.
func newFeedback(logger *logging.Logger) starter.Feedback {
	return func(message string) {
		ux.Info(message)
		logger.Info("feedback", "message", message)
	}
}

// exitCodeFor maps the rollup classification onto the process exit code.
// Warnings leave the environment usable and exit clean.
func exitCodeFor(rollup board.Status) int {
	if rollup == board.StatusError {
		return CLIExitError
	}
	return CLIExitSuccess
}

// printReport renders every self-check line followed by the overall
// summary, colored by the rollup.
func printReport(report *selfcheck.Report) {
	for _, check := range report.Checks() {
		ux.StepLine(check.Title, string(check.Status), check.Detail)
	}
	summary := report.HumanSummary()
	switch report.Classify() {
	case board.StatusError:
		ux.Error(summary)
	case board.StatusWarning:
		ux.Warning(summary)
	default:
		ux.Success(summary)
	}
}
