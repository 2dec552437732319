// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package starter orchestrates the bootstrap sequence.
//
// One Run provisions the environment, installs dependencies, runs the
// self-check, and folds everything into a fresh status board. The only
// fatal outcome is a failed provisioning; every other problem becomes a
// board step and the run completes. Feedback lines narrate each step in
// plain language for users who never read logs.
package starter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/deps"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/selfcheck"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
	"github.com/AleutianAI/modtool/pkg/logging"
)

// BootstrapEnvFlag marks a relaunched child process. A child started by
// MaybeRelaunch sees it set to "1" and never relaunches again.
const BootstrapEnvFlag = "MOD_TOOL_BOOTSTRAPPED"

// ErrMissingCollaborator is returned by New when a required collaborator
// is nil.
var ErrMissingCollaborator = errors.New("required collaborator missing")

// Feedback receives one plain-language status line per event. Lines are
// user-facing; logs carry the structured version.
type Feedback func(message string)

// PluginReporter reports the outcome of an external plugin load. The
// starter records the report as a board step and never loads anything
// itself.
type PluginReporter interface {
	Report(ctx context.Context) (loaded []string, err error)
}

// Summary is the compact key/status package one run returns: step keys
// map to statuses, "<key>_info" to details, plus the synthesized gesamt,
// progress, progress_info, and run_id entries.
type Summary map[string]string

// Rollup returns the overall classification.
func (s Summary) Rollup() board.Status {
	return board.ParseStatus(s["gesamt"])
}

// Outcome is everything one Run produces.
type Outcome struct {
	// RunID identifies this bootstrap run in logs and the summary.
	RunID string

	// Summary is the compact key/status map.
	Summary Summary

	// Descriptor locates the provisioned environment.
	Descriptor envprov.Descriptor

	// Rollup is the overall classification over all recorded steps.
	Rollup board.Status
}

// =============================================================================
// CONFIG
// =============================================================================

// Config carries the paths and relaunch settings for one starter.
type Config struct {
	// EnvRoot is the virtual environment root directory.
	EnvRoot string

	// RequirementsFile is the dependency manifest path.
	RequirementsFile string

	// Entrypoint is the argument list run under the provisioned
	// interpreter on relaunch.
	Entrypoint []string

	// AlreadyBootstrapped marks this process as a relaunched child. Read
	// from BootstrapEnvFlag exactly once at CLI startup.
	AlreadyBootstrapped bool
}

func (c *Config) applyDefaults() {
	if c.EnvRoot == "" {
		c.EnvRoot = ".venv"
	}
	if c.RequirementsFile == "" {
		c.RequirementsFile = "requirements.txt"
	}
	if len(c.Entrypoint) == 0 {
		c.Entrypoint = []string{"-m", "mod_tool"}
	}
}

// Collaborators bundles the components one starter drives. Provisioner,
// Installer, Checker, and Runner are required; Plugins is optional.
type Collaborators struct {
	Provisioner envprov.Provisioner
	Installer   deps.Installer
	Checker     selfcheck.Checker
	Runner      procrun.Runner
	Plugins     PluginReporter
}

func (c Collaborators) validate() error {
	switch {
	case c.Provisioner == nil:
		return fmt.Errorf("%w: provisioner", ErrMissingCollaborator)
	case c.Installer == nil:
		return fmt.Errorf("%w: installer", ErrMissingCollaborator)
	case c.Checker == nil:
		return fmt.Errorf("%w: checker", ErrMissingCollaborator)
	case c.Runner == nil:
		return fmt.Errorf("%w: runner", ErrMissingCollaborator)
	default:
		return nil
	}
}

// =============================================================================
// STARTER
// =============================================================================

// Starter drives the bootstrap sequence and the in-environment relaunch.
type Starter struct {
	collab   Collaborators
	feedback Feedback
	logger   *logging.Logger
	config   Config
}

// New creates a starter. A nil feedback discards lines; a nil logger
// falls back to a quiet one.
func New(collab Collaborators, feedback Feedback, logger *logging.Logger, config Config) (*Starter, error) {
	if err := collab.validate(); err != nil {
		return nil, err
	}
	if feedback == nil {
		feedback = func(string) {}
	}
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	config.applyDefaults()
	return &Starter{
		collab:   collab,
		feedback: feedback,
		logger:   logger,
		config:   config,
	}, nil
}

// Run executes the bootstrap sequence on one fresh board.
//
// # Description
//
// Order: provision environment, install dependencies, full self-check,
// optional plugin report, synthesized overall step. Provisioning failure
// is the only error return; everything else degrades to a board step.
// Every step produces at least one feedback line.
//
// # Outputs
//
//   - *Outcome: Run id, summary map, environment descriptor, and rollup
//   - error: envprov.ErrProvisionFailed (fatal) or a context error
func (s *Starter) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	ledger := board.New()

	s.feedback("Startup: automatic sequence started.")
	logger.Info("bootstrap run started", "env_root", s.config.EnvRoot)

	descriptor, err := s.provisionStep(ctx, ledger, logger)
	if err != nil {
		return nil, err
	}
	if err := s.aborted(ctx, logger); err != nil {
		return nil, err
	}

	s.installStep(ctx, ledger, logger, descriptor)
	if err := s.aborted(ctx, logger); err != nil {
		return nil, err
	}

	s.selfCheckStep(ctx, ledger, logger, descriptor)
	if err := s.aborted(ctx, logger); err != nil {
		return nil, err
	}

	s.pluginStep(ctx, ledger, logger)

	percent, label := ledger.Progress()
	rollup := ledger.Classify()
	record(ledger, "gesamt", "Overall", rollup, label)

	for _, line := range ledger.Lines() {
		s.feedback(line)
	}

	summary := Summary(ledger.Summary())
	summary["progress"] = strconv.Itoa(percent) + "%"
	summary["progress_info"] = label
	summary["run_id"] = runID

	logger.Info("bootstrap run complete", "overall", string(rollup), "progress", percent)
	return &Outcome{
		RunID:      runID,
		Summary:    summary,
		Descriptor: descriptor,
		Rollup:     rollup,
	}, nil
}

// MaybeRelaunch restarts the tool inside the provisioned environment.
//
// Skipped (false, nil error) when this process is already a relaunched
// child or the environment interpreter is missing. Otherwise the
// configured entrypoint is spawned under the environment interpreter with
// BootstrapEnvFlag set and extraArgs appended; the caller waits on the
// child and mirrors its exit code.
func (s *Starter) MaybeRelaunch(descriptor envprov.Descriptor, extraArgs []string) (procrun.Child, bool, error) {
	if s.config.AlreadyBootstrapped {
		s.logger.Info("relaunch skipped", "reason", "already bootstrapped")
		return nil, false, nil
	}
	if !descriptor.InterpreterExists() {
		s.feedback("Relaunch not possible: environment interpreter is missing.")
		s.logger.Warn("relaunch skipped",
			"reason", "interpreter missing", "interpreter", descriptor.InterpreterPath)
		return nil, false, nil
	}

	overrides, err := util.NewEnvVars(util.EnvVar{Key: BootstrapEnvFlag, Value: "1"})
	if err != nil {
		return nil, false, err
	}

	args := make([]string, 0, len(s.config.Entrypoint)+len(extraArgs))
	args = append(args, s.config.Entrypoint...)
	args = append(args, extraArgs...)

	s.feedback("Restarting automatically inside the managed environment...")
	child, err := s.collab.Runner.Launch(procrun.Command{
		Path: descriptor.InterpreterPath,
		Args: args,
		Env:  util.MergeEnviron(os.Environ(), overrides),
	})
	if err != nil {
		s.feedback("Relaunch failed: " + err.Error())
		s.logger.Error("relaunch failed", "error", err)
		return nil, false, err
	}

	s.logger.Info("relaunched in environment",
		"pid", child.Pid(), "interpreter", descriptor.InterpreterPath, "args", args)
	return child, true, nil
}

// =============================================================================
// STEPS
// =============================================================================

func (s *Starter) provisionStep(ctx context.Context, ledger *board.Board, logger *logging.Logger) (envprov.Descriptor, error) {
	started := time.Now()

	// Narration mirrors the provisioner's own reuse check: an existing
	// root is reused, anything else means a creation run is coming.
	if _, statErr := os.Stat(s.config.EnvRoot); statErr == nil {
		s.feedback("Virtual environment found – reusing it.")
	} else {
		s.feedback("Creating the virtual environment (one-time setup)...")
	}

	outcome, err := s.collab.Provisioner.Ensure(ctx, s.config.EnvRoot)
	if err != nil {
		s.feedback("Startup failed: the environment could not be provisioned.")
		logger.Error("provisioning failed", "error", err, "duration", time.Since(started))
		return envprov.Descriptor{}, err
	}
	if outcome.Status == envprov.StatusCreated {
		s.feedback("Virtual environment ready.")
	}

	record(ledger, "virtualenv", "Virtual environment", board.Status(outcome.Status), outcome.Detail)
	logger.Info("step complete",
		"step", "virtualenv", "status", string(outcome.Status), "duration", time.Since(started))
	return outcome.Descriptor, nil
}

func (s *Starter) installStep(ctx context.Context, ledger *board.Board, logger *logging.Logger, descriptor envprov.Descriptor) {
	started := time.Now()
	outcome := s.collab.Installer.Install(ctx, descriptor, s.config.RequirementsFile)

	record(ledger, "dependencies", "Dependencies", installBoardStatus(outcome.Status), outcome.Detail)
	logger.Info("step complete",
		"step", "dependencies", "status", string(outcome.Status),
		"repaired", outcome.Repaired, "duration", time.Since(started))
}

func (s *Starter) selfCheckStep(ctx context.Context, ledger *board.Board, logger *logging.Logger, descriptor envprov.Descriptor) {
	started := time.Now()
	report := s.collab.Checker.FullCheck(ctx, descriptor)

	for _, check := range report.Checks() {
		s.feedback(fmt.Sprintf("self-check %s: %s", check.Key, check.Status))
	}

	record(ledger, "self_check", "Self-check", report.Classify(), report.HumanSummary())
	logger.Info("step complete",
		"step", "self_check", "status", string(report.Classify()), "duration", time.Since(started))
}

func (s *Starter) pluginStep(ctx context.Context, ledger *board.Board, logger *logging.Logger) {
	if s.collab.Plugins == nil {
		return
	}

	started := time.Now()
	loaded, err := s.collab.Plugins.Report(ctx)

	var status board.Status
	var detail string
	switch {
	case err != nil:
		status, detail = board.StatusWarning, "plugin report failed: "+err.Error()
	case len(loaded) == 0:
		status, detail = board.StatusSkipped, "no plugins found"
	default:
		status = board.StatusOK
		detail = fmt.Sprintf("%d plugins loaded: %s", len(loaded), strings.Join(loaded, ", "))
	}

	record(ledger, "plugins", "Plugins", status, detail)
	logger.Info("step complete",
		"step", "plugins", "status", string(status), "duration", time.Since(started))
}

// aborted reports a cancellation between steps. In-flight children are
// already killed through the runner's context; this keeps the sequence
// from starting its next step.
func (s *Starter) aborted(ctx context.Context, logger *logging.Logger) error {
	if err := ctx.Err(); err != nil {
		s.feedback("Startup aborted before completion.")
		logger.Warn("bootstrap run canceled", "error", err)
		return err
	}
	return nil
}

// record appends one step. Keys are fixed literals recorded once per run,
// so a recording error is a programming bug.
func record(ledger *board.Board, key, title string, status board.Status, detail string) {
	if err := ledger.Add(key, title, status, detail); err != nil {
		panic("starter: duplicate or invalid step record: " + err.Error())
	}
}

// installBoardStatus maps the installer taxonomy onto board statuses. A
// missing interpreter degrades the run instead of failing it.
func installBoardStatus(status deps.InstallStatus) board.Status {
	switch status {
	case deps.StatusOK:
		return board.StatusOK
	case deps.StatusSkipped:
		return board.StatusSkipped
	case deps.StatusMissingInterpreter, deps.StatusWarning:
		return board.StatusWarning
	case deps.StatusError:
		return board.StatusError
	default:
		return board.StatusUnknown
	}
}
