// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package deps installs the declarative dependency manifest into the
// provisioned environment and repairs conflicts.
//
// The installer never fails the bootstrap: every outcome, including an
// unreadable manifest, maps onto a status the board can record. Conflicts
// are expected in a mutable package ecosystem, so one forced-reinstall
// repair cycle follows any install or probe failure; exactly one, never a
// loop, which bounds worst-case latency to two installs plus two probes.
package deps

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
	"github.com/AleutianAI/modtool/pkg/logging"
)

// minProbeDeadline floors the consistency probe budget.
const minProbeDeadline = 5 * time.Second

// =============================================================================
// STATUS
// =============================================================================

// InstallStatus classifies one installation attempt.
type InstallStatus string

const (
	// StatusOK means requirements are installed and consistent.
	StatusOK InstallStatus = "ok"

	// StatusSkipped means there was nothing to install. Not a failure.
	StatusSkipped InstallStatus = "skipped"

	// StatusMissingInterpreter means the environment has no interpreter;
	// no install was attempted.
	StatusMissingInterpreter InstallStatus = "missing_interpreter"

	// StatusWarning means installation problems remain after the repair
	// cycle.
	StatusWarning InstallStatus = "warning"

	// StatusError means the manifest itself could not be processed.
	StatusError InstallStatus = "error"
)

// Outcome is the result of one Install call.
type Outcome struct {
	// Status is the final classification.
	Status InstallStatus

	// Detail is the human-readable board line fragment.
	Detail string

	// Repaired is true when a forced-reinstall cycle ran.
	Repaired bool
}

// =============================================================================
// MANIFEST
// =============================================================================

// Manifest is a parsed dependency manifest: one requirement per line,
// comments and blanks stripped.
type Manifest struct {
	// Path is where the manifest was read from.
	Path string

	// Lines holds the active (non-comment, non-blank) requirement lines.
	Lines []string

	// Exists is false when no file was found at Path.
	Exists bool
}

// Active reports whether there is anything to install.
func (m Manifest) Active() bool {
	return m.Exists && len(m.Lines) > 0
}

// ReadManifest loads and parses the manifest at path. A missing file is a
// valid "nothing to install" state, not an error; err is non-nil only for
// real I/O failures.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{Path: path}, nil
		}
		return Manifest{Path: path}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	manifest := Manifest{Path: path, Exists: true}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		manifest.Lines = append(manifest.Lines, line)
	}
	return manifest, nil
}

// =============================================================================
// INTERFACE
// =============================================================================

// Installer installs the dependency manifest into an environment.
type Installer interface {
	// Install reads the manifest and installs it into the descriptor's
	// environment.
	//
	// # Description
	//
	// Runs the full algorithm: interpreter gate, manifest gate, pip
	// availability self-check with a one-time ensurepip bootstrap,
	// upgrade install, consistency probe, and at most one forced
	// reinstall repair whose outcome is final. Never returns a Go
	// error; failures become Outcome statuses.
	//
	// # Inputs
	//
	//   - ctx: Context bounding all child processes
	//   - descriptor: The provisioned environment
	//   - manifestPath: Path to the requirements file
	//
	// # Outputs
	//
	//   - Outcome: Final status with board detail
	Install(ctx context.Context, descriptor envprov.Descriptor, manifestPath string) Outcome

	// Probe runs the standalone consistency check for health reporting.
	//
	// # Outputs
	//
	//   - board.Status: ok, warning, or skipped (pip unavailable)
	//   - string: One-line detail
	Probe(ctx context.Context, descriptor envprov.Descriptor) (board.Status, string)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds installer time budgets.
type Config struct {
	// Deadlines supplies the command/install/test budgets. The
	// consistency probe gets half the test budget, floored at 5s.
	Deadlines util.Deadlines
}

// probeDeadline derives the consistency probe budget from the test budget.
func probeDeadline(tests time.Duration) time.Duration {
	d := tests / 2
	if d < minProbeDeadline {
		return minProbeDeadline
	}
	return d
}

// =============================================================================
// DEFAULT IMPLEMENTATION
// =============================================================================

// DefaultInstaller drives pip through a procrun.Runner.
type DefaultInstaller struct {
	runner procrun.Runner
	logger *logging.Logger
	config Config
}

// NewDefaultInstaller creates an installer. A nil logger falls back to a
// quiet one; the runner must be non-nil.
func NewDefaultInstaller(runner procrun.Runner, logger *logging.Logger, config Config) *DefaultInstaller {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	config.Deadlines = config.Deadlines.Validated()
	return &DefaultInstaller{runner: runner, logger: logger, config: config}
}

// Install runs the installation algorithm against the environment.
func (i *DefaultInstaller) Install(ctx context.Context, descriptor envprov.Descriptor, manifestPath string) Outcome {
	if !descriptor.InterpreterExists() {
		i.logger.Warn("install skipped, interpreter missing", "interpreter", descriptor.InterpreterPath)
		return Outcome{Status: StatusMissingInterpreter, Detail: "environment interpreter not found"}
	}

	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		i.logger.Error("manifest unreadable", "path", manifestPath, "error", err)
		return Outcome{Status: StatusError, Detail: fmt.Sprintf("requirements file unreadable: %v", err)}
	}
	if !manifest.Exists {
		return Outcome{Status: StatusSkipped, Detail: "no requirements file"}
	}
	if !manifest.Active() {
		return Outcome{Status: StatusSkipped, Detail: "requirements file has no active entries"}
	}

	interpreter := descriptor.InterpreterPath
	count := len(manifest.Lines)

	// Best-effort pip self-check with a one-time ensurepip bootstrap.
	// Installation proceeds regardless; pip availability only decides
	// whether the consistency probes can run.
	pipOK := i.pipAvailable(ctx, interpreter)
	if !pipOK {
		i.logger.Warn("pip unavailable, bootstrapping via ensurepip", "interpreter", interpreter)
		i.bootstrapPip(ctx, interpreter)
		pipOK = i.pipAvailable(ctx, interpreter)
	}

	i.logger.Info("installing requirements", "count", count, "path", manifest.Path)
	installResult := i.install(ctx, interpreter, manifest.Path)
	if !installResult.Success() {
		i.logger.Warn("install failed, starting repair cycle",
			"exit", installResult.ExitCode, "detail", installResult.FirstLine())
		return i.repair(ctx, interpreter, manifest.Path, count, pipOK)
	}

	if !pipOK {
		return Outcome{
			Status: StatusOK,
			Detail: fmt.Sprintf("%d requirements installed; consistency probe skipped (pip unavailable)", count),
		}
	}

	probeResult := i.probe(ctx, interpreter)
	if probeResult.Success() {
		return Outcome{
			Status: StatusOK,
			Detail: fmt.Sprintf("%d requirements installed; consistency check passed", count),
		}
	}

	i.logger.Warn("consistency probe reported conflicts, starting repair cycle",
		"exit", probeResult.ExitCode, "timed_out", probeResult.TimedOut, "detail", probeResult.FirstLine())
	return i.repair(ctx, interpreter, manifest.Path, count, pipOK)
}

// Probe runs one standalone consistency check against the environment.
func (i *DefaultInstaller) Probe(ctx context.Context, descriptor envprov.Descriptor) (board.Status, string) {
	if !descriptor.InterpreterExists() {
		return board.StatusSkipped, "probe skipped, environment interpreter not found"
	}
	if !i.pipAvailable(ctx, descriptor.InterpreterPath) {
		return board.StatusSkipped, "probe skipped, pip unavailable"
	}

	result := i.probe(ctx, descriptor.InterpreterPath)
	switch {
	case result.Success():
		return board.StatusOK, "dependency set consistent"
	case result.TimedOut:
		return board.StatusWarning, "pip check exceeded its deadline"
	default:
		detail := result.FirstLine()
		if detail == "" {
			detail = fmt.Sprintf("pip check exited with code %d", result.ExitCode)
		}
		return board.StatusWarning, detail
	}
}

// repair runs the single forced-reinstall cycle. A successful reinstall is
// confirmed by one more consistency probe whose verdict is final; there is
// no second repair.
func (i *DefaultInstaller) repair(ctx context.Context, interpreter, manifestPath string, count int, pipOK bool) Outcome {
	result := i.reinstall(ctx, interpreter, manifestPath)
	if !result.Success() {
		detail := "forced reinstall failed"
		if line := result.FirstLine(); line != "" {
			detail = fmt.Sprintf("forced reinstall failed: %s", line)
		}
		i.logger.Warn("repair cycle failed", "exit", result.ExitCode, "detail", detail)
		return Outcome{Status: StatusWarning, Detail: detail, Repaired: true}
	}

	if !pipOK {
		i.logger.Info("repair cycle succeeded, probe unavailable", "count", count)
		return Outcome{
			Status:   StatusOK,
			Detail:   fmt.Sprintf("%d requirements installed after forced reinstall; consistency probe skipped", count),
			Repaired: true,
		}
	}

	probeResult := i.probe(ctx, interpreter)
	if !probeResult.Success() {
		detail := "conflicts persist after forced reinstall"
		if line := probeResult.FirstLine(); line != "" {
			detail = fmt.Sprintf("conflicts persist after forced reinstall: %s", line)
		}
		i.logger.Warn("repair cycle left conflicts", "exit", probeResult.ExitCode, "detail", detail)
		return Outcome{Status: StatusWarning, Detail: detail, Repaired: true}
	}

	i.logger.Info("repair cycle succeeded", "count", count)
	return Outcome{
		Status:   StatusOK,
		Detail:   fmt.Sprintf("%d requirements installed after forced reinstall", count),
		Repaired: true,
	}
}

// pipAvailable probes for a working pip module.
func (i *DefaultInstaller) pipAvailable(ctx context.Context, interpreter string) bool {
	result := i.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pip", "--version"},
		Timeout: i.config.Deadlines.Command,
	})
	return result.Success()
}

// bootstrapPip attempts the one-time ensurepip bootstrap. Best effort.
func (i *DefaultInstaller) bootstrapPip(ctx context.Context, interpreter string) {
	result := i.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "ensurepip", "--upgrade"},
		Timeout: i.config.Deadlines.Install,
	})
	if !result.Success() {
		i.logger.Warn("ensurepip bootstrap failed", "exit", result.ExitCode, "detail", result.FirstLine())
	}
}

// install runs the upgrade install, lifting pip itself along with the
// declared requirements.
func (i *DefaultInstaller) install(ctx context.Context, interpreter, manifestPath string) procrun.Result {
	return i.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pip", "install", "--upgrade", "pip", "-r", manifestPath},
		Timeout: i.config.Deadlines.Install,
	})
}

// reinstall runs the forced repair install.
func (i *DefaultInstaller) reinstall(ctx context.Context, interpreter, manifestPath string) procrun.Result {
	return i.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pip", "install", "--upgrade", "--force-reinstall", "-r", manifestPath},
		Timeout: i.config.Deadlines.Install,
	})
}

// probe runs pip check under the derived probe deadline.
func (i *DefaultInstaller) probe(ctx context.Context, interpreter string) procrun.Result {
	return i.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pip", "check"},
		Timeout: probeDeadline(i.config.Deadlines.Tests),
	})
}

// Compile-time interface compliance check.
var _ Installer = (*DefaultInstaller)(nil)
