// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package selfcheck runs the non-fatal verification gates and folds them
// into one ordered report.
//
// Every gate classifies its outcome as a board status instead of failing:
// a broken source tree, a red test suite, or a missing optional tool must
// never block startup. The only memory kept from child process output is
// the first line; full output is discarded.
package selfcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/envprov"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/manifest"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
	"github.com/AleutianAI/modtool/pkg/logging"
)

// Report keys in FullCheck order.
const (
	KeyRequiredPaths = "required_paths"
	KeyCodeFormat    = "code_format"
	KeyTests         = "tests"
	KeyTestsExtended = "tests_extended"
	KeyLinting       = "linting"
	KeyManifest      = "manifest"
	KeyAccessibility = "accessibility"
	KeyDependencies  = "dependencies"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// DependencyProber reports the consistency of the installed dependency set.
// Satisfied by deps.DefaultInstaller.
type DependencyProber interface {
	Probe(ctx context.Context, descriptor envprov.Descriptor) (board.Status, string)
}

// =============================================================================
// INTERFACE
// =============================================================================

// Checker runs the verification gates.
type Checker interface {
	// FullCheck runs every gate in its fixed order and returns the
	// ordered report.
	//
	// # Description
	//
	// Gate order: required paths, syntax, quick tests, extended suite,
	// linting, manifest, accessibility, dependency probe. Each gate is
	// individually classified and none aborts the pass; the report's
	// rollup is the single signal a renderer needs.
	//
	// # Inputs
	//
	//   - ctx: Context bounding all child processes
	//   - descriptor: The provisioned environment; when its interpreter
	//     is missing the gates fall back to the base interpreter
	//
	// # Outputs
	//
	//   - *Report: Ordered check results with summary and rollup
	FullCheck(ctx context.Context, descriptor envprov.Descriptor) *Report

	// QuickHealth re-ensures the required paths and reports a one-line
	// summary plus the paths it repaired. Feeds the background monitor.
	QuickHealth() (string, []string)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config locates the project surfaces the gates inspect.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	ProjectRoot string

	// SourceDir is the package directory for the syntax gate.
	SourceDir string

	// TestsDir is the test discovery root. Absent means the test gates
	// are skipped without spawning anything.
	TestsDir string

	// RequiredPaths are directories that must exist under ProjectRoot.
	RequiredPaths []string

	// BaseInterpreter runs the gates when the environment has none.
	BaseInterpreter string

	// Deadlines supplies the command and test budgets.
	Deadlines util.Deadlines
}

func (c *Config) applyDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.SourceDir == "" {
		c.SourceDir = "mod_tool"
	}
	if c.TestsDir == "" {
		c.TestsDir = "tests"
	}
	if len(c.RequiredPaths) == 0 {
		c.RequiredPaths = []string{"logs", "plugins", "config"}
	}
	if c.BaseInterpreter == "" {
		c.BaseInterpreter = "python3"
	}
	c.Deadlines = c.Deadlines.Validated()
}

// =============================================================================
// DEFAULT IMPLEMENTATION
// =============================================================================

// DefaultChecker runs the gates through a procrun.Runner.
type DefaultChecker struct {
	runner   procrun.Runner
	registry manifest.Registry
	prober   DependencyProber
	logger   *logging.Logger
	config   Config
}

// NewDefaultChecker creates a checker. Runner, registry, and prober must
// be non-nil; a nil logger falls back to a quiet one.
func NewDefaultChecker(runner procrun.Runner, registry manifest.Registry, prober DependencyProber, logger *logging.Logger, config Config) *DefaultChecker {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	config.applyDefaults()
	return &DefaultChecker{
		runner:   runner,
		registry: registry,
		prober:   prober,
		logger:   logger,
		config:   config,
	}
}

// FullCheck runs every gate in its fixed order.
func (c *DefaultChecker) FullCheck(ctx context.Context, descriptor envprov.Descriptor) *Report {
	report := NewReport()
	interpreter := c.interpreter(descriptor)

	status, detail := c.EnsureRequiredPaths()
	report.Add(KeyRequiredPaths, "Required paths", status, detail)

	status, detail = c.SyntaxGate(ctx, interpreter)
	report.Add(KeyCodeFormat, "Code format", status, detail)

	status, detail = c.TestGate(ctx, interpreter)
	report.Add(KeyTests, "Quick tests", status, detail)

	status, detail = c.ExtendedSuite(ctx, interpreter)
	report.Add(KeyTestsExtended, "Extended tests", status, detail)

	status, detail = c.Linting(ctx)
	report.Add(KeyLinting, "Linting", status, detail)

	result := c.registry.Ensure(ctx)
	report.Add(KeyManifest, "Manifest", board.Status(result.Status), result.Detail)

	status, detail = c.Accessibility()
	report.Add(KeyAccessibility, "Accessibility", status, detail)

	status, detail = c.prober.Probe(ctx, descriptor)
	report.Add(KeyDependencies, "Dependencies", status, detail)

	c.logger.Info("self-check complete",
		"overall", string(report.Classify()), "checks", len(report.Checks()))
	return report
}

// EnsureRequiredPaths creates any missing required directory. Existing
// paths report present, freshly created ones created, and a directory
// that cannot be created degrades the gate to warning.
func (c *DefaultChecker) EnsureRequiredPaths() (board.Status, string) {
	var created, failed []string
	for _, rel := range c.config.RequiredPaths {
		path := filepath.Join(c.config.ProjectRoot, rel)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0o750); err != nil {
			c.logger.Warn("required path unrepairable", "path", path, "error", err)
			failed = append(failed, rel)
			continue
		}
		c.logger.Info("required path created", "path", path)
		created = append(created, rel)
	}

	switch {
	case len(failed) > 0:
		return board.StatusWarning, "could not create: " + strings.Join(failed, ", ")
	case len(created) > 0:
		return board.StatusCreated, "created: " + strings.Join(created, ", ")
	default:
		return board.StatusPresent, fmt.Sprintf("%d required paths available", len(c.config.RequiredPaths))
	}
}

// SyntaxGate compiles the source tree. Classified ok or warning only;
// a broken tree never blocks startup.
func (c *DefaultChecker) SyntaxGate(ctx context.Context, interpreter string) (board.Status, string) {
	sourceDir := filepath.Join(c.config.ProjectRoot, c.config.SourceDir)
	result := c.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "compileall", "-q", sourceDir},
		Timeout: c.config.Deadlines.Tests,
	})

	switch {
	case result.Success():
		return board.StatusOK, "source tree compiles"
	case result.TimedOut:
		return board.StatusWarning, "compile check exceeded its deadline"
	default:
		return board.StatusWarning, firstLineOr(result, "compile check exited with code %d")
	}
}

// TestGate discovers and runs the unittest suite under the test deadline.
// A missing test directory is skipped without spawning a process; a
// deadline expiry reports aborted with the child confirmed killed.
func (c *DefaultChecker) TestGate(ctx context.Context, interpreter string) (board.Status, string) {
	testsDir, ok := c.testsDir()
	if !ok {
		return board.StatusSkipped, "no test directory"
	}

	result := c.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "unittest", "discover", "-s", testsDir},
		Timeout: c.config.Deadlines.Tests,
	})

	switch {
	case result.TimedOut:
		return board.StatusAborted, fmt.Sprintf("timeout after %s", c.config.Deadlines.Tests)
	case result.Success():
		return board.StatusOK, "all discovered tests passed"
	default:
		return board.StatusWarning, firstLineOr(result, "test run exited with code %d")
	}
}

// ExtendedSuite runs pytest when it is installed. Its absence is never an
// error.
func (c *DefaultChecker) ExtendedSuite(ctx context.Context, interpreter string) (board.Status, string) {
	testsDir, ok := c.testsDir()
	if !ok {
		return board.StatusSkipped, "no test directory"
	}

	probe := c.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pytest", "--version"},
		Timeout: c.config.Deadlines.Command,
	})
	if !probe.Success() {
		return board.StatusSkipped, "pytest not installed"
	}

	result := c.runner.Run(ctx, procrun.Command{
		Path:    interpreter,
		Args:    []string{"-m", "pytest", "-q", testsDir},
		Timeout: c.config.Deadlines.Tests,
	})

	switch {
	case result.TimedOut:
		return board.StatusAborted, fmt.Sprintf("timeout after %s", c.config.Deadlines.Tests)
	case result.Success():
		return board.StatusOK, "pytest suite passed"
	default:
		return board.StatusWarning, firstLineOr(result, "pytest exited with code %d")
	}
}

// Linting runs every discovered linter over the source tree. No tool on
// PATH is informational, not a warning.
func (c *DefaultChecker) Linting(ctx context.Context) (board.Status, string) {
	sourceDir := filepath.Join(c.config.ProjectRoot, c.config.SourceDir)
	tools := []struct {
		name string
		args []string
	}{
		{"ruff", []string{"check", sourceDir}},
		{"flake8", []string{sourceDir}},
	}

	var tokens []string
	warned := false
	for _, tool := range tools {
		path, found := c.runner.LookPath(tool.name)
		if !found {
			continue
		}
		result := c.runner.Run(ctx, procrun.Command{
			Path:    path,
			Args:    tool.args,
			Timeout: c.config.Deadlines.Tests,
		})
		if result.Success() {
			tokens = append(tokens, tool.name+": ok")
		} else {
			tokens = append(tokens, tool.name+": warning")
			warned = true
		}
	}

	if len(tokens) == 0 {
		return board.StatusSkipped, "no linting tools installed (checked ruff, flake8)"
	}
	status := board.StatusOK
	if warned {
		status = board.StatusWarning
	}
	return status, strings.Join(tokens, ", ")
}

// Accessibility inspects the manifest document: every layout section must
// carry an accessibility label and a high-contrast theme must be offered.
func (c *DefaultChecker) Accessibility() (board.Status, string) {
	doc, err := c.registry.Read()
	if err != nil {
		return board.StatusWarning, "manifest unreadable, accessibility unknown"
	}

	var unlabeled []string
	for _, section := range doc.Layout.Sections {
		if strings.TrimSpace(section.AccessibilityLabel) == "" {
			unlabeled = append(unlabeled, section.ID)
		}
	}
	if len(unlabeled) > 0 {
		return board.StatusWarning, "sections missing accessibility labels: " + strings.Join(unlabeled, ", ")
	}

	if !hasHighContrastTheme(doc.Layout.Themes) {
		return board.StatusWarning, "no high-contrast theme available"
	}

	return board.StatusOK, fmt.Sprintf("%d sections labeled, high-contrast theme available", len(doc.Layout.Sections))
}

// QuickHealth re-ensures the required paths between monitor probes.
func (c *DefaultChecker) QuickHealth() (string, []string) {
	var missing []string
	for _, rel := range c.config.RequiredPaths {
		if _, err := os.Stat(filepath.Join(c.config.ProjectRoot, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	if len(missing) == 0 {
		return "all required paths available", nil
	}

	for _, rel := range missing {
		path := filepath.Join(c.config.ProjectRoot, rel)
		if err := os.MkdirAll(path, 0o750); err != nil {
			c.logger.Warn("required path unrepairable", "path", path, "error", err)
		}
	}
	return "repaired missing paths: " + strings.Join(missing, ", "), missing
}

// interpreter picks the environment interpreter when it exists, falling
// back to the base interpreter so `modtool check` works without a venv.
func (c *DefaultChecker) interpreter(descriptor envprov.Descriptor) string {
	if descriptor.InterpreterExists() {
		return descriptor.InterpreterPath
	}
	return c.config.BaseInterpreter
}

// testsDir resolves the test directory and whether it exists.
func (c *DefaultChecker) testsDir() (string, bool) {
	path := filepath.Join(c.config.ProjectRoot, c.config.TestsDir)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, false
	}
	return path, true
}

// firstLineOr keeps the first output line, or formats the exit code when
// the child produced no output at all.
func firstLineOr(result procrun.Result, format string) string {
	if line := result.FirstLine(); line != "" {
		return line
	}
	return fmt.Sprintf(format, result.ExitCode)
}

// hasHighContrastTheme matches both the English and the legacy German
// theme naming.
func hasHighContrastTheme(themes []string) bool {
	for _, theme := range themes {
		lower := strings.ToLower(theme)
		if strings.Contains(lower, "contrast") || strings.Contains(lower, "kontrast") {
			return true
		}
	}
	return false
}

// Compile-time interface compliance check.
var _ Checker = (*DefaultChecker)(nil)
