// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package envprov ensures the isolated Python environment exists.
//
// The environment root directory is the sole reuse signal: when it exists
// the provisioner reports "present" and touches nothing, otherwise it
// creates a fresh virtualenv with a bundled pip. Creation failure is the
// one fatal condition in the whole bootstrap pipeline; every caller above
// propagates ErrProvisionFailed instead of recording it as a step.
package envprov

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
	"github.com/AleutianAI/modtool/cmd/modtool/internal/util"
	"github.com/AleutianAI/modtool/pkg/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyRoot is returned when the environment root path is empty.
	ErrEmptyRoot = errors.New("environment root path must not be empty")

	// ErrProvisionFailed marks the fatal case: the environment could not
	// be created and the bootstrap cannot proceed.
	ErrProvisionFailed = errors.New("environment provisioning failed")
)

// =============================================================================
// TYPES
// =============================================================================

// Status is the provisioning outcome classification.
type Status string

const (
	// StatusPresent means the root already existed and was reused.
	StatusPresent Status = "present"

	// StatusCreated means a fresh environment was provisioned.
	StatusCreated Status = "created"
)

// Descriptor locates a provisioned environment. Both paths are resolved
// together; a descriptor never points at a half-built environment.
type Descriptor struct {
	// RootPath is the environment root directory.
	RootPath string

	// InterpreterPath is the environment's own interpreter binary.
	InterpreterPath string
}

// InterpreterExists reports whether the descriptor's interpreter binary
// is actually on disk. A reused root may have lost its interpreter; the
// dependency installer degrades instead of failing when that happens.
func (d Descriptor) InterpreterExists() bool {
	info, err := os.Stat(d.InterpreterPath)
	return err == nil && !info.IsDir()
}

// DescriptorFor resolves the descriptor for an environment root.
func DescriptorFor(root string) Descriptor {
	interpreter := filepath.Join(root, "bin", "python")
	if runtime.GOOS == "windows" {
		interpreter = filepath.Join(root, "Scripts", "python.exe")
	}
	return Descriptor{RootPath: root, InterpreterPath: interpreter}
}

// Outcome is the result of one Ensure call.
type Outcome struct {
	// Status is present or created.
	Status Status

	// Descriptor locates the ensured environment.
	Descriptor Descriptor

	// Detail is the human-readable line fragment for the status board.
	Detail string
}

// =============================================================================
// INTERFACE
// =============================================================================

// Provisioner ensures the isolated execution environment exists.
//
// # Thread Safety
//
// Implementations are called from the single bootstrap goroutine; they do
// not need internal synchronization but must not retain mutable state
// between calls.
type Provisioner interface {
	// Ensure resolves or creates the environment at rootPath.
	//
	// # Description
	//
	// An existing root is reused untouched and reported as present. A
	// missing root triggers creation of a virtualenv with bundled pip;
	// one --clear retry covers half-built leftovers from an interrupted
	// earlier run. Any remaining failure returns ErrProvisionFailed.
	//
	// # Inputs
	//
	//   - ctx: Context bounding the creation commands
	//   - rootPath: The environment root directory
	//
	// # Outputs
	//
	//   - Outcome: Status, descriptor, and board detail on success
	//   - error: ErrEmptyRoot or ErrProvisionFailed (fatal)
	Ensure(ctx context.Context, rootPath string) (Outcome, error)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds provisioner settings.
type Config struct {
	// BaseInterpreter is the system interpreter used to build the
	// environment. Default: "python3".
	BaseInterpreter string

	// CreateTimeout bounds each creation command. Default: 2m.
	CreateTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseInterpreter == "" {
		c.BaseInterpreter = "python3"
	}
	c.CreateTimeout = util.EnforceDefaultTimeout(c.CreateTimeout, 2*time.Minute)
}

// =============================================================================
// DEFAULT IMPLEMENTATION
// =============================================================================

// DefaultProvisioner creates virtualenvs through a procrun.Runner.
type DefaultProvisioner struct {
	runner procrun.Runner
	logger *logging.Logger
	config Config
}

// NewDefaultProvisioner creates a provisioner. A nil logger falls back to
// a quiet one; the runner must be non-nil.
func NewDefaultProvisioner(runner procrun.Runner, logger *logging.Logger, config Config) *DefaultProvisioner {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	config.applyDefaults()
	return &DefaultProvisioner{runner: runner, logger: logger, config: config}
}

// Ensure resolves or creates the environment at rootPath.
func (p *DefaultProvisioner) Ensure(ctx context.Context, rootPath string) (Outcome, error) {
	if rootPath == "" {
		return Outcome{}, ErrEmptyRoot
	}

	if info, err := os.Stat(rootPath); err == nil {
		if !info.IsDir() {
			return Outcome{}, fmt.Errorf("%w: %s exists and is not a directory", ErrProvisionFailed, rootPath)
		}
		p.logger.Info("environment present", "root", rootPath)
		return Outcome{
			Status:     StatusPresent,
			Descriptor: DescriptorFor(rootPath),
			Detail:     "existing environment reused",
		}, nil
	}

	p.logger.Info("creating environment", "root", rootPath, "interpreter", p.config.BaseInterpreter)

	result := p.create(ctx, rootPath, false)
	if result.NotFound {
		return Outcome{}, fmt.Errorf("%w: base interpreter %q not found", ErrProvisionFailed, p.config.BaseInterpreter)
	}

	descriptor := DescriptorFor(rootPath)
	if result.Success() && descriptor.InterpreterExists() {
		return Outcome{
			Status:     StatusCreated,
			Descriptor: descriptor,
			Detail:     "environment created with bundled pip",
		}, nil
	}

	// One retry with --clear covers a half-built root left behind by an
	// interrupted earlier run.
	p.logger.Warn("environment creation failed, retrying with --clear",
		"root", rootPath, "exit", result.ExitCode, "stderr", result.FirstLine())

	result = p.create(ctx, rootPath, true)
	if result.Success() && descriptor.InterpreterExists() {
		return Outcome{
			Status:     StatusCreated,
			Descriptor: descriptor,
			Detail:     "environment recreated after cleanup",
		}, nil
	}

	cause := util.NewCommandError(
		fmt.Sprintf("%s -m venv %s", p.config.BaseInterpreter, rootPath),
		result.ExitCode,
		result.Stderr,
		nil,
	)
	return Outcome{}, fmt.Errorf("%w: %w", ErrProvisionFailed, cause)
}

// create runs one venv creation command.
func (p *DefaultProvisioner) create(ctx context.Context, rootPath string, clear bool) procrun.Result {
	args := []string{"-m", "venv"}
	if clear {
		args = append(args, "--clear")
	}
	args = append(args, rootPath)

	return p.runner.Run(ctx, procrun.Command{
		Path:    p.config.BaseInterpreter,
		Args:    args,
		Timeout: p.config.CreateTimeout,
	})
}

// Compile-time interface compliance check.
var _ Provisioner = (*DefaultProvisioner)(nil)
