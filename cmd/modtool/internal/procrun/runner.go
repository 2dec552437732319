// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package procrun abstracts external process execution for the bootstrap
pipeline.

Every interpreter, pip, and test invocation goes through the Runner
interface so component tests never spawn real processes. Run reports its
outcome as a Result value: a non-zero exit, a missing executable, and a
deadline kill are distinct result variants, never Go errors, so callers
branch on fields instead of unwrapping error chains. Retry policy belongs
to callers; Run spawns exactly one child per call.

# Design Rationale

Direct calls to exec.Command are not testable because they execute real
processes. Behind an interface we can capture invocations, simulate
failures, and keep the install/repair decision logic fully unit-testable.
*/
package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/AleutianAI/modtool/pkg/logging"
)

// Exit codes for result variants that carry no real process exit status.
const (
	// exitNotFound mirrors the shell's 127 for missing executables.
	exitNotFound = 127

	// exitKilled marks children that never produced an exit status.
	exitKilled = -1

	// pipeDrainDelay bounds Wait after a deadline kill when a grandchild
	// still holds the output pipes.
	pipeDrainDelay = 1 * time.Second
)

// -----------------------------------------------------------------------------
// Command and Result Types
// -----------------------------------------------------------------------------

// Command describes one child process invocation.
type Command struct {
	// Path is the executable name or absolute path.
	Path string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory. Empty inherits the parent's.
	Dir string

	// Env is the full child environment in os.Environ() form.
	// Nil inherits the parent environment.
	Env []string

	// Timeout bounds the run. Zero means no deadline beyond ctx.
	Timeout time.Duration
}

// String returns the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of one Run call. Exactly one of the following
// holds: a clean exit (ExitCode 0), a non-zero exit, NotFound, or
// TimedOut. Callers branch on fields; Run never returns an error.
type Result struct {
	// ExitCode is the child's exit status. 127 when NotFound, -1 when
	// the child was killed before producing a status.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error. For launch failures that
	// produced no process, it carries the launch error text.
	Stderr string

	// TimedOut is true when the deadline expired and the child was killed.
	TimedOut bool

	// NotFound is true when the executable could not be resolved.
	NotFound bool

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Success reports a clean zero exit.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut && !r.NotFound
}

// FirstLine returns the first non-empty line of stdout, falling back to
// stderr. Status details keep only this line; full output is discarded
// to bound memory.
func (r Result) FirstLine() string {
	for _, text := range []string{r.Stdout, r.Stderr} {
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// Runner executes external commands for the bootstrap pipeline.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Runner interface {
	// Run executes a command synchronously and classifies the outcome.
	//
	// # Description
	//
	// Spawns one child, waits up to the command's timeout (and the
	// context), and captures stdout/stderr. Never returns an error:
	// non-zero exits, missing executables, and deadline kills are all
	// Result variants.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation; a context kill reports as TimedOut
	//   - cmd: The command to execute
	//
	// # Outputs
	//
	//   - Result: Classified outcome with captured output
	//
	// # Examples
	//
	//   result := runner.Run(ctx, procrun.Command{
	//       Path:    interpreter,
	//       Args:    []string{"-m", "pip", "check"},
	//       Timeout: deadline,
	//   })
	//   if result.TimedOut {
	//       // probe aborted, child already killed
	//   }
	//
	// # Limitations
	//
	//   - Output is fully buffered in memory
	//   - A non-zero exit racing the deadline may classify as TimedOut
	Run(ctx context.Context, cmd Command) Result

	// Launch starts a child with inherited stdio and returns a handle.
	//
	// # Description
	//
	// Used for the self-relaunch step, where the child takes over the
	// terminal and this process only mirrors its exit code. Unlike Run,
	// a launch failure is a real error; there is no output to classify.
	//
	// # Inputs
	//
	//   - cmd: The command to start (Timeout is ignored; the child owns
	//     its own lifetime)
	//
	// # Outputs
	//
	//   - Child: Handle for Pid and Wait
	//   - error: Non-nil if the process could not be started
	Launch(cmd Command) (Child, error)

	// LookPath resolves an executable name against PATH.
	//
	// # Outputs
	//
	//   - string: Resolved absolute path ("" when not found)
	//   - bool: Whether the executable was found
	LookPath(name string) (string, bool)
}

// Child is a handle to a launched process.
type Child interface {
	// Pid returns the child's process ID.
	Pid() int

	// Wait blocks until the child exits and returns its exit code
	// (-1 when no status is available).
	Wait() int
}

// -----------------------------------------------------------------------------
// Default Implementation
// -----------------------------------------------------------------------------

// DefaultRunner executes real processes via os/exec.
type DefaultRunner struct {
	logger *logging.Logger
}

// NewDefaultRunner creates a runner. A nil logger falls back to a quiet one.
func NewDefaultRunner(logger *logging.Logger) *DefaultRunner {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	return &DefaultRunner{logger: logger}
}

// Run executes the command and classifies the outcome.
func (r *DefaultRunner) Run(ctx context.Context, command Command) Result {
	start := time.Now()

	if command.Path == "" {
		return Result{ExitCode: exitNotFound, NotFound: true, Duration: time.Since(start)}
	}

	runCtx := ctx
	if command.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, command.Path, command.Args...)
	cmd.Dir = command.Dir
	if command.Env != nil {
		cmd.Env = command.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeDrainDelay

	err := cmd.Run()

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		// Clean exit.
	case runCtx.Err() != nil:
		result.TimedOut = true
		result.ExitCode = exitKilled
	default:
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			result.NotFound = true
			result.ExitCode = exitNotFound
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		default:
			result.ExitCode = exitKilled
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	r.logger.Debug("command finished",
		"cmd", command.String(),
		"exit", result.ExitCode,
		"timed_out", result.TimedOut,
		"not_found", result.NotFound,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result
}

// Launch starts the command with inherited stdio.
func (r *DefaultRunner) Launch(command Command) (Child, error) {
	if command.Path == "" {
		return nil, errors.New("launch: empty command path")
	}

	cmd := exec.Command(command.Path, command.Args...)
	cmd.Dir = command.Dir
	if command.Env != nil {
		cmd.Env = command.Env
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", command.Path, err)
	}

	r.logger.Info("child process launched", "cmd", command.String(), "pid", cmd.Process.Pid)
	return &osChild{cmd: cmd}, nil
}

// LookPath resolves an executable against PATH.
func (r *DefaultRunner) LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// osChild wraps a started exec.Cmd.
type osChild struct {
	cmd *exec.Cmd
}

// Pid returns the process ID.
func (c *osChild) Pid() int {
	return c.cmd.Process.Pid
}

// Wait blocks until exit and returns the exit code.
func (c *osChild) Wait() int {
	err := c.cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return exitKilled
}

// Compile-time interface compliance check.
var (
	_ Runner = (*DefaultRunner)(nil)
	_ Child  = (*osChild)(nil)
)
