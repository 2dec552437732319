// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package envprov

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/AleutianAI/modtool/cmd/modtool/internal/procrun"
)

// fakeVenv makes the runner mock behave like a successful venv module:
// it materializes the root directory and interpreter binary on disk.
func fakeVenv(t *testing.T) func(ctx context.Context, cmd procrun.Command) procrun.Result {
	t.Helper()
	return func(ctx context.Context, cmd procrun.Command) procrun.Result {
		root := cmd.Args[len(cmd.Args)-1]
		descriptor := DescriptorFor(root)
		if err := os.MkdirAll(filepath.Dir(descriptor.InterpreterPath), 0o755); err != nil {
			t.Fatalf("MkdirAll error = %v", err)
		}
		if err := os.WriteFile(descriptor.InterpreterPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
		return procrun.Result{ExitCode: 0}
	}
}

func TestEnsure_EmptyRoot(t *testing.T) {
	p := NewDefaultProvisioner(&procrun.MockRunner{}, nil, Config{})
	_, err := p.Ensure(context.Background(), "")
	if !errors.Is(err, ErrEmptyRoot) {
		t.Errorf("Ensure(\"\") error = %v, want ErrEmptyRoot", err)
	}
}

func TestEnsure_ExistingRootIsReusedUntouched(t *testing.T) {
	root := t.TempDir()
	mock := &procrun.MockRunner{} // any Run call would panic

	p := NewDefaultProvisioner(mock, nil, Config{})
	outcome, err := p.Ensure(context.Background(), root)
	if err != nil {
		t.Fatalf("Ensure error = %v", err)
	}

	if outcome.Status != StatusPresent {
		t.Errorf("Status = %q, want present", outcome.Status)
	}
	if outcome.Descriptor.RootPath != root {
		t.Errorf("RootPath = %q, want %q", outcome.Descriptor.RootPath, root)
	}
	if len(mock.GetCalls()) != 0 {
		t.Errorf("runner was invoked %d times for an existing root", len(mock.GetCalls()))
	}
}

func TestEnsure_RootIsAFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "venv")
	if err := os.WriteFile(root, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	p := NewDefaultProvisioner(&procrun.MockRunner{}, nil, Config{})
	_, err := p.Ensure(context.Background(), root)
	if !errors.Is(err, ErrProvisionFailed) {
		t.Errorf("error = %v, want ErrProvisionFailed", err)
	}
}

func TestEnsure_CreatesFreshEnvironment(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".venv")
	mock := &procrun.MockRunner{RunFunc: fakeVenv(t)}

	p := NewDefaultProvisioner(mock, nil, Config{BaseInterpreter: "python3"})
	outcome, err := p.Ensure(context.Background(), root)
	if err != nil {
		t.Fatalf("Ensure error = %v", err)
	}

	if outcome.Status != StatusCreated {
		t.Errorf("Status = %q, want created", outcome.Status)
	}
	if !outcome.Descriptor.InterpreterExists() {
		t.Error("interpreter missing after creation")
	}

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("runner invoked %d times, want 1", len(calls))
	}
	cmd := calls[0].Command
	if cmd.Path != "python3" {
		t.Errorf("Path = %q, want python3", cmd.Path)
	}
	want := []string{"-m", "venv", root}
	if len(cmd.Args) != len(want) || cmd.Args[0] != "-m" || cmd.Args[1] != "venv" || cmd.Args[2] != root {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestEnsure_RetriesWithClearOnce(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".venv")
	succeed := fakeVenv(t)
	attempts := 0
	mock := &procrun.MockRunner{
		RunFunc: func(ctx context.Context, cmd procrun.Command) procrun.Result {
			attempts++
			if attempts == 1 {
				return procrun.Result{ExitCode: 1, Stderr: "Error: [Errno 17] File exists"}
			}
			return succeed(ctx, cmd)
		},
	}

	p := NewDefaultProvisioner(mock, nil, Config{})
	outcome, err := p.Ensure(context.Background(), root)
	if err != nil {
		t.Fatalf("Ensure error = %v", err)
	}
	if outcome.Status != StatusCreated {
		t.Errorf("Status = %q, want created", outcome.Status)
	}

	calls := mock.GetCalls()
	if len(calls) != 2 {
		t.Fatalf("runner invoked %d times, want 2", len(calls))
	}
	retryArgs := calls[1].Command.Args
	hasClear := false
	for _, a := range retryArgs {
		if a == "--clear" {
			hasClear = true
		}
	}
	if !hasClear {
		t.Errorf("retry args = %v, want --clear", retryArgs)
	}
}

func TestEnsure_FatalAfterRetryFails(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".venv")
	mock := &procrun.MockRunner{
		RunFunc: func(ctx context.Context, cmd procrun.Command) procrun.Result {
			return procrun.Result{ExitCode: 1, Stderr: "No module named venv"}
		},
	}

	p := NewDefaultProvisioner(mock, nil, Config{})
	_, err := p.Ensure(context.Background(), root)
	if !errors.Is(err, ErrProvisionFailed) {
		t.Fatalf("error = %v, want ErrProvisionFailed", err)
	}
	if len(mock.GetCalls()) != 2 {
		t.Errorf("runner invoked %d times, want exactly 2 (one retry)", len(mock.GetCalls()))
	}
}

func TestEnsure_MissingBaseInterpreterIsFatalWithoutRetry(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".venv")
	mock := &procrun.MockRunner{
		RunFunc: func(ctx context.Context, cmd procrun.Command) procrun.Result {
			return procrun.Result{ExitCode: 127, NotFound: true}
		},
	}

	p := NewDefaultProvisioner(mock, nil, Config{BaseInterpreter: "python9"})
	_, err := p.Ensure(context.Background(), root)
	if !errors.Is(err, ErrProvisionFailed) {
		t.Fatalf("error = %v, want ErrProvisionFailed", err)
	}
	if len(mock.GetCalls()) != 1 {
		t.Errorf("runner invoked %d times, want 1 (no retry for a missing interpreter)", len(mock.GetCalls()))
	}
}

func TestEnsure_SuccessExitButNoInterpreterTriggersRetry(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".venv")
	mock := &procrun.MockRunner{
		RunFunc: func(ctx context.Context, cmd procrun.Command) procrun.Result {
			// Command claims success but never materializes the interpreter.
			return procrun.Result{ExitCode: 0}
		},
	}

	p := NewDefaultProvisioner(mock, nil, Config{})
	_, err := p.Ensure(context.Background(), root)
	if !errors.Is(err, ErrProvisionFailed) {
		t.Fatalf("error = %v, want ErrProvisionFailed", err)
	}
	if len(mock.GetCalls()) != 2 {
		t.Errorf("runner invoked %d times, want 2", len(mock.GetCalls()))
	}
}

func TestDescriptorFor(t *testing.T) {
	d := DescriptorFor(filepath.Join("proj", ".venv"))
	if d.RootPath != filepath.Join("proj", ".venv") {
		t.Errorf("RootPath = %q", d.RootPath)
	}

	want := filepath.Join("proj", ".venv", "bin", "python")
	if runtime.GOOS == "windows" {
		want = filepath.Join("proj", ".venv", "Scripts", "python.exe")
	}
	if d.InterpreterPath != want {
		t.Errorf("InterpreterPath = %q, want %q", d.InterpreterPath, want)
	}
}

func TestDescriptor_InterpreterExists(t *testing.T) {
	root := t.TempDir()
	d := DescriptorFor(root)

	if d.InterpreterExists() {
		t.Error("InterpreterExists() = true before creation")
	}

	if err := os.MkdirAll(filepath.Dir(d.InterpreterPath), 0o755); err != nil {
		t.Fatalf("MkdirAll error = %v", err)
	}
	if err := os.WriteFile(d.InterpreterPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if !d.InterpreterExists() {
		t.Error("InterpreterExists() = false after creation")
	}
}
