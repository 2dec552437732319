// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import (
	"errors"
	"fmt"
	"testing"
)

func TestCommandError_ErrorFormats(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "stderr takes priority",
			err:  NewCommandError("python3 -m venv .venv", 1, "No module named venv", errors.New("exit status 1")),
			want: "python3 -m venv .venv (exit 1): No module named venv",
		},
		{
			name: "wrapped error when no stderr",
			err:  NewCommandError("pip check", 2, "", errors.New("context deadline exceeded")),
			want: "pip check (exit 2): context deadline exceeded",
		},
		{
			name: "bare exit code",
			err:  NewCommandError("ruff check .", 3, "", nil),
			want: "ruff check . (exit 3)",
		},
		{
			name: "stderr is trimmed",
			err:  NewCommandError("pytest", 1, "  boom\n\n", nil),
			want: "pytest (exit 1): boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("executable file not found")
	err := NewCommandError("python3", -1, "", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}

	var cmdErr *CommandError
	if !errors.As(error(err), &cmdErr) {
		t.Fatal("errors.As did not match *CommandError")
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", cmdErr.ExitCode)
	}
}

func TestExtractStderr(t *testing.T) {
	inner := NewCommandError("pip install", 1, "resolver conflict", nil)
	wrapped := fmt.Errorf("dependency installation: %w", inner)

	if got := ExtractStderr(wrapped); got != "resolver conflict" {
		t.Errorf("ExtractStderr = %q, want %q", got, "resolver conflict")
	}

	// Two %w verbs produce a multi-error join; the search must reach the
	// CommandError branch.
	joined := fmt.Errorf("%w: %w", errors.New("provisioning failed"), inner)
	if got := ExtractStderr(joined); got != "resolver conflict" {
		t.Errorf("ExtractStderr(joined) = %q, want %q", got, "resolver conflict")
	}

	if got := ExtractStderr(errors.New("plain")); got != "" {
		t.Errorf("ExtractStderr(plain) = %q, want empty", got)
	}

	if got := ExtractStderr(nil); got != "" {
		t.Errorf("ExtractStderr(nil) = %q, want empty", got)
	}
}
