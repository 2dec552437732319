// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{name: "debug", input: "debug", want: LevelDebug},
		{name: "info", input: "info", want: LevelInfo},
		{name: "warn", input: "warn", want: LevelWarn},
		{name: "warning alias", input: "warning", want: LevelWarn},
		{name: "error", input: "error", want: LevelError},
		{name: "mixed case", input: "DeBuG", want: LevelDebug},
		{name: "padded", input: "  error  ", want: LevelError},
		{name: "unknown falls back to info", input: "verbose", want: LevelInfo},
		{name: "empty falls back to info", input: "", want: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_WritesFile(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		Dir:     dir,
		Service: "testsvc",
		Quiet:   true,
	})
	logger.Info("hello from test", "answer", 42)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%q) error = %v", dir, err)
	}
	if len(entries) != 1 {
		t.Fatalf("log dir has %d files, want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "testsvc_") || !strings.HasSuffix(name, ".log") {
		t.Errorf("log file name = %q, want testsvc_<date>.log", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, data)
	}
	if record["msg"] != "hello from test" {
		t.Errorf("msg = %v, want %q", record["msg"], "hello from test")
	}
	if record["service"] != "testsvc" {
		t.Errorf("service = %v, want %q", record["service"], "testsvc")
	}
}

func TestNew_UnwritableDirDisablesFile(t *testing.T) {
	// Construction must not fail even when the directory cannot be made.
	logger := New(Config{
		Dir:   string([]byte{0}),
		Quiet: true,
	})
	logger.Info("still works")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buffer := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelWarn,
		Quiet:    true,
		Exporter: buffer,
	})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept as well")

	got := buffer.Entries()
	if len(got) != 2 {
		t.Fatalf("exported %d entries, want 2: %+v", len(got), got)
	}
	if got[0].Level != LevelWarn || got[0].Message != "kept" {
		t.Errorf("first entry = %+v, want warn/kept", got[0])
	}
	if got[1].Level != LevelError || got[1].Message != "kept as well" {
		t.Errorf("second entry = %+v, want error/kept as well", got[1])
	}
}

func TestLogger_ExporterReceivesAttrs(t *testing.T) {
	buffer := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "modtool",
		Quiet:    true,
		Exporter: buffer,
	})
	defer logger.Close()

	logger.Info("step finished", "step", "virtualenv", "ok", true)

	got := buffer.Entries()
	if len(got) != 1 {
		t.Fatalf("exported %d entries, want 1", len(got))
	}
	entry := got[0]
	if entry.Service != "modtool" {
		t.Errorf("Service = %q, want %q", entry.Service, "modtool")
	}
	if entry.Attrs["step"] != "virtualenv" {
		t.Errorf("Attrs[step] = %v, want %q", entry.Attrs["step"], "virtualenv")
	}
	if entry.Attrs["ok"] != true {
		t.Errorf("Attrs[ok] = %v, want true", entry.Attrs["ok"])
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestLogger_WithSharesDestinations(t *testing.T) {
	buffer := NewBufferedExporter()
	parent := New(Config{Level: LevelInfo, Quiet: true, Exporter: buffer})
	defer parent.Close()

	child := parent.With("component", "monitor")
	child.Info("tick")

	got := buffer.Entries()
	if len(got) != 1 {
		t.Fatalf("exported %d entries, want 1", len(got))
	}
	if got[0].Message != "tick" {
		t.Errorf("Message = %q, want %q", got[0].Message, "tick")
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestBufferedExporter_Reset(t *testing.T) {
	buffer := NewBufferedExporter()
	_ = buffer.Export(Entry{Message: "one"})
	_ = buffer.Export(Entry{Message: "two"})

	if n := len(buffer.Entries()); n != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", n)
	}
	buffer.Reset()
	if n := len(buffer.Entries()); n != 0 {
		t.Errorf("len(Entries()) after Reset = %d, want 0", n)
	}
}

func TestWriterExporter_EmitsJSONLines(t *testing.T) {
	var out bytes.Buffer
	exporter := NewWriterExporter(&out)

	if err := exporter.Export(Entry{Level: LevelInfo, Message: "first"}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := exporter.Export(Entry{Level: LevelError, Message: "second"}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("line %d is not JSON: %v", i, err)
		}
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"a", 1, "b", "two", 3, "dropped-key", "trailing"})
	if len(got) != 2 {
		t.Fatalf("argsToMap returned %d keys, want 2: %v", len(got), got)
	}
	if got["a"] != 1 || got["b"] != "two" {
		t.Errorf("argsToMap = %v, want a=1 b=two", got)
	}
}
