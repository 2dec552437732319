// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter receives every log entry at or above the configured level, in
// addition to the normal stderr/file output. Implementations must be safe
// for concurrent use and must return quickly; Export runs on the logging
// hot path.
//
// # Description
//
// The primary uses are test assertion (BufferedExporter) and forwarding
// entries to an extra destination (WriterExporter). Export errors are
// swallowed by the Logger.
type Exporter interface {
	// Export delivers one entry. Errors are ignored by the caller.
	Export(entry Entry) error

	// Flush forces any buffered entries out. Called from Logger.Close.
	Flush() error

	// Close releases resources. The exporter is not used afterwards.
	Close() error
}

// Entry is the exporter-facing form of a log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// =============================================================================
// IMPLEMENTATIONS
// =============================================================================

// NopExporter discards everything. Useful as a placeholder in wiring code.
type NopExporter struct{}

// Export discards the entry.
func (NopExporter) Export(Entry) error { return nil }

// Flush does nothing.
func (NopExporter) Flush() error { return nil }

// Close does nothing.
func (NopExporter) Close() error { return nil }

// BufferedExporter accumulates entries in memory so tests can assert on
// what was logged. Not bounded; do not use outside tests.
type BufferedExporter struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBufferedExporter returns an empty buffer.
func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{}
}

// Export appends the entry to the buffer.
func (e *BufferedExporter) Export(entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

// Flush does nothing; entries stay buffered until Reset.
func (e *BufferedExporter) Flush() error { return nil }

// Close does nothing.
func (e *BufferedExporter) Close() error { return nil }

// Entries returns a copy of everything exported so far.
func (e *BufferedExporter) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Reset drops all buffered entries.
func (e *BufferedExporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}

// WriterExporter writes each entry as a JSON line to an io.Writer.
type WriterExporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterExporter wraps w. The caller retains ownership of w; Close
// does not close it.
func NewWriterExporter(w io.Writer) *WriterExporter {
	return &WriterExporter{w: w}
}

// Export marshals the entry and writes it followed by a newline.
func (e *WriterExporter) Export(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	_, err = e.w.Write([]byte("\n"))
	return err
}

// Flush does nothing; writes are unbuffered.
func (e *WriterExporter) Flush() error { return nil }

// Close does nothing.
func (e *WriterExporter) Close() error { return nil }
