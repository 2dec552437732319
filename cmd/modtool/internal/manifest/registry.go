// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/modtool/pkg/logging"
)

// =============================================================================
// STATUS
// =============================================================================

// Status classifies the outcome of an Ensure call.
type Status string

const (
	// StatusPresent means a valid document already existed.
	StatusPresent Status = "present"

	// StatusCreated means the document was regenerated from defaults.
	StatusCreated Status = "created"
)

// Result is the outcome of one Ensure call.
type Result struct {
	// Status is present or created.
	Status Status

	// Detail carries the version stamps (present) or the new stamp
	// (created) for the board line.
	Detail string
}

// =============================================================================
// INTERFACE
// =============================================================================

// Registry guarantees a valid manifest document exists on disk.
type Registry interface {
	// Ensure reads the document and regenerates it when invalid.
	//
	// # Description
	//
	// Fail-open by design: a missing, malformed, or structurally
	// invalid document is never an error. It is replaced wholesale by
	// the default document stamped with a fresh version, and the call
	// reports created. Concurrent callers are collapsed into one
	// read-or-regenerate pass.
	//
	// # Outputs
	//
	//   - Result: present with both versions joined, or created with
	//     the new stamp
	Ensure(ctx context.Context) Result

	// Read returns the current document if it is valid.
	Read() (Document, error)

	// Versions re-reads the document and reports both version stamps.
	Versions() (string, error)
}

// =============================================================================
// DEFAULT IMPLEMENTATION
// =============================================================================

// DefaultRegistry maintains the manifest at a fixed path.
type DefaultRegistry struct {
	path   string
	logger *logging.Logger
	flight singleflight.Group

	// mu guards lastStamp, the monotonic version guard.
	mu        sync.Mutex
	lastStamp string
}

// NewDefaultRegistry creates a registry for the manifest at path. A nil
// logger falls back to a quiet one.
func NewDefaultRegistry(path string, logger *logging.Logger) *DefaultRegistry {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	return &DefaultRegistry{path: path, logger: logger}
}

// Ensure reads the document and regenerates it when invalid. Concurrent
// calls share one pass through singleflight.
func (r *DefaultRegistry) Ensure(ctx context.Context) Result {
	value, _, _ := r.flight.Do("ensure", func() (interface{}, error) {
		return r.ensure(), nil
	})
	return value.(Result)
}

// Read returns the current document if it parses and validates.
func (r *DefaultRegistry) Read() (Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return Document{}, fmt.Errorf("read manifest %s: %w", r.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse manifest %s: %w", r.path, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("validate manifest %s: %w", r.path, err)
	}
	return doc, nil
}

// Versions re-reads the document and reports both version stamps.
func (r *DefaultRegistry) Versions() (string, error) {
	doc, err := r.Read()
	if err != nil {
		return "", err
	}
	return joinVersions(doc.Structure.Version, doc.Layout.Version), nil
}

func (r *DefaultRegistry) ensure() Result {
	doc, err := r.Read()
	if err == nil {
		return Result{
			Status: StatusPresent,
			Detail: joinVersions(doc.Structure.Version, doc.Layout.Version),
		}
	}

	r.logger.Warn("manifest invalid, regenerating", "path", r.path, "reason", err)
	stamp := r.nextStamp()
	fresh := DefaultDocument(stamp)
	if werr := r.write(fresh); werr != nil {
		r.logger.Error("manifest regeneration failed", "path", r.path, "error", werr)
		return Result{
			Status: StatusCreated,
			Detail: fmt.Sprintf("regeneration failed: %v", werr),
		}
	}

	r.logger.Info("manifest regenerated", "path", r.path, "version", stamp)
	return Result{
		Status: StatusCreated,
		Detail: fmt.Sprintf("regenerated at version %s", stamp),
	}
}

// write persists the document whole-file so concurrent readers see either
// the old or the new content, never a torn state.
func (r *DefaultRegistry) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("write manifest %s: %w", r.path, err)
	}
	return nil
}

// nextStamp produces a version stamp strictly greater than any stamp this
// registry produced before, bumping by a millisecond when the clock has
// not advanced.
func (r *DefaultRegistry) nextStamp() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := time.Now().Format(VersionLayout)
	if r.lastStamp != "" && stamp <= r.lastStamp {
		if last, err := time.Parse(VersionLayout, r.lastStamp); err == nil {
			stamp = last.Add(time.Millisecond).Format(VersionLayout)
		}
	}
	r.lastStamp = stamp
	return stamp
}

func joinVersions(structure, layout string) string {
	return fmt.Sprintf("structure v%s, layout v%s", structure, layout)
}

// Compile-time interface compliance check.
var _ Registry = (*DefaultRegistry)(nil)
