// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package board maintains the ordered ledger of startup check results.
//
// Every bootstrap run creates one fresh Board, records each step exactly
// once, and reads back the progress percentage, the formatted status lines,
// and the single ok/warning/error rollup the caller renders as a status
// light. Line order is recording order; log readability depends on it.
package board

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// =============================================================================
// STATUS
// =============================================================================

// Status classifies one startup step outcome.
type Status string

const (
	// StatusOK means the step completed cleanly.
	StatusOK Status = "ok"

	// StatusWarning means the step completed with a recoverable problem.
	StatusWarning Status = "warning"

	// StatusError means the step failed.
	StatusError Status = "error"

	// StatusCreated means a resource was provisioned fresh.
	StatusCreated Status = "created"

	// StatusPresent means an existing resource was reused.
	StatusPresent Status = "present"

	// StatusSkipped means the step had nothing to do. Not a failure.
	StatusSkipped Status = "skipped"

	// StatusAborted means the step was killed at its deadline.
	StatusAborted Status = "aborted"

	// StatusUnknown is the normalization target for unrecognized inputs.
	StatusUnknown Status = "unknown"
)

// Good reports whether the status counts toward the progress percentage.
func (s Status) Good() bool {
	switch s {
	case StatusOK, StatusPresent, StatusCreated, StatusSkipped:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is a member of the enum.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusWarning, StatusError, StatusCreated,
		StatusPresent, StatusSkipped, StatusAborted, StatusUnknown:
		return true
	default:
		return false
	}
}

// ParseStatus normalizes a raw status token into the enum. Legacy failure
// tokens from earlier manifest formats map onto their modern class;
// anything unrecognized becomes StatusUnknown rather than an error.
func ParseStatus(raw string) Status {
	s := Status(raw)
	if s.Valid() {
		return s
	}
	switch raw {
	case "failed", "fehler", "fehlgeschlagen":
		return StatusError
	case "warnung", "kompilierungswarnung":
		return StatusWarning
	case "übersprungen":
		return StatusSkipped
	default:
		return StatusUnknown
	}
}

// =============================================================================
// STEP
// =============================================================================

// Grouped sentinel errors for step construction and recording.
var (
	// ErrEmptyKey is returned when a step key is empty.
	ErrEmptyKey = errors.New("step key must not be empty")

	// ErrEmptyTitle is returned when a step title is empty.
	ErrEmptyTitle = errors.New("step title must not be empty")

	// ErrDuplicateKey is returned when a key is recorded twice on one board.
	ErrDuplicateKey = errors.New("step key already recorded")
)

// Step is one immutable startup check result.
type Step struct {
	// Key uniquely identifies the step within one run ("virtualenv").
	Key string

	// Title is the human-readable step name ("Virtual Environment").
	Title string

	// Status is the outcome classification.
	Status Status

	// Detail is optional free text shown after the status.
	Detail string
}

// NewStep validates and builds a Step. Key and title must be non-empty;
// an out-of-enum status is normalized through ParseStatus.
func NewStep(key, title string, status Status, detail string) (Step, error) {
	if key == "" {
		return Step{}, ErrEmptyKey
	}
	if title == "" {
		return Step{}, fmt.Errorf("%w: key %q", ErrEmptyTitle, key)
	}
	if !status.Valid() {
		status = ParseStatus(string(status))
	}
	return Step{Key: key, Title: title, Status: status, Detail: detail}, nil
}

// Line formats the step as "{title}: {status} – {detail}", omitting the
// detail segment when empty.
func (s Step) Line() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s: %s", s.Title, s.Status)
	}
	return fmt.Sprintf("%s: %s – %s", s.Title, s.Status, s.Detail)
}

// =============================================================================
// BOARD
// =============================================================================

// Board is an insertion-ordered, append-only ledger of startup steps.
//
// # Description
//
// One Board exists per bootstrap run. Steps are recorded once and never
// mutated; all read methods return copies. The zero number of steps is a
// valid state reported as zero progress.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The bootstrap sequence records
// from one goroutine, but the feedback path may read concurrently.
type Board struct {
	mu    sync.Mutex
	steps []Step
	keys  map[string]struct{}
}

// New creates an empty board.
func New() *Board {
	return &Board{keys: make(map[string]struct{})}
}

// Record appends a validated step. Rejects empty keys/titles and keys
// already present on this board.
func (b *Board) Record(step Step) error {
	if step.Key == "" {
		return ErrEmptyKey
	}
	if step.Title == "" {
		return fmt.Errorf("%w: key %q", ErrEmptyTitle, step.Key)
	}
	if !step.Status.Valid() {
		step.Status = ParseStatus(string(step.Status))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.keys[step.Key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, step.Key)
	}
	b.keys[step.Key] = struct{}{}
	b.steps = append(b.steps, step)
	return nil
}

// Add builds and records a step in one call.
func (b *Board) Add(key, title string, status Status, detail string) error {
	step, err := NewStep(key, title, status, detail)
	if err != nil {
		return err
	}
	return b.Record(step)
}

// Steps returns a copy of all recorded steps in recording order.
func (b *Board) Steps() []Step {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Len returns the number of recorded steps.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.steps)
}

// Lines returns one formatted line per step in recording order.
func (b *Board) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.steps))
	for _, step := range b.steps {
		out = append(out, step.Line())
	}
	return out
}

// Progress returns the completion percentage and its narrative label.
// Percent is round(100*G/N) where G counts steps in a good state. An
// empty board yields (0, "no checks recorded").
func (b *Board) Progress() (int, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := len(b.steps)
	if total == 0 {
		return 0, "no checks recorded"
	}

	good := 0
	for _, step := range b.steps {
		if step.Status.Good() {
			good++
		}
	}

	percent := int(math.Round(100 * float64(good) / float64(total)))
	return percent, fmt.Sprintf("%d%% – %d/%d steps stable", percent, good, total)
}

// Classify rolls every recorded status into the single overall signal:
// error beats warning beats ok. Aborted steps count as warnings; skipped
// and unknown steps never degrade the rollup.
func (b *Board) Classify() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	overall := StatusOK
	for _, step := range b.steps {
		switch step.Status {
		case StatusError:
			return StatusError
		case StatusWarning, StatusAborted:
			overall = StatusWarning
		}
	}
	return overall
}

// Summary returns the caller-facing map: every step key mapped to its
// status, a "{key}_info" companion for non-empty details, and the
// synthesized "gesamt" overall key.
func (b *Board) Summary() map[string]string {
	b.mu.Lock()
	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	b.mu.Unlock()

	out := make(map[string]string, 2*len(steps)+1)
	for _, step := range steps {
		out[step.Key] = string(step.Status)
		if step.Detail != "" {
			out[step.Key+"_info"] = step.Detail
		}
	}
	out["gesamt"] = string(b.Classify())
	return out
}
