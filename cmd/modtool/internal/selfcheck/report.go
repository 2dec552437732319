// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selfcheck

import (
	"github.com/AleutianAI/modtool/cmd/modtool/internal/board"
)

// Report is the ordered outcome of one full check pass. It reads like a
// board because it is one: classification, summary, and line formatting
// are defined in exactly one place.
type Report struct {
	board *board.Board
}

// NewReport creates an empty report. Checker implementations fill it one
// gate at a time through Add.
func NewReport() *Report {
	return &Report{board: board.New()}
}

// Add records one gate result. Gate keys are fixed constants recorded
// once per pass, so a recording error is a programming bug and panics.
func (r *Report) Add(key, title string, status board.Status, detail string) {
	if err := r.board.Add(key, title, status, detail); err != nil {
		panic("selfcheck: duplicate or invalid gate record: " + err.Error())
	}
}

// Checks returns every gate result in execution order.
func (r *Report) Checks() []board.Step {
	return r.board.Steps()
}

// Lines returns one formatted line per gate in execution order.
func (r *Report) Lines() []string {
	return r.board.Lines()
}

// Classify rolls the gate results into the single overall signal.
func (r *Report) Classify() board.Status {
	return r.board.Classify()
}

// Summary returns the key/status map including per-gate "_info" details
// and the "gesamt" rollup.
func (r *Report) Summary() map[string]string {
	return r.board.Summary()
}

// HumanSummary is the one-line narrative for logs and the monitor:
// "overall <rollup>, <progress label>".
func (r *Report) HumanSummary() string {
	_, label := r.board.Progress()
	return "overall " + string(r.Classify()) + ", " + label
}
