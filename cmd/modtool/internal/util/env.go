// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import (
	"fmt"
	"regexp"
	"strings"
)

// envVarKeyPattern validates environment variable key names against POSIX
// conventions. Prevents shell metacharacter injection through keys.
var envVarKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrInvalidEnvVarKey is returned when an environment variable key is invalid.
var ErrInvalidEnvVarKey = fmt.Errorf("invalid environment variable key")

// =============================================================================
// ENV VAR
// =============================================================================

// EnvVar is a single typed environment variable with sensitivity marking
// for safe logging.
type EnvVar struct {
	// Key is the variable name. Must match [a-zA-Z_][a-zA-Z0-9_]*.
	Key string

	// Value may be empty (valid in POSIX).
	Value string

	// Sensitive marks the value for redaction in logs.
	Sensitive bool
}

// String returns the KEY=VALUE form used by exec.Cmd.Env.
func (e EnvVar) String() string {
	return fmt.Sprintf("%s=%s", e.Key, e.Value)
}

// Redacted returns KEY=[REDACTED] for sensitive vars, otherwise String().
func (e EnvVar) Redacted() string {
	if e.Sensitive {
		return fmt.Sprintf("%s=[REDACTED]", e.Key)
	}
	return e.String()
}

// Validate checks the key against POSIX naming conventions.
func (e EnvVar) Validate() error {
	if !envVarKeyPattern.MatchString(e.Key) {
		return fmt.Errorf("%w: %q must match pattern [a-zA-Z_][a-zA-Z0-9_]*", ErrInvalidEnvVarKey, e.Key)
	}
	return nil
}

// =============================================================================
// ENV VARS COLLECTION
// =============================================================================

// EnvVars is a validated, ordered collection of environment variables.
// Not safe for concurrent modification.
type EnvVars struct {
	vars []EnvVar
}

// NewEnvVars builds a collection, validating every key. Returns the first
// validation error encountered.
func NewEnvVars(vars ...EnvVar) (EnvVars, error) {
	for _, v := range vars {
		if err := v.Validate(); err != nil {
			return EnvVars{}, err
		}
	}
	return EnvVars{vars: vars}, nil
}

// Set replaces the value for key, or appends a new variable. The key is
// validated; invalid keys are rejected.
func (e *EnvVars) Set(key, value string) error {
	v := EnvVar{Key: key, Value: value}
	if err := v.Validate(); err != nil {
		return err
	}
	for i := range e.vars {
		if e.vars[i].Key == key {
			e.vars[i].Value = value
			return nil
		}
	}
	e.vars = append(e.vars, v)
	return nil
}

// Get returns the value for key and whether it was present.
func (e EnvVars) Get(key string) (string, bool) {
	for _, v := range e.vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Slice returns KEY=VALUE strings in insertion order.
func (e EnvVars) Slice() []string {
	out := make([]string, 0, len(e.vars))
	for _, v := range e.vars {
		out = append(out, v.String())
	}
	return out
}

// RedactedSlice returns log-safe KEY=VALUE strings with sensitive values
// replaced by [REDACTED].
func (e EnvVars) RedactedSlice() []string {
	out := make([]string, 0, len(e.vars))
	for _, v := range e.vars {
		out = append(out, v.Redacted())
	}
	return out
}

// MergeEnviron overlays overrides onto a base environment in os.Environ()
// form. Overridden keys keep their original position; new keys append in
// insertion order. The base slice is not modified.
func MergeEnviron(base []string, overrides EnvVars) []string {
	out := make([]string, 0, len(base)+len(overrides.vars))
	seen := make(map[string]bool, len(overrides.vars))

	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if value, ok := overrides.Get(key); ok {
			out = append(out, key+"="+value)
			seen[key] = true
			continue
		}
		out = append(out, entry)
	}

	for _, v := range overrides.vars {
		if !seen[v.Key] {
			out = append(out, v.String())
		}
	}
	return out
}
