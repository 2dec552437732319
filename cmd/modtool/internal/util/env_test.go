// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package util

import (
	"errors"
	"reflect"
	"testing"
)

func TestEnvVar_Validate(t *testing.T) {
	valid := []string{"MOD_TOOL_BOOTSTRAPPED", "_private", "PATH", "a1"}
	for _, key := range valid {
		if err := (EnvVar{Key: key}).Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", key, err)
		}
	}

	invalid := []string{"", "1ABC", "FOO-BAR", "FOO BAR", "FOO=BAR"}
	for _, key := range invalid {
		err := (EnvVar{Key: key}).Validate()
		if !errors.Is(err, ErrInvalidEnvVarKey) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidEnvVarKey", key, err)
		}
	}
}

func TestEnvVar_Redacted(t *testing.T) {
	open := EnvVar{Key: "MODE", Value: "dev"}
	if got := open.Redacted(); got != "MODE=dev" {
		t.Errorf("Redacted() = %q, want MODE=dev", got)
	}

	secret := EnvVar{Key: "TOKEN", Value: "abc123", Sensitive: true}
	if got := secret.Redacted(); got != "TOKEN=[REDACTED]" {
		t.Errorf("Redacted() = %q, want TOKEN=[REDACTED]", got)
	}
}

func TestNewEnvVars_RejectsInvalidKey(t *testing.T) {
	_, err := NewEnvVars(
		EnvVar{Key: "GOOD", Value: "1"},
		EnvVar{Key: "bad-key", Value: "2"},
	)
	if !errors.Is(err, ErrInvalidEnvVarKey) {
		t.Errorf("NewEnvVars error = %v, want ErrInvalidEnvVarKey", err)
	}
}

func TestEnvVars_SetReplacesAndAppends(t *testing.T) {
	envs, err := NewEnvVars(EnvVar{Key: "A", Value: "1"})
	if err != nil {
		t.Fatalf("NewEnvVars error = %v", err)
	}

	if err := envs.Set("A", "2"); err != nil {
		t.Fatalf("Set(A) error = %v", err)
	}
	if err := envs.Set("B", "3"); err != nil {
		t.Fatalf("Set(B) error = %v", err)
	}
	if err := envs.Set("no spaces", "x"); err == nil {
		t.Error("Set with invalid key succeeded, want error")
	}

	want := []string{"A=2", "B=3"}
	if got := envs.Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}
}

func TestMergeEnviron(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root", "LANG=C"}
	overrides, err := NewEnvVars(
		EnvVar{Key: "HOME", Value: "/tmp"},
		EnvVar{Key: "MOD_TOOL_BOOTSTRAPPED", Value: "1"},
	)
	if err != nil {
		t.Fatalf("NewEnvVars error = %v", err)
	}

	got := MergeEnviron(base, overrides)
	want := []string{"PATH=/usr/bin", "HOME=/tmp", "LANG=C", "MOD_TOOL_BOOTSTRAPPED=1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeEnviron = %v, want %v", got, want)
	}

	// Base slice must not be modified.
	if base[1] != "HOME=/root" {
		t.Errorf("base was modified: %v", base)
	}
}
