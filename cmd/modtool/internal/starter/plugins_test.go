// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package starter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirPluginReporter_MissingDirReportsNothing(t *testing.T) {
	reporter := NewDirPluginReporter(filepath.Join(t.TempDir(), "plugins"), nil)

	loaded, err := reporter.Report(context.Background())

	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDirPluginReporter_EmptyDirReportsNothing(t *testing.T) {
	dir := t.TempDir()
	reporter := NewDirPluginReporter(dir, nil)

	loaded, err := reporter.Report(context.Background())

	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDirPluginReporter_ListsPluginModules(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zoom_helper.py", "genre_tools.py", "_internal.py", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("# plugin\n"), 0o640))
	}
	// A directory with a module-looking name must not be reported.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "legacy.py"), 0o750))

	reporter := NewDirPluginReporter(dir, nil)
	loaded, err := reporter.Report(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"genre_tools", "zoom_helper"}, loaded)
}

func TestDirPluginReporter_PathMustBeDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins")
	require.NoError(t, os.WriteFile(path, []byte("not a dir"), 0o640))

	reporter := NewDirPluginReporter(path, nil)
	loaded, err := reporter.Report(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
	assert.Nil(t, loaded)
}
