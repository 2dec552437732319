// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package starter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/modtool/pkg/logging"
)

// DirPluginReporter lists the plugin modules a dashboard run would pick
// up from a directory. It only inspects filenames; executing plugin code
// is the dashboard's job. Modules are Python files, and names starting
// with an underscore are internal and never reported.
type DirPluginReporter struct {
	dir    string
	logger *logging.Logger
}

// NewDirPluginReporter creates a reporter over dir. A nil logger falls
// back to a quiet one.
func NewDirPluginReporter(dir string, logger *logging.Logger) *DirPluginReporter {
	if logger == nil {
		logger = logging.New(logging.Config{Quiet: true})
	}
	return &DirPluginReporter{dir: dir, logger: logger}
}

// Report returns the discoverable plugin names in lexical order. A
// missing directory reports no plugins rather than an error; the
// required-paths gate owns creating it.
func (r *DirPluginReporter) Report(_ context.Context) ([]string, error) {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inspect plugin directory %s: %w", r.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("plugin path is not a directory: %s", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read plugin directory %s: %w", r.dir, err)
	}

	var loaded []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".py") || strings.HasPrefix(name, "_") {
			continue
		}
		loaded = append(loaded, strings.TrimSuffix(name, ".py"))
	}
	r.logger.Debug("plugin directory scanned", "dir", r.dir, "found", len(loaded))
	return loaded, nil
}

var _ PluginReporter = (*DirPluginReporter)(nil)
