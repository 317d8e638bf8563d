// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package normalize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/runlog"
)

// DefaultPattern matches run log file names.
const DefaultPattern = "*.jsonl"

var (
	// ErrNoRows is returned by Run when no log under the input root
	// yielded a metrics record.
	ErrNoRows = errors.New("no valid records with metrics found")

	// ErrNotDir is returned by Run when the input root is not a
	// directory.
	ErrNotDir = errors.New("input path is not a directory")
)

// A Driver normalizes every run log under a directory tree.
type Driver struct {
	// Pattern is the file name pattern of run logs, as for
	// filepath.Match. If empty, DefaultPattern is used.
	Pattern string

	// Warn, if non-nil, is called for logs that cannot be read.
	// Such logs contribute no rows.
	Warn func(format string, args ...interface{})
}

func (d *Driver) warn(format string, args ...interface{}) {
	if d.Warn != nil {
		d.Warn(format, args...)
	}
}

// Files returns the run logs under root, sorted by path.
func (d *Driver) Files(root string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, root)
	}
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			d.warn("%v", err)
			return nil
		}
		if de.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, de.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// File returns the rows for the run log at path.
//
// A log with exactly one metrics record and at most one auxiliary
// record yields one row built from both and from the log's text.
// Otherwise each metrics record yields a row of common columns only.
func (d *Driver) File(path string) ([]*dataset.Row, error) {
	l, err := runlog.ReadFile(path)
	if err != nil {
		return nil, err
	}
	metrics, aux := runlog.Classify(l.Records)
	if len(metrics) == 1 && len(aux) <= 1 {
		var a *runlog.Record
		if len(aux) == 1 {
			a = aux[0]
		}
		return []*dataset.Row{BuildRow(path, metrics[0], a, l.Text)}, nil
	}
	rows := make([]*dataset.Row, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, BuildFallbackRow(path, m))
	}
	return rows, nil
}

// Run normalizes every run log under root, in path order. It fails
// only if root cannot be listed or if no rows were produced.
func (d *Driver) Run(root string) (*dataset.Table, error) {
	paths, err := d.Files(root)
	if err != nil {
		return nil, err
	}
	t := new(dataset.Table)
	for _, path := range paths {
		rows, err := d.File(path)
		if err != nil {
			d.warn("skipping log: %v", err)
			continue
		}
		t.Append(rows...)
	}
	if t.Len() == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

// Normalize is shorthand for running a zero Driver over root.
func Normalize(root string) (*dataset.Table, error) {
	return new(Driver).Run(root)
}
