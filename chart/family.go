// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/cloudbench/dataset"
)

// A Metric names the aggregate column charted for a family.
type Metric struct {
	Family string // file name prefix, e.g. "ffmpeg"
	Title  string // human-readable family name
	Column string
	Label  string // Y axis label
}

// Metrics lists the charted column of each aggregated family.
var Metrics = []Metric{
	{Family: "numpy", Title: "NumPy", Column: "mean_wall_s", Label: "mean wall time, s"},
	{Family: "ffmpeg", Title: "FFmpeg", Column: "mean_wall_s", Label: "mean wall time, s"},
	{Family: "stressng", Title: "stress-ng", Column: "mean_ops_real", Label: "bogo ops/s (real)"},
}

// archFiles maps each charted architecture to its file suffix.
var archFiles = []struct{ arch, suffix string }{
	{"aarch64", "arm64"},
	{"x86_64", "amd64"},
}

// Family returns the charts of an aggregate: one per architecture
// with bars sorted ascending by the metric, and one comparing both
// architectures. Charts are keyed by file base name. Architectures
// without rows get no chart.
func Family(agg *dataset.Table, m Metric) map[string]*Chart {
	label := func(r *dataset.Row) string {
		it := r.Get("instance_type").String()
		if task, ok := r.Get("task_kind").Str(); ok {
			return it + " " + task
		}
		return it
	}
	all := bars(agg, m.Column, label)
	sortBars(all)

	out := make(map[string]*Chart)
	for _, a := range archFiles {
		var bs []Bar
		for _, b := range all {
			if b.Arch == a.arch {
				bs = append(bs, b)
			}
		}
		if len(bs) == 0 {
			continue
		}
		out[fmt.Sprintf("%s_%s.png", m.Family, a.suffix)] = &Chart{
			Title:  fmt.Sprintf("%s results for %s", m.Title, archNames[a.arch]),
			XLabel: "instance type",
			YLabel: m.Label,
			Bars:   bs,
		}
	}
	if len(all) > 0 {
		out[m.Family+"_comparison.png"] = &Chart{
			Title:  fmt.Sprintf("%s results by architecture", m.Title),
			XLabel: "instance type",
			YLabel: m.Label,
			Bars:   all,
		}
	}
	return out
}

// WriteFamily draws the charts of agg into dir and returns the paths
// written, in sorted order.
func WriteFamily(dir string, agg *dataset.Table, m Metric) ([]string, error) {
	charts := Family(agg, m)
	var paths []string
	for _, name := range sortedKeys(charts) {
		path := filepath.Join(dir, name)
		if err := charts[name].WriteFile(path); err != nil {
			if errors.Is(err, ErrEmpty) {
				continue
			}
			return paths, fmt.Errorf("%s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteAll charts every aggregate file found in dir, writing the
// images next to it. Missing aggregate files are skipped.
func WriteAll(dir string) ([]string, error) {
	var paths []string
	for _, m := range Metrics {
		agg, err := dataset.ReadFile(filepath.Join(dir, m.Family+"_aggregated.csv"))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return paths, err
		}
		ps, err := WriteFamily(dir, agg, m)
		paths = append(paths, ps...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func sortedKeys(m map[string]*Chart) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
