// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analyze

import (
	"path/filepath"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/family"
)

// Numpy aggregates numpy runs per machine and numpy task.
// relative_speed is runs per second.
var Numpy = &Spec{
	Name:  "numpy",
	Group: family.Numpy,
	Keys:  []string{"cloud_provider", "arch", "instance_type", "task_kind"},
	Stats: []Stat{
		{From: "wall_s", Mean: "mean_wall_s", Std: "std_wall_s", MeanDigits: 3, StdDigits: 3},
	},
	Count: "runs",
	Derived: []Derived{
		{Name: "relative_speed", Digits: 3, F: func(mean func(string) float64) float64 {
			return 1 / mean("mean_wall_s")
		}},
	},
	File: "numpy_aggregated.csv",
}

// FFmpeg aggregates ffmpeg runs per machine. relative_speed is
// encoded seconds of the 10 second test source per wall second.
var FFmpeg = &Spec{
	Name:  "ffmpeg",
	Group: family.FFmpeg,
	Keys:  []string{"cloud_provider", "arch", "instance_type"},
	Stats: []Stat{
		{From: "wall_s", Mean: "mean_wall_s", Std: "std_wall_s", MeanDigits: 2, StdDigits: 2},
	},
	Count: "runs",
	Derived: []Derived{
		{Name: "relative_speed", Digits: 3, F: func(mean func(string) float64) float64 {
			return 10 / mean("mean_wall_s")
		}},
	},
	Order: []string{"arch", "instance_type"},
	File:  "ffmpeg_aggregated.csv",
}

// Stress aggregates stress-ng runs per machine. scaling_coeff is the
// ratio of CPU-time to wall-time throughput, which approaches the
// number of busy workers.
var Stress = &Spec{
	Name:  "stressng",
	Group: family.Synthetic,
	Keys:  []string{"cloud_provider", "arch", "instance_type"},
	Stats: []Stat{
		{From: "stress_bogo_ops_per_s_real", Mean: "mean_ops_real", Std: "std_ops_real", MeanDigits: 2, StdDigits: -1},
		{From: "stress_bogo_ops_per_s_usr_sys", Mean: "mean_ops_usr_sys", Std: "std_ops_usr_sys", MeanDigits: 2, StdDigits: -1},
	},
	Count: "runs",
	Derived: []Derived{
		{Name: "scaling_coeff", Digits: 2, F: func(mean func(string) float64) float64 {
			return mean("mean_ops_usr_sys") / mean("mean_ops_real")
		}},
	},
	Order: []string{"arch", "instance_type"},
	File:  "stressng_aggregated.csv",
}

// Specs lists the aggregations of every family.
var Specs = []*Spec{Numpy, FFmpeg, Stress}

// Lookup returns the Spec with the given name.
func Lookup(name string) (*Spec, bool) {
	for _, s := range Specs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// A Result is the aggregate of one family and the file it was
// written to.
type Result struct {
	Spec  *Spec
	Table *dataset.Table
	Path  string
}

// WriteAll aggregates t with each of specs and writes each result to
// dir under its Spec's File name. Families with no rows still get a
// file with only a header.
func WriteAll(t *dataset.Table, dir string, specs ...*Spec) ([]Result, error) {
	if len(specs) == 0 {
		specs = Specs
	}
	var out []Result
	for _, s := range specs {
		agg, err := Family(t, s)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, s.File)
		if err := dataset.WriteFile(path, agg); err != nil {
			return nil, err
		}
		out = append(out, Result{s, agg, path})
	}
	return out, nil
}

// Columns returns the output columns of s, in order.
func (s *Spec) Columns() []string {
	cols := append([]string(nil), s.Keys...)
	for _, st := range s.Stats {
		cols = append(cols, st.Mean)
		if st.Std != "" {
			cols = append(cols, st.Std)
		}
	}
	if s.Count != "" {
		cols = append(cols, s.Count)
	}
	for _, d := range s.Derived {
		cols = append(cols, d.Name)
	}
	return cols
}
