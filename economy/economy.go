// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package economy joins aggregated benchmark results with instance
// prices and ranks machines by performance per dollar.
//
// For each aggregate row the performance metric is divided by the
// hourly price of the instance. The normalized figure additionally
// scales by the ratio of the instance's vCPUs to the vCPUs the
// benchmark actually used, so machines of different sizes compare
// fairly.
package economy

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/cloudbench/analyze"
	"golang.org/x/cloudbench/chart"
	"golang.org/x/cloudbench/dataset"
)

// DefaultVCPUsUsed is the number of vCPUs the benchmarks are assumed
// to keep busy.
const DefaultVCPUsUsed = 2

// DefaultPricesFile is the price table looked up in the input
// directory when no other is given.
const DefaultPricesFile = "instance_prices.csv"

// A Kind selects how the performance metric of an aggregate is
// computed.
type Kind string

const (
	Stress Kind = "stressng"
	FFmpeg Kind = "ffmpeg"
	Numpy  Kind = "numpy"
)

// Kinds lists every Kind in processing order.
var Kinds = []Kind{Stress, FFmpeg, Numpy}

// Columns appended to each joined row.
const (
	colPrice  = "price_per_hour_usd"
	colVCPUs  = "vcpus"
	colMetric = "performance_metric"
	colRaw    = "performance_per_dollar_raw"
	colNorm   = "performance_per_dollar_norm"
)

var errNoTaskKind = errors.New("numpy aggregate has no task_kind column")

// Analyze joins agg with prices on instance_type and computes the
// performance per dollar of each row.
//
// Rows whose instance type has no price are dropped. A row matching
// several prices yields one output row per price. The result is
// sorted by normalized performance per dollar, best first; rows
// without a figure come last. vcpusUsed <= 0 means DefaultVCPUsUsed.
func Analyze(agg *dataset.Table, prices *PriceTable, kind Kind, vcpusUsed int) (*dataset.Table, error) {
	if vcpusUsed <= 0 {
		vcpusUsed = DefaultVCPUsUsed
	}
	metric, err := metricFunc(agg, kind)
	if err != nil {
		return nil, err
	}

	out := &dataset.Table{Header: append(agg.Columns(), colPrice, colVCPUs, colMetric, colRaw, colNorm)}
	for _, r := range agg.Rows {
		it := r.Get("instance_type")
		if it.IsAbsent() {
			continue
		}
		for _, p := range prices.Lookup(it.String()) {
			row := r.Clone()
			m := metric(r)
			raw := m / p.PerHourUSD
			norm := raw * (p.VCPUs / float64(vcpusUsed))
			row.Set(colPrice, priceValue(p.PerHourUSD))
			row.Set(colVCPUs, vcpuValue(p.VCPUs))
			row.Set(colMetric, finite(m))
			row.Set(colRaw, finite(raw))
			row.Set(colNorm, finite(norm))
			out.Append(row)
		}
	}

	out.SortStable(func(a, b *dataset.Row) bool {
		x, xok := a.Get(colNorm).Float()
		y, yok := b.Get(colNorm).Float()
		if !xok || !yok {
			return xok && !yok
		}
		return x > y
	})
	return out, nil
}

// metricFunc returns the performance metric of kind. Bigger is
// better.
func metricFunc(agg *dataset.Table, kind Kind) (func(*dataset.Row) float64, error) {
	get := func(col string) func(*dataset.Row) float64 {
		return func(r *dataset.Row) float64 {
			if f, ok := r.Get(col).Float(); ok {
				return f
			}
			return math.NaN()
		}
	}
	switch kind {
	case Stress:
		return get("mean_ops_real"), nil
	case FFmpeg, Numpy:
		if agg.HasColumn("relative_speed") {
			return get("relative_speed"), nil
		}
		wall := get("mean_wall_s")
		return func(r *dataset.Row) float64 { return 1 / wall(r) }, nil
	}
	return nil, fmt.Errorf("unknown aggregate kind %q", kind)
}

// finite returns f as a Value, or absent for NaN and infinities.
func finite(f float64) dataset.Value {
	if math.IsInf(f, 0) {
		return dataset.Absent
	}
	return dataset.Float(f)
}

// ByTask splits a numpy aggregate into one table per task_kind, in
// task order.
func ByTask(t *dataset.Table) ([]string, []*dataset.Table, error) {
	if !t.HasColumn("task_kind") {
		return nil, nil, errNoTaskKind
	}
	tasks := t.Distinct("task_kind")
	tabs := make([]*dataset.Table, len(tasks))
	for i, task := range tasks {
		tabs[i] = t.Filter(dataset.Eq("task_kind", task))
		tabs[i].Header = t.Header
	}
	return tasks, tabs, nil
}

// Options configures Run.
type Options struct {
	// InputDir holds the aggregate CSV files.
	InputDir string

	// OutputDir receives the economy tables and charts. It defaults
	// to InputDir.
	OutputDir string

	// Prices is the price table file. It defaults to
	// DefaultPricesFile in InputDir.
	Prices string

	// VCPUsUsed defaults to DefaultVCPUsUsed.
	VCPUsUsed int

	// Charts enables the perf-per-dollar PNG charts.
	Charts bool

	// Warn, if non-nil, is called for missing aggregate files.
	Warn func(format string, args ...interface{})
}

// An Output is one economy table and the files written for it.
type Output struct {
	Name  string // e.g. "ffmpeg" or "numpy_numpy.matmul"
	Title string
	Table *dataset.Table
	CSV   string
	PNG   string // empty if no chart was drawn
}

// Run reads the aggregate files of every Kind from opts.InputDir,
// prices them, and writes <name>_economy.csv, and with opts.Charts
// <name>_perf_per_dollar.png, to opts.OutputDir.
func Run(opts Options) ([]Output, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = opts.InputDir
	}
	if opts.Prices == "" {
		opts.Prices = filepath.Join(opts.InputDir, DefaultPricesFile)
	}
	if opts.VCPUsUsed <= 0 {
		opts.VCPUsUsed = DefaultVCPUsUsed
	}
	warn := opts.Warn
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}

	prices, err := LoadPrices(opts.Prices)
	if err != nil {
		return nil, err
	}

	var outs []Output
	for _, kind := range Kinds {
		spec, _ := analyze.Lookup(string(kind))
		path := filepath.Join(opts.InputDir, spec.File)
		agg, err := dataset.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			warn("%s: file not found, skipping", path)
			continue
		}
		if err != nil {
			return nil, err
		}

		res, err := Analyze(agg, prices, kind, opts.VCPUsUsed)
		if err != nil {
			return nil, err
		}
		names := []string{string(kind)}
		tabs := []*dataset.Table{res}
		if kind == Numpy {
			// Tasks with no priced instance are dropped by the join.
			tasks, split, err := ByTask(res)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			names, tabs = names[:0], split
			for _, task := range tasks {
				names = append(names, "numpy_"+task)
			}
		}

		for i, res := range tabs {
			o := Output{
				Name:  names[i],
				Title: fmt.Sprintf("Performance per dollar - %s (normalized to %d vCPU)", displayName(names[i]), opts.VCPUsUsed),
				Table: res,
				CSV:   filepath.Join(opts.OutputDir, names[i]+"_economy.csv"),
			}
			if err := dataset.WriteFile(o.CSV, res); err != nil {
				return nil, err
			}
			if bars := chart.BarsOf(res, colNorm); opts.Charts && len(bars) > 0 {
				o.PNG = filepath.Join(opts.OutputDir, names[i]+"_perf_per_dollar.png")
				c := &chart.Chart{
					Title:  o.Title,
					XLabel: "instance_type (arch)",
					YLabel: colNorm,
					Bars:   bars,
				}
				if err := c.WriteFile(o.PNG); err != nil {
					return nil, err
				}
			}
			outs = append(outs, o)
		}
	}
	return outs, nil
}

func displayName(name string) string {
	if name == string(Stress) {
		return "stress-ng"
	}
	return name
}
