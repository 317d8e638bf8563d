// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analyze aggregates a normalized benchmark table into one row
// per machine configuration and workload family.
//
// Aggregation groups the rows of one family by a set of key columns,
// computes the sample mean and standard deviation of measured columns,
// and derives rate columns from the means. Rows with an absent key are
// dropped. Groups come out in key order.
package analyze

import (
	"fmt"
	"math"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/family"
)

// A Spec describes the aggregation of one workload family.
type Spec struct {
	// Name identifies the family in file names and messages.
	Name string

	// Group selects the input rows by task_group.
	Group family.Group

	// Keys are the group-by columns, in order.
	Keys []string

	// Stats are the measured columns to summarize.
	Stats []Stat

	// Count, if non-empty, names a column holding the number of
	// non-absent values of Stats[0].From in each group.
	Count string

	// Derived columns are computed from the unrounded means.
	Derived []Derived

	// Order, if non-empty, stably re-sorts the output by these
	// columns after grouping.
	Order []string

	// File is the conventional output file name.
	File string
}

// A Stat summarizes one measured column.
type Stat struct {
	From string // input column

	Mean, Std string // output columns; Std may be empty

	// MeanDigits and StdDigits give the number of decimal places
	// to round to. Negative values keep full precision.
	MeanDigits, StdDigits int
}

// A Derived column is computed per group from the means.
type Derived struct {
	Name   string
	Digits int // negative keeps full precision

	// F computes the column. mean returns the unrounded value of a
	// Stat's Mean column.
	F func(mean func(col string) float64) float64
}

// Family aggregates the rows of t that belong to s.Group.
// The result is empty if no row qualifies.
func Family(t *dataset.Table, s *Spec) (*dataset.Table, error) {
	if len(s.Keys) == 0 || len(s.Stats) == 0 {
		return nil, fmt.Errorf("analyze %s: spec needs keys and stats", s.Name)
	}
	in := t.Filter(func(r *dataset.Row) bool {
		if g := r.Get("task_group"); g.IsAbsent() || g.String() != string(s.Group) {
			return false
		}
		for _, k := range s.Keys {
			if r.Get(k).IsAbsent() {
				return false
			}
		}
		return true
	})
	out := &dataset.Table{Header: s.Columns()}
	if in.Len() == 0 {
		return out, nil
	}

	var from []string
	seen := make(map[string]bool)
	for _, st := range s.Stats {
		if !seen[st.From] {
			seen[st.From] = true
			from = append(from, st.From)
		}
	}
	g := table.GroupBy(table.SortBy(in.Grouping(s.Keys, from), s.Keys...), s.Keys...)

	for _, gid := range g.Tables() {
		sub := g.Table(gid)
		row := new(dataset.Row)
		for _, k := range s.Keys {
			v, _ := sub.Const(k)
			row.Set(k, dataset.String(v.(string)))
		}

		means := make(map[string]float64)
		count := 0
		for i, st := range s.Stats {
			xs := present(sub.MustColumn(st.From).([]float64))
			if i == 0 {
				count = len(xs)
			}
			mean, std := summarize(xs)
			means[st.Mean] = mean
			row.Set(st.Mean, dataset.Float(round(mean, st.MeanDigits)))
			if st.Std != "" {
				row.Set(st.Std, dataset.Float(round(std, st.StdDigits)))
			}
		}
		if s.Count != "" {
			row.Set(s.Count, dataset.Int(int64(count)))
		}
		mean := func(col string) float64 {
			if m, ok := means[col]; ok {
				return m
			}
			return math.NaN()
		}
		for _, d := range s.Derived {
			row.Set(d.Name, dataset.Float(round(d.F(mean), d.Digits)))
		}
		out.Append(row)
	}

	if len(s.Order) > 0 {
		out.SortStable(func(a, b *dataset.Row) bool {
			for _, col := range s.Order {
				x, y := a.Get(col).String(), b.Get(col).String()
				if x != y {
					return x < y
				}
			}
			return false
		})
	}
	return out, nil
}

// present returns the non-NaN values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// summarize returns the mean and sample standard deviation of xs.
// The mean of no values and the deviation of fewer than two values
// are NaN.
func summarize(xs []float64) (mean, std float64) {
	mean, std = math.NaN(), math.NaN()
	if len(xs) == 0 {
		return
	}
	s := stats.Sample{Xs: xs}
	mean = s.Mean()
	if len(xs) >= 2 {
		std = s.StdDev()
	}
	return
}

// round rounds x to digits decimal places, half to even.
func round(x float64, digits int) float64 {
	if digits < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(digits))
	r := math.RoundToEven(x*p) / p
	if math.IsInf(r, 0) {
		return x
	}
	return r
}
