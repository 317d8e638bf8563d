// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import "sort"

// A Table is an ordered collection of rows. Rows need not share a
// column set; the table's columns are the union of its rows' fields.
type Table struct {
	// Header lists columns that come first, even if no row carries
	// them. It may be nil.
	Header []string

	Rows []*Row
}

// Append adds rows to the end of t.
func (t *Table) Append(rows ...*Row) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns t.Header followed by the remaining field names of
// t's rows, in order of first appearance.
func (t *Table) Columns() []string {
	cols := append([]string(nil), t.Header...)
	seen := make(map[string]bool)
	for _, c := range cols {
		seen[c] = true
	}
	for _, r := range t.Rows {
		for _, f := range r.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				cols = append(cols, f.Name)
			}
		}
	}
	return cols
}

// HasColumn reports whether t's header or any row of t carries field
// name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Header {
		if c == name {
			return true
		}
	}
	for _, r := range t.Rows {
		if r.Has(name) {
			return true
		}
	}
	return false
}

// Column returns the values of field name, one per row.
func (t *Table) Column(name string) []Value {
	vals := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		vals[i] = r.Get(name)
	}
	return vals
}

// Filter returns a table of the rows of t for which keep returns true.
// The rows are shared with t.
func (t *Table) Filter(keep func(r *Row) bool) *Table {
	out := new(Table)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Eq returns a predicate for Filter that matches rows whose field
// name formats to val.
func Eq(name, val string) func(*Row) bool {
	return func(r *Row) bool {
		v := r.Get(name)
		return !v.IsAbsent() && v.String() == val
	}
}

// SortStable sorts t's rows in place using less, keeping the order of
// equal rows.
func (t *Table) SortStable(less func(a, b *Row) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return less(t.Rows[i], t.Rows[j])
	})
}

// Distinct returns the distinct non-absent values of field name,
// formatted as strings, in sorted order.
func (t *Table) Distinct(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		v := r.Get(name)
		if v.IsAbsent() {
			continue
		}
		s := v.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
