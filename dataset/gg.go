// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"math"

	"github.com/aclements/go-gg/table"
)

// Grouping converts t into a go-gg table with the given columns.
// Each of strCols becomes a []string column, with "" for absent
// cells. Each of numCols becomes a []float64 column, with NaN for
// absent or non-numeric cells.
func (t *Table) Grouping(strCols, numCols []string) *table.Table {
	var b table.Builder
	for _, name := range strCols {
		col := make([]string, len(t.Rows))
		for i, r := range t.Rows {
			col[i] = r.Get(name).String()
		}
		b.Add(name, col)
	}
	for _, name := range numCols {
		col := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			f, ok := r.Get(name).Float()
			if !ok {
				f = math.NaN()
			}
			col[i] = f
		}
		b.Add(name, col)
	}
	return b.Done()
}
