// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset provides the tabular data model shared by the
// normalizer, the aggregation step and the economy step: ordered rows
// of named cells, with an explicit absent value, plus CSV input and
// output.
package dataset

// A Field is a single named cell of a Row.
type Field struct {
	Name  string
	Value Value
}

// A Row is an ordered set of named cells.
//
// Set appends new names to Fields and updates existing ones in place,
// so the column order of a row is the order in which its fields were
// first set. Rows may be initialized with a struct literal; the name
// index is built lazily.
type Row struct {
	Fields []Field

	// pos maps from Field.Name to index in Fields. nil means the
	// index needs to be constructed.
	pos map[string]int
}

// NewRow returns a row with the given alternating names and values.
func NewRow(kv ...interface{}) *Row {
	if len(kv)%2 != 0 {
		panic("len(kv) must be a multiple of 2")
	}
	r := new(Row)
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), Of(kv[i+1]))
	}
	return r
}

// Index returns the index in r.Fields of name.
func (r *Row) Index(name string) (pos int, ok bool) {
	if r.pos == nil {
		r.pos = make(map[string]int, len(r.Fields))
		for i, f := range r.Fields {
			r.pos[f.Name] = i
		}
	}
	pos, ok = r.pos[name]
	return
}

// Set sets field name to v, adding it at the end if necessary.
// Setting the absent Value keeps the field, marked absent.
func (r *Row) Set(name string, v Value) {
	if pos, ok := r.Index(name); ok {
		r.Fields[pos].Value = v
		return
	}
	r.pos[name] = len(r.Fields)
	r.Fields = append(r.Fields, Field{name, v})
}

// Get returns the value of field name, or the absent Value if r has
// no such field.
func (r *Row) Get(name string) Value {
	pos, ok := r.Index(name)
	if !ok {
		return Absent
	}
	return r.Fields[pos].Value
}

// Has reports whether r carries field name, absent or not.
func (r *Row) Has(name string) bool {
	_, ok := r.Index(name)
	return ok
}

// Names returns the field names of r in order.
func (r *Row) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone makes a copy of r that shares no state with r.
func (r *Row) Clone() *Row {
	return &Row{Fields: append([]Field(nil), r.Fields...)}
}
