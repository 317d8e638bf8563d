// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runlog

import (
	"io"
	"os"

	"golang.org/x/cloudbench/dataset"
)

// A Record is a structured record: one JSON object from a run log.
//
// A record that has a "metrics" field is a metrics record; any other
// record is auxiliary. The distinction is made by IsMetrics, not by a
// type tag, so records of unexpected shape are still carried along.
type Record struct {
	// Fields is the decoded object. Numbers are json.Number.
	Fields map[string]interface{}

	fileName string
	line     int
}

// Pos returns the position the record was read from. For records not
// read by a Reader, it returns "", 0.
func (r *Record) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// IsMetrics reports whether r carries a "metrics" field.
func (r *Record) IsMetrics() bool {
	_, ok := r.Fields["metrics"]
	return ok
}

// Get returns field key of r as a Value. A missing field or JSON null
// is absent. Get on a nil record returns the absent Value.
func (r *Record) Get(key string) dataset.Value {
	if r == nil {
		return dataset.Absent
	}
	return dataset.Of(r.Fields[key])
}

// Object returns the sub-document in field key. If the field is
// missing or is not a JSON object, Object returns an empty record.
func (r *Record) Object(key string) *Record {
	sub := &Record{}
	if r == nil {
		return sub
	}
	sub.fileName, sub.line = r.fileName, r.line
	if m, ok := r.Fields[key].(map[string]interface{}); ok {
		sub.Fields = m
	}
	return sub
}

// A Log is the content of one run log, split into its structured
// records and its text lines, each in file order.
type Log struct {
	Name    string
	Records []*Record
	Text    []string
}

// Split reads a whole run log from r. Blank lines are dropped. The
// only errors are I/O errors.
func Split(r io.Reader, name string) (*Log, error) {
	l := &Log{Name: name}
	rd := NewReader(r, name)
	for rd.Scan() {
		switch e := rd.Entry().(type) {
		case *Record:
			l.Records = append(l.Records, e)
		case *TextLine:
			l.Text = append(l.Text, e.Text)
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// ReadFile reads and splits the run log at path.
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Split(f, path)
}

// Classify partitions records into metrics records and auxiliary
// records. Order within each partition follows records.
func Classify(records []*Record) (metrics, aux []*Record) {
	for _, r := range records {
		if r.IsMetrics() {
			metrics = append(metrics, r)
		} else {
			aux = append(aux, r)
		}
	}
	return metrics, aux
}
