// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package family maps benchmark task kinds to workload families and
// extracts the fields specific to each family.
//
// A family's fields come from three places: the run's command string,
// the auxiliary record paired with the metrics record (if any), and
// the program's text output. Extraction never fails. A pattern that
// does not match contributes no fields.
package family

import (
	"strings"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/runlog"
)

// A Group is a workload family tag, as written to the task_group
// column.
type Group string

const (
	None      Group = "" // no task kind
	Numpy     Group = "numpy"
	FFmpeg    Group = "ffmpeg"
	Synthetic Group = "synthetic" // stress-ng
	Other     Group = "other"
)

// GroupOf returns the family of a task kind.
func GroupOf(taskKind string) Group {
	switch {
	case taskKind == "":
		return None
	case strings.HasPrefix(taskKind, "numpy"):
		return Numpy
	case taskKind == "ffmpeg":
		return FFmpeg
	case taskKind == "stress-ng":
		return Synthetic
	}
	return Other
}

// Input is what an Extractor may look at.
type Input struct {
	// Cmd is the command line the run executed.
	Cmd string
	// Aux is the auxiliary record paired with the metrics record,
	// or nil.
	Aux *runlog.Record
	// Text is the run's text output, in order.
	Text []string
}

// An Extractor returns the family-specific fields for a run, in
// column order.
type Extractor func(in Input) []dataset.Field

var extractors = map[Group]Extractor{
	Numpy:     numpyFields,
	FFmpeg:    ffmpegFields,
	Synthetic: stressFields,
}

// Lookup returns the extractor for family g. Other and None have no
// extractor.
func Lookup(g Group) (Extractor, bool) {
	x, ok := extractors[g]
	return x, ok
}

// Extract applies the extractor for family g to in.
func Extract(g Group, in Input) []dataset.Field {
	x, ok := Lookup(g)
	if !ok {
		return nil
	}
	return x(in)
}
