// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package normalize turns benchmark run logs into a normalized table
// with one row per run.
package normalize

import (
	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/family"
	"golang.org/x/cloudbench/runlog"
)

// CommonColumns are the columns every normalized row carries, in
// order. Family-specific columns follow them.
var CommonColumns = []string{
	"file",
	"ts_start",
	"ts_end",
	"run_id",
	"task_kind",
	"task_group",
	"cmd",
	"dataset",
	"arch",
	"cpu_model",
	"threads",
	"mem_kb",
	"instance_type",
	"cloud_provider",
	"exit_code",
	"wall_s",
	"user_s",
	"sys_s",
	"max_rss_kb",
}

// BuildRow builds the normalized row for metrics record m read from
// path. aux is the auxiliary record paired with m, or nil, and text
// is the run's text output.
//
// task_kind is the metrics record's meta.task, falling back to
// aux.task. instance_type and cloud_provider prefer the host
// sub-document over meta. Family-specific fields follow the common
// columns.
func BuildRow(path string, m, aux *runlog.Record, text []string) *dataset.Row {
	row, kind := commonRow(path, m, aux)
	in := family.Input{Aux: aux, Text: text}
	in.Cmd, _ = m.Get("cmd").Str()
	for _, f := range family.Extract(family.GroupOf(kind), in) {
		row.Set(f.Name, f.Value)
	}
	return row
}

// BuildFallbackRow builds a row for metrics record m when the log's
// records could not be paired. The row has only the common columns.
func BuildFallbackRow(path string, m *runlog.Record) *dataset.Row {
	row, _ := commonRow(path, m, nil)
	return row
}

func commonRow(path string, m, aux *runlog.Record) (*dataset.Row, string) {
	meta := m.Object("meta")
	host := m.Object("host")
	metrics := m.Object("metrics")

	taskKind := first(meta.Get("task"), aux.Get("task"))
	kind := ""
	if !taskKind.IsAbsent() {
		kind = taskKind.String()
	}
	group := dataset.Absent
	if g := family.GroupOf(kind); g != family.None {
		group = dataset.String(string(g))
	}

	row := &dataset.Row{Fields: make([]dataset.Field, 0, len(CommonColumns)+8)}
	set := row.Set
	set("file", dataset.String(path))
	set("ts_start", m.Get("ts_start"))
	set("ts_end", m.Get("ts_end"))
	set("run_id", meta.Get("run_id"))
	set("task_kind", taskKind)
	set("task_group", group)
	set("cmd", m.Get("cmd"))
	set("dataset", meta.Get("dataset"))
	set("arch", host.Get("arch"))
	set("cpu_model", host.Get("cpu_model"))
	set("threads", host.Get("threads"))
	set("mem_kb", host.Get("mem_kb"))
	set("instance_type", first(host.Get("instance_type"), meta.Get("instance_type")))
	set("cloud_provider", first(host.Get("cloud_provider"), meta.Get("cloud_provider")))
	set("exit_code", m.Get("exit_code"))
	set("wall_s", metrics.Get("wall_s"))
	set("user_s", metrics.Get("user_s"))
	set("sys_s", metrics.Get("sys_s"))
	set("max_rss_kb", metrics.Get("max_rss_kb"))
	return row, kind
}

// first returns the first truthy value of vs, or absent.
func first(vs ...dataset.Value) dataset.Value {
	for _, v := range vs {
		if v.Truthy() {
			return v
		}
	}
	return dataset.Absent
}
