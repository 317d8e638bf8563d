// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/cloudbench/dataset"
)

// numpyFields copies the configuration of a numpy task from its
// auxiliary record. The record must itself name a numpy task. All four
// columns are emitted; a missing key is absent.
func numpyFields(in Input) []dataset.Field {
	if in.Aux == nil {
		return nil
	}
	if task, ok := in.Aux.Get("task").Str(); !ok || !strings.HasPrefix(task, "numpy") {
		return nil
	}
	var out []dataset.Field
	for _, c := range []struct{ col, key string }{
		{"numpy_task", "task"},
		{"numpy_n", "n"},
		{"numpy_iter", "iter"},
		{"numpy_seconds_reported", "seconds"},
	} {
		out = append(out, dataset.Field{Name: c.col, Value: in.Aux.Get(c.key)})
	}
	return out
}

// A cmdPattern recovers one or more columns from a command string.
// Each submatch is converted with the matching entry of conv.
type cmdPattern struct {
	re   *regexp.Regexp
	cols []string
	conv []func(string) (dataset.Value, bool)
}

func (p *cmdPattern) apply(s string, out []dataset.Field) []dataset.Field {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return out
	}
	vals := make([]dataset.Value, len(p.cols))
	for i := range p.cols {
		v, ok := p.conv[i](m[i+1])
		if !ok {
			return out
		}
		vals[i] = v
	}
	for i, col := range p.cols {
		out = append(out, dataset.Field{Name: col, Value: vals[i]})
	}
	return out
}

func pattern(expr string, cols ...string) *cmdPattern {
	p := &cmdPattern{re: regexp.MustCompile(expr), cols: cols}
	for range cols {
		p.conv = append(p.conv, str)
	}
	return p
}

// ints marks the submatches at the given indexes as integers.
func (p *cmdPattern) ints(idx ...int) *cmdPattern {
	for _, i := range idx {
		p.conv[i] = integer
	}
	return p
}

// floats marks the submatches at the given indexes as decimals.
func (p *cmdPattern) floats(idx ...int) *cmdPattern {
	for _, i := range idx {
		p.conv[i] = decimal
	}
	return p
}

func str(s string) (dataset.Value, bool) {
	return dataset.String(s), true
}

// integer converts a run of digits. Values beyond int64 keep their
// digits.
func integer(s string) (dataset.Value, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return dataset.Of(json.Number(s)), true
	}
	return dataset.Int(i), true
}

// decimal converts a [\d.]+ match. Runs such as "1.2.3" match the
// pattern but are not numbers.
func decimal(s string) (dataset.Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return dataset.Absent, false
	}
	return dataset.Float(f), true
}

var ffmpegPatterns = []*cmdPattern{
	pattern(`testsrc=duration=(\d+)`, "ffmpeg_duration_s").ints(0),
	pattern(`size=(\d+)x(\d+)`, "ffmpeg_width", "ffmpeg_height").ints(0, 1),
	pattern(`-c:v\s+(\S+)`, "ffmpeg_codec"),
	pattern(`-preset\s+(\S+)`, "ffmpeg_preset"),
	pattern(`-crf\s+(\d+)`, "ffmpeg_crf").ints(0),
}

// ffmpegFields recovers the encode settings of an ffmpeg run from its
// command line.
func ffmpegFields(in Input) []dataset.Field {
	var out []dataset.Field
	for _, p := range ffmpegPatterns {
		out = p.apply(in.Cmd, out)
	}
	return out
}

var stressCmdPatterns = []*cmdPattern{
	pattern(`--cpu\s+(\d+)`, "stress_cpu_workers").ints(0),
	pattern(`--cpu-method\s+(\S+)`, "stress_cpu_method"),
	pattern(`--cpu-ops\s+(\d+)`, "stress_cpu_ops").ints(0),
	pattern(`--timeout\s+(\d+)s?`, "stress_timeout_s").ints(0),
}

// stressMetrics matches the per-stressor summary line stress-ng
// prints with --metrics, e.g.
//
//	stress-ng: metrc: [17] cpu 1000 2.60 5.20 0.00 384.10 192.22
var stressMetrics = pattern(
	`stress-ng:\s+metrc:\s+\[\d+\]\s+(\S+)\s+(\d+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)`,
	"stress_stressor",
	"stress_bogo_ops",
	"stress_real_time_s",
	"stress_usr_time_s",
	"stress_sys_time_s",
	"stress_bogo_ops_per_s_real",
	"stress_bogo_ops_per_s_usr_sys",
).ints(1).floats(2, 3, 4, 5, 6)

// stressFields recovers the stress-ng invocation from the command
// line and the metrics of the first stressor summary in the output.
// Later summary lines are ignored.
func stressFields(in Input) []dataset.Field {
	var out []dataset.Field
	for _, p := range stressCmdPatterns {
		out = p.apply(in.Cmd, out)
	}
	for _, line := range in.Text {
		if more := stressMetrics.apply(line, out); len(more) > len(out) {
			return more
		}
	}
	return out
}
