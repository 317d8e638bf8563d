// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/runlog"
)

func TestGroupOf(t *testing.T) {
	for _, test := range []struct {
		kind string
		want Group
	}{
		{"", None},
		{"numpy", Numpy},
		{"numpy.matmul", Numpy},
		{"numpyish", Numpy},
		{"ffmpeg", FFmpeg},
		{"ffmpeg-x265", Other},
		{"stress-ng", Synthetic},
		{"stress", Other},
		{"NUMPY", Other},
		{"sysbench", Other},
	} {
		if got := GroupOf(test.kind); got != test.want {
			t.Errorf("GroupOf(%q) = %q, want %q", test.kind, got, test.want)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, g := range []Group{Numpy, FFmpeg, Synthetic} {
		if _, ok := Lookup(g); !ok {
			t.Errorf("Lookup(%q) found no extractor", g)
		}
	}
	for _, g := range []Group{None, Other} {
		if _, ok := Lookup(g); ok {
			t.Errorf("Lookup(%q) found an extractor, want none", g)
		}
		if f := Extract(g, Input{Cmd: "ffmpeg -crf 23"}); f != nil {
			t.Errorf("Extract(%q) = %v, want nil", g, f)
		}
	}
}

// format renders fields as "name=value" pairs, with absent values
// shown as "name=<absent>".
func format(fields []dataset.Field) string {
	var parts []string
	for _, f := range fields {
		v := f.Value.String()
		if f.Value.IsAbsent() {
			v = "<absent>"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", f.Name, v))
	}
	return strings.Join(parts, " ")
}

func aux(t *testing.T, js string) *runlog.Record {
	t.Helper()
	l, err := runlog.Split(strings.NewReader(js), "aux")
	if err != nil || len(l.Records) != 1 {
		t.Fatalf("bad auxiliary record %s: %v", js, err)
	}
	return l.Records[0]
}

func TestNumpy(t *testing.T) {
	for _, test := range []struct {
		name string
		aux  string
		want string
	}{
		{
			"verbatim",
			`{"task": "numpy.elemwise", "n": 1000000, "iter": 50, "seconds": 0.123400}`,
			"numpy_task=numpy.elemwise numpy_n=1000000 numpy_iter=50 numpy_seconds_reported=0.123400",
		},
		{
			"missing keys",
			`{"task": "numpy.matmul", "n": 512}`,
			"numpy_task=numpy.matmul numpy_n=512 numpy_iter=<absent> numpy_seconds_reported=<absent>",
		},
		{
			"not a numpy record",
			`{"task": "ffmpeg", "n": 1}`,
			"",
		},
		{
			"task not a string",
			`{"task": 7, "n": 1}`,
			"",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := format(Extract(Numpy, Input{Aux: aux(t, test.aux)}))
			if got != test.want {
				t.Errorf("got  %s\nwant %s", got, test.want)
			}
		})
	}

	if f := Extract(Numpy, Input{}); f != nil {
		t.Errorf("no auxiliary record: got %s, want nothing", format(f))
	}
}

func TestFFmpeg(t *testing.T) {
	for _, test := range []struct {
		cmd  string
		want string
	}{
		{
			"ffmpeg -f lavfi -i testsrc=duration=10:size=1920x1080:rate=30 -c:v libx264 -preset medium -crf 23 -f null -",
			"ffmpeg_duration_s=10 ffmpeg_width=1920 ffmpeg_height=1080 ffmpeg_codec=libx264 ffmpeg_preset=medium ffmpeg_crf=23",
		},
		{
			"ffmpeg -i in.mp4 -c:v libx265 out.mp4",
			"ffmpeg_codec=libx265",
		},
		{
			"ffmpeg -i in.mp4 -crf fast -preset   veryslow",
			"ffmpeg_preset=veryslow",
		},
		{
			// First occurrence wins.
			"ffmpeg -crf 18 -crf 30",
			"ffmpeg_crf=18",
		},
		{
			"",
			"",
		},
	} {
		if got := format(Extract(FFmpeg, Input{Cmd: test.cmd})); got != test.want {
			t.Errorf("Extract(FFmpeg, %q):\ngot  %s\nwant %s", test.cmd, got, test.want)
		}
	}
}

func TestStress(t *testing.T) {
	const metrc = "stress-ng: metrc: [17] cpu 1000 2.60 5.20 0.00 384.10 192.22"
	const metrcFields = "stress_stressor=cpu stress_bogo_ops=1000 stress_real_time_s=2.6 stress_usr_time_s=5.2 stress_sys_time_s=0.0 stress_bogo_ops_per_s_real=384.1 stress_bogo_ops_per_s_usr_sys=192.22"

	for _, test := range []struct {
		name string
		cmd  string
		text []string
		want string
	}{
		{
			"command and text",
			"stress-ng --cpu 2 --cpu-method matrixprod --cpu-ops 1000 --timeout 60s --metrics-brief",
			[]string{"stress-ng: info:  [17] dispatching hogs: 2 cpu", metrc},
			"stress_cpu_workers=2 stress_cpu_method=matrixprod stress_cpu_ops=1000 stress_timeout_s=60 " + metrcFields,
		},
		{
			"text only",
			"",
			[]string{metrc},
			metrcFields,
		},
		{
			"first line wins",
			"",
			[]string{metrc, "stress-ng: metrc: [18] vm 5 1.00 1.00 1.00 5.00 2.50"},
			metrcFields,
		},
		{
			"timeout without unit",
			"stress-ng --timeout 30",
			nil,
			"stress_timeout_s=30",
		},
		{
			"no metrics line",
			"stress-ng --cpu-method fft",
			[]string{"stress-ng: info: successful run completed in 60.00s"},
			"stress_cpu_method=fft",
		},
		{
			"malformed decimal skipped",
			"",
			[]string{
				"stress-ng: metrc: [17] cpu 1000 2.6.0 5.20 0.00 384.10 192.22",
				"stress-ng: metrc: [19] cpu 7 1.00 2.00 0.50 7.00 2.80",
			},
			"stress_stressor=cpu stress_bogo_ops=7 stress_real_time_s=1.0 stress_usr_time_s=2.0 stress_sys_time_s=0.5 stress_bogo_ops_per_s_real=7.0 stress_bogo_ops_per_s_usr_sys=2.8",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := format(Extract(Synthetic, Input{Cmd: test.cmd, Text: test.text}))
			if got != test.want {
				t.Errorf("got  %s\nwant %s", got, test.want)
			}
		})
	}
}

func TestStressValues(t *testing.T) {
	fields := Extract(Synthetic, Input{Text: []string{"stress-ng: metrc: [17] cpu 1000 2.60 5.20 0.00 384.10 192.22"}})
	want := map[string]float64{
		"stress_bogo_ops":               1000,
		"stress_real_time_s":            2.60,
		"stress_usr_time_s":             5.20,
		"stress_sys_time_s":             0,
		"stress_bogo_ops_per_s_real":    384.10,
		"stress_bogo_ops_per_s_usr_sys": 192.22,
	}
	for _, f := range fields {
		w, ok := want[f.Name]
		if !ok {
			continue
		}
		if got, ok := f.Value.Float(); !ok || got != w {
			t.Errorf("%s = %v, want %v", f.Name, got, w)
		}
		delete(want, f.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing fields: %v", want)
	}
}

func TestIntegerOverflow(t *testing.T) {
	got := format(Extract(FFmpeg, Input{Cmd: "ffmpeg -crf 123456789012345678901234567890"}))
	if want := "ffmpeg_crf=123456789012345678901234567890"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if v, _ := integer("12"); v.Interface() != int64(12) {
		t.Errorf("integer(12) = %#v", v)
	}
	if v, _ := integer("99999999999999999999"); v.Interface() != json.Number("99999999999999999999") {
		t.Errorf("integer(big) = %#v", v)
	}
}
