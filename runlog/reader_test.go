// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type entry struct {
	line   int
	record string // compact JSON, for records
	text   string // for text lines
}

func scanAll(t *testing.T, input string) []entry {
	t.Helper()
	var out []entry
	r := NewReader(strings.NewReader(input), "test")
	for r.Scan() {
		switch e := r.Entry().(type) {
		case *Record:
			b, err := json.Marshal(e.Fields)
			if err != nil {
				t.Fatal(err)
			}
			_, line := e.Pos()
			out = append(out, entry{line: line, record: string(b)})
		case *TextLine:
			_, line := e.Pos()
			out = append(out, entry{line: line, text: e.Text})
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestReader(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  []entry
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"blank lines dropped",
			"\n   \n\t\n",
			nil,
		},
		{
			"record",
			`{"metrics": {"wall_s": 1.50}}` + "\n",
			[]entry{{line: 1, record: `{"metrics":{"wall_s":1.50}}`}},
		},
		{
			"mixed",
			"stress-ng: info: dispatching hogs\n" +
				"\n" +
				`  {"task": "numpy.elemwise", "n": 1000000}  ` + "\n" +
				"stress-ng: metrc: [17] cpu 1000 2.60 5.20 0.00 384.10 192.22   \r\n",
			[]entry{
				{line: 1, text: "stress-ng: info: dispatching hogs"},
				{line: 3, record: `{"n":1000000,"task":"numpy.elemwise"}`},
				{line: 4, text: "stress-ng: metrc: [17] cpu 1000 2.60 5.20 0.00 384.10 192.22"},
			},
		},
		{
			"leading whitespace kept in text",
			"    at line 3\n",
			[]entry{{line: 1, text: "    at line 3"}},
		},
		{
			"non-objects are text",
			"42\n[1, 2]\n\"s\"\nnull\n",
			[]entry{
				{line: 1, text: "42"},
				{line: 2, text: "[1, 2]"},
				{line: 3, text: `"s"`},
				{line: 4, text: "null"},
			},
		},
		{
			"malformed json is text",
			"{\"metrics\": \n{} trailing\n{\"a\":1}{\"b\":2}\n",
			[]entry{
				{line: 1, text: `{"metrics":`},
				{line: 2, text: "{} trailing"},
				{line: 3, text: `{"a":1}{"b":2}`},
			},
		},
		{
			"no final newline",
			`{"a": 1}`,
			[]entry{{line: 1, record: `{"a":1}`}},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := scanAll(t, test.input)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("got %+v\nwant %+v", got, test.want)
			}
		})
	}
}

func TestReaderLongLine(t *testing.T) {
	input := strings.Repeat("x", MaxLineSize+1) + "\n"
	r := NewReader(strings.NewReader(input), "long.jsonl")
	for r.Scan() {
	}
	if err := r.Err(); !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("Err() = %v, want %v", err, bufio.ErrTooLong)
	}
}

func TestEntryBeforeScan(t *testing.T) {
	r := NewReader(strings.NewReader("x\n"), "")
	if _, ok := r.Entry().(*TextLine); !ok {
		t.Errorf("Entry() before Scan = %T, want *TextLine", r.Entry())
	}
	if !r.Scan() {
		t.Fatal("Scan() = false, want true")
	}
	if name, _ := r.Entry().Pos(); name != "<unknown>" {
		t.Errorf("file name = %q, want <unknown>", name)
	}
}

func TestSplit(t *testing.T) {
	input := `{"task": "numpy.matmul", "n": 512, "iter": 10, "seconds": 0.0312}
some text
{"ts_start": "2024-05-01T10:00:00Z", "metrics": {"wall_s": 3.2}}

more text
`
	l, err := Split(strings.NewReader(input), "a.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(l.Records))
	}
	if want := []string{"some text", "more text"}; !reflect.DeepEqual(l.Text, want) {
		t.Errorf("Text = %q, want %q", l.Text, want)
	}
	if got := l.Records[0].Get("seconds").String(); got != "0.0312" {
		t.Errorf("seconds = %q, want verbatim 0.0312", got)
	}
}

func TestNonFiniteLiterals(t *testing.T) {
	input := `{"metrics": {"wall_s": NaN, "user_s": Infinity, "sys_s": -Infinity, "exit_code": 0}, "cmd": "echo NaN Infinity"}
{"note": "only \"NaN\" in a string", "x": NaN}
{"metrics": {"wall_s": NaNa}}
`
	l, err := Split(strings.NewReader(input), "py.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Records) != 2 {
		t.Fatalf("got %d records, want 2; text %q", len(l.Records), l.Text)
	}
	m := l.Records[0]
	if !m.IsMetrics() {
		t.Fatalf("first record is not a metrics record")
	}
	for _, key := range []string{"wall_s", "user_s", "sys_s"} {
		if v := m.Object("metrics").Get(key); !v.IsAbsent() {
			t.Errorf("metrics.%s = %#v, want absent", key, v)
		}
	}
	if got := m.Object("metrics").Get("exit_code").String(); got != "0" {
		t.Errorf("metrics.exit_code = %q, want 0", got)
	}
	if got := m.Get("cmd").String(); got != "echo NaN Infinity" {
		t.Errorf("cmd = %q, literals inside strings must be kept", got)
	}
	if got := l.Records[1].Get("note").String(); got != `only "NaN" in a string` {
		t.Errorf("note = %q", got)
	}
	if v := l.Records[1].Get("x"); !v.IsAbsent() {
		t.Errorf("x = %#v, want absent", v)
	}
	if want := []string{`{"metrics": {"wall_s": NaNa}}`}; !reflect.DeepEqual(l.Text, want) {
		t.Errorf("Text = %q, want %q", l.Text, want)
	}
}

func TestClassify(t *testing.T) {
	rec := func(fields map[string]interface{}) *Record { return &Record{Fields: fields} }
	a := rec(map[string]interface{}{"task": "numpy.matmul"})
	m1 := rec(map[string]interface{}{"metrics": map[string]interface{}{}})
	b := rec(map[string]interface{}{"other": true})
	m2 := rec(map[string]interface{}{"metrics": nil})

	metrics, aux := Classify([]*Record{a, m1, b, m2})
	if !reflect.DeepEqual(metrics, []*Record{m1, m2}) {
		t.Errorf("metrics = %v, want [m1 m2]", metrics)
	}
	if !reflect.DeepEqual(aux, []*Record{a, b}) {
		t.Errorf("aux = %v, want [a b]", aux)
	}

	metrics, aux = Classify(nil)
	if metrics != nil || aux != nil {
		t.Errorf("Classify(nil) = %v, %v, want nil, nil", metrics, aux)
	}
}

func TestObject(t *testing.T) {
	r := &Record{Fields: map[string]interface{}{
		"meta": map[string]interface{}{"task": "ffmpeg"},
		"host": "not an object",
	}}
	if got := r.Object("meta").Get("task").String(); got != "ffmpeg" {
		t.Errorf(`meta.task = %q, want "ffmpeg"`, got)
	}
	if v := r.Object("host").Get("arch"); !v.IsAbsent() {
		t.Errorf("host.arch = %#v, want absent", v)
	}
	if v := r.Object("missing").Get("x"); !v.IsAbsent() {
		t.Errorf("missing.x = %#v, want absent", v)
	}
	var nilRec *Record
	if v := nilRec.Get("task"); !v.IsAbsent() {
		t.Errorf("nil record Get = %#v, want absent", v)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte(`{"metrics": {}}`+"\nhello\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	l, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if l.Name != path || len(l.Records) != 1 || len(l.Text) != 1 {
		t.Errorf("ReadFile = %+v", l)
	}
	if name, line := l.Records[0].Pos(); name != path || line != 1 {
		t.Errorf("Pos() = %s:%d, want %s:1", name, line, path)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want not-exist", err)
	}
}
