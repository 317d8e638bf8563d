// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/internal/diff"
)

func sample() *dataset.Table {
	var t dataset.Table
	t.Append(
		dataset.NewRow("instance_type", "c7g.large", "arch", nil, "runs", 1),
		dataset.NewRow("instance_type", "m7i.large", "arch", "x86_64", "runs", 12),
	)
	return &t
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	want := `instance_type  arch    runs
c7g.large              1
m7i.large      x86_64  12
`
	if d := diff.Diff(want, buf.String()); d != "" {
		t.Errorf("text differs:\n%s", d)
	}
}

func TestWriteHTML(t *testing.T) {
	tab := sample()
	tab.Append(dataset.NewRow("instance_type", "<script>"))
	var buf bytes.Buffer
	err := WriteHTML(&buf, "Benchmark results", []Section{
		{Title: "FFmpeg", Table: tab, Images: []string{"ffmpeg_arm64.png"}},
		{Title: "NumPy", Table: &dataset.Table{Header: []string{"instance_type"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"<title>Benchmark results</title>",
		"<h2>FFmpeg</h2>",
		"<th>instance_type</th><th>arch</th><th>runs</th>",
		"<td>m7i.large</td><td>x86_64</td><td>12</td>",
		"&lt;script&gt;",
		`src="ffmpeg_arm64.png"`,
		"<p>No results.</p>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("cell was not escaped")
	}
}

func TestWriteHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	if err := WriteHTMLFile(path, "r", []Section{{Title: "s", Table: sample()}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<h2>s</h2>")) {
		t.Errorf("report lacks section heading")
	}
}
