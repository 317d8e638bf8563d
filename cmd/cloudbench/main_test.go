// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/cloudbench/dataset"
)

const runs = "../../normalize/testdata/runs"

// cloudbench runs the root command with args and returns its output.
func cloudbench(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := cloudbench(t, args...)
	if err != nil {
		t.Fatalf("cloudbench %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	normalized := filepath.Join(dir, "normalized_results.csv")

	out := mustRun(t, "parse", "--input_dir", runs, "-o", normalized)
	if want := "Saved 5 rows to " + normalized; !strings.Contains(out, want) {
		t.Errorf("parse output %q lacks %q", out, want)
	}

	out = mustRun(t, "analyze", "--input", normalized, "--output_dir", dir)
	for _, fam := range []string{"numpy", "ffmpeg", "stressng"} {
		if !strings.Contains(out, fam+" aggregated results:") {
			t.Errorf("analyze output lacks %s table:\n%s", fam, out)
		}
		if _, err := os.Stat(filepath.Join(dir, fam+"_aggregated.csv")); err != nil {
			t.Error(err)
		}
	}

	out = mustRun(t, "chart", "--input_dir", dir)
	if n := strings.Count(out, "Saved "); n != 7 {
		t.Errorf("chart saved %d files, want 7:\n%s", n, out)
	}

	prices := "instance_type,price_per_hour_usd,vcpus\nc7g.large,0.0725,2\nm7i.large,0.1008,2\nt2a-standard-2,0.077,2\n"
	if err := os.WriteFile(filepath.Join(dir, "instance_prices.csv"), []byte(prices), 0o666); err != nil {
		t.Fatal(err)
	}
	out = mustRun(t, "economy", "--input_dir", dir, "--charts=false", "--vcpus_used", "4")
	if !strings.Contains(out, "normalized to 4 vCPU") {
		t.Errorf("economy output ignores --vcpus_used:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "stressng_economy.csv")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stressng_perf_per_dollar.png")); err == nil {
		t.Errorf("economy drew a chart with --charts=false")
	}
}

func TestSaveExport(t *testing.T) {
	dir := t.TempDir()
	normalized := filepath.Join(dir, "normalized_results.csv")
	dsn := filepath.Join(dir, "cloudbench.db")
	mustRun(t, "parse", "--input_dir", runs, "-o", normalized)

	out := mustRun(t, "save", "--input", normalized, "--dsn", dsn)
	const prefix = "Saved 5 rows as upload "
	if !strings.HasPrefix(out, prefix) {
		t.Fatalf("save output = %q, want prefix %q", out, prefix)
	}
	label := strings.TrimSpace(strings.TrimPrefix(out, prefix))

	exported := filepath.Join(dir, "exported.csv")
	mustRun(t, "save", "--dsn", dsn, "--upload", label, "-o", exported)

	want, err := dataset.ReadFile(normalized)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dataset.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != want.Len() {
		t.Errorf("exported %d rows, want %d", got.Len(), want.Len())
	}
	if g, w := strings.Join(got.Columns(), ","), strings.Join(want.Columns(), ","); g != w {
		t.Errorf("exported columns:\n%s\nwant:\n%s", g, w)
	}

	if _, err := cloudbench(t, "save", "--dsn", dsn, "--upload", label); err == nil {
		t.Errorf("save --upload without --output succeeded")
	}
}

func TestRunCommand(t *testing.T) {
	results := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "cloudbench.yaml")
	if err := os.WriteFile(cfg, []byte("data_dir: "+runs+"\nresults_dir: "+results+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, "--config", cfg, "run", "--charts=false", "--html")
	for _, want := range []string{"=== [parse] ===", "=== [html] ===", "All results are in " + results} {
		if !strings.Contains(out, want) {
			t.Errorf("run output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "=== [chart] ===") {
		t.Errorf("run drew charts with --charts=false")
	}
	if _, err := os.Stat(filepath.Join(results, "report.html")); err != nil {
		t.Error(err)
	}
}

func TestParseNoRows(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.csv")
	_, err := cloudbench(t, "parse", "--input_dir", t.TempDir(), "-o", output)
	if err == nil {
		t.Fatal("parse of an empty directory succeeded")
	}
	if _, err := os.Stat(output); err == nil {
		t.Errorf("parse wrote %s despite failure", output)
	}
}

func TestHyphenatedFlags(t *testing.T) {
	dir := t.TempDir()
	normalized := filepath.Join(dir, "normalized_results.csv")
	mustRun(t, "parse", "--input-dir", runs, "-o", normalized)
	mustRun(t, "analyze", "--input", normalized, "--output-dir", dir)

	prices := "instance_type,price_per_hour_usd,vcpus\nt2a-standard-2,0.077,2\n"
	if err := os.WriteFile(filepath.Join(dir, "instance_prices.csv"), []byte(prices), 0o666); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, "economy", "--input-dir", dir, "--output-dir", filepath.Join(dir, "econ"), "--charts=false", "--vcpus-used", "8")
	if !strings.Contains(out, "normalized to 8 vCPU") {
		t.Errorf("--vcpus-used was not applied:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "econ", "stressng_economy.csv")); err != nil {
		t.Error(err)
	}
}

func TestUnknownFamily(t *testing.T) {
	if _, err := cloudbench(t, "analyze", "--family", "gzip"); err == nil || !strings.Contains(err.Error(), `unknown family "gzip"`) {
		t.Errorf("analyze --family gzip = %v", err)
	}
}
