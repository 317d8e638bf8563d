// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline runs the full post-processing of a benchmark
// campaign: fetching logs, normalizing them, saving and aggregating
// the rows, charting, pricing and reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/cloudbench/analyze"
	"golang.org/x/cloudbench/chart"
	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/economy"
	"golang.org/x/cloudbench/fetch"
	"golang.org/x/cloudbench/internal/config"
	"golang.org/x/cloudbench/normalize"
	"golang.org/x/cloudbench/report"
	"golang.org/x/cloudbench/storage/db"
)

// NormalizedFile is the name of the normalized table in the results
// directory.
const NormalizedFile = "normalized_results.csv"

// ReportFile is the name of the HTML report in the results directory.
const ReportFile = "report.html"

// errSkip is returned by a step that has nothing to do.
type errSkip string

func (e errSkip) Error() string { return string(e) }

type step struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// run holds the state passed between steps.
type run struct {
	cfg *config.Config
	w   io.Writer

	rows    *dataset.Table
	aggs    []analyze.Result
	charts  []string
	economy []economy.Output
}

// Run executes the steps enabled by cfg in order, printing progress
// to w. It stops at the first failing step.
func Run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r := &run{cfg: cfg, w: w}
	for _, s := range r.steps() {
		fmt.Fprintf(w, "\n=== [%s] ===\n", s.name)
		msg, err := s.run(ctx)
		var skip errSkip
		switch {
		case errors.As(err, &skip):
			fmt.Fprintf(w, "[SKIP] %s\n", skip)
		case err != nil:
			return fmt.Errorf("step %q: %w", s.name, err)
		default:
			fmt.Fprintf(w, "[OK] %s\n", msg)
		}
	}
	return nil
}

func (r *run) steps() []step {
	var steps []step
	if r.cfg.Bucket != "" {
		steps = append(steps, step{"sync", r.sync})
	}
	steps = append(steps, step{"parse", r.parse})
	if r.cfg.DB.Driver != "" {
		steps = append(steps, step{"save", r.save})
	}
	steps = append(steps, step{"analyze", r.analyze})
	if r.cfg.Charts {
		steps = append(steps, step{"chart", r.chart})
	}
	steps = append(steps, step{"economy", r.priceResults})
	if r.cfg.HTML {
		steps = append(steps, step{"html", r.html})
	}
	return steps
}

func (r *run) warn(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "[WARN] "+format+"\n", args...)
}

func (r *run) sync(ctx context.Context) (string, error) {
	res, err := fetch.Sync(ctx, fetch.Options{
		Bucket:  r.cfg.Bucket,
		Prefix:  r.cfg.Prefix,
		Dir:     r.cfg.DataDir,
		Pattern: r.cfg.Pattern,
		Warn:    r.warn,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("fetched %d files from gs://%s/%s (%d up to date)", len(res.Copied), r.cfg.Bucket, r.cfg.Prefix, res.Skipped), nil
}

func (r *run) parse(ctx context.Context) (string, error) {
	d := &normalize.Driver{Pattern: r.cfg.Pattern, Warn: r.warn}
	rows, err := d.Run(r.cfg.DataDir)
	if err != nil {
		return "", err
	}
	r.rows = rows
	path := filepath.Join(r.cfg.ResultsDir, NormalizedFile)
	if err := dataset.WriteFile(path, rows); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %d rows to %s", rows.Len(), path), nil
}

func (r *run) save(ctx context.Context) (string, error) {
	d, err := db.OpenSQL(r.cfg.DB.Driver, r.cfg.DB.DSN)
	if err != nil {
		return "", err
	}
	defer d.Close()
	u, err := d.SaveTable(ctx, r.rows)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("saved %d rows as upload %s", u.Rows(), u.Label), nil
}

func (r *run) analyze(ctx context.Context) (string, error) {
	aggs, err := analyze.WriteAll(r.rows, r.cfg.ResultsDir)
	if err != nil {
		return "", err
	}
	r.aggs = aggs
	var done []string
	for _, a := range aggs {
		fmt.Fprintf(r.w, "%s aggregated results:\n", a.Spec.Name)
		if err := report.WriteText(r.w, a.Table); err != nil {
			return "", err
		}
		done = append(done, fmt.Sprintf("%s (%d groups)", filepath.Base(a.Path), a.Table.Len()))
	}
	return "wrote " + strings.Join(done, ", "), nil
}

func (r *run) chart(ctx context.Context) (string, error) {
	paths, err := chart.WriteAll(r.cfg.ResultsDir)
	if err != nil {
		return "", err
	}
	r.charts = paths
	return fmt.Sprintf("drew %d charts", len(paths)), nil
}

func (r *run) priceResults(ctx context.Context) (string, error) {
	prices := r.cfg.Prices
	if prices == "" {
		prices = filepath.Join(r.cfg.ResultsDir, economy.DefaultPricesFile)
		if _, err := os.Stat(prices); errors.Is(err, os.ErrNotExist) {
			return "", errSkip("no price table at " + prices)
		}
	}
	outs, err := economy.Run(economy.Options{
		InputDir:  r.cfg.ResultsDir,
		Prices:    prices,
		VCPUsUsed: r.cfg.VCPUsUsed,
		Charts:    r.cfg.Charts,
		Warn:      r.warn,
	})
	if err != nil {
		return "", err
	}
	r.economy = outs
	return fmt.Sprintf("priced %d tables", len(outs)), nil
}

func (r *run) html(ctx context.Context) (string, error) {
	var sections []report.Section
	for _, a := range r.aggs {
		s := report.Section{Title: a.Spec.Name + " aggregated results", Table: a.Table}
		for _, p := range r.charts {
			if strings.HasPrefix(filepath.Base(p), a.Spec.Name+"_") {
				s.Images = append(s.Images, filepath.Base(p))
			}
		}
		sections = append(sections, s)
	}
	for _, o := range r.economy {
		s := report.Section{Title: o.Title, Table: o.Table}
		if o.PNG != "" {
			s.Images = []string{filepath.Base(o.PNG)}
		}
		sections = append(sections, s)
	}
	path := filepath.Join(r.cfg.ResultsDir, ReportFile)
	if err := report.WriteHTMLFile(path, "Cloud benchmark results", sections); err != nil {
		return "", err
	}
	return "wrote " + path, nil
}
