// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"golang.org/x/cloudbench/analyze"
	"golang.org/x/cloudbench/chart"
	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/economy"
	"golang.org/x/cloudbench/fetch"
	"golang.org/x/cloudbench/normalize"
	"golang.org/x/cloudbench/pipeline"
	"golang.org/x/cloudbench/report"
	"golang.org/x/cloudbench/storage/db"
)

func newParseCmd() *cobra.Command {
	var inputDir, output, pattern string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Normalize run logs into one CSV table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("input_dir") {
				inputDir = cfg.DataDir
			}
			if !cmd.Flags().Changed("pattern") {
				pattern = cfg.Pattern
			}
			d := &normalize.Driver{Pattern: pattern, Warn: warnf}
			t, err := d.Run(inputDir)
			if err != nil {
				return err
			}
			if err := dataset.WriteFile(output, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows to %s\n", t.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "input_dir", "", "read run logs from `dir` (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", pipeline.NormalizedFile, "write the table to `file`")
	cmd.Flags().StringVar(&pattern, "pattern", normalize.DefaultPattern, "read files whose names match `glob`")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var input, outputDir, family string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate a normalized table per workload family",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var specs []*analyze.Spec
			if family != "" {
				s, ok := analyze.Lookup(family)
				if !ok {
					return fmt.Errorf("unknown family %q", family)
				}
				specs = append(specs, s)
			}
			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			res, err := analyze.WriteAll(t, outputDir, specs...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range res {
				fmt.Fprintf(w, "%s aggregated results:\n", r.Spec.Name)
				if err := report.WriteText(w, r.Table); err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved %s\n\n", r.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", pipeline.NormalizedFile, "read the normalized table from `file`")
	cmd.Flags().StringVar(&outputDir, "output_dir", ".", "write aggregates to `dir`")
	cmd.Flags().StringVar(&family, "family", "", "aggregate only `name` (numpy, ffmpeg or stressng)")
	return cmd
}

func newChartCmd() *cobra.Command {
	var inputDir string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Draw bar charts of the aggregates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := chart.WriteAll(inputDir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no aggregates to chart in %s", inputDir)
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "input_dir", ".", "read aggregates from and write charts to `dir`")
	return cmd
}

func newEconomyCmd() *cobra.Command {
	var opts economy.Options
	cmd := &cobra.Command{
		Use:   "economy",
		Short: "Rank instances by performance per dollar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("prices") {
				opts.Prices = cfg.Prices
			}
			if !cmd.Flags().Changed("vcpus_used") {
				opts.VCPUsUsed = cfg.VCPUsUsed
			}
			opts.Warn = warnf
			outs, err := economy.Run(opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, o := range outs {
				fmt.Fprintf(w, "%s:\n", o.Title)
				if err := report.WriteText(w, o.Table); err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved %s\n", o.CSV)
				if o.PNG != "" {
					fmt.Fprintf(w, "Saved %s\n", o.PNG)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.InputDir, "input_dir", ".", "read aggregates from `dir`")
	cmd.Flags().StringVar(&opts.OutputDir, "output_dir", "", "write results to `dir` (default input_dir)")
	cmd.Flags().StringVar(&opts.Prices, "prices", "", "read instance prices from CSV or YAML `file` (default input_dir/"+economy.DefaultPricesFile+")")
	cmd.Flags().IntVar(&opts.VCPUsUsed, "vcpus_used", economy.DefaultVCPUsUsed, "number of vCPUs the benchmarks used")
	cmd.Flags().BoolVar(&opts.Charts, "charts", true, "draw perf-per-dollar charts")
	return cmd
}

func newSyncCmd() *cobra.Command {
	var opts fetch.Options
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy run logs from a Cloud Storage bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if !f.Changed("bucket") {
				opts.Bucket = cfg.Bucket
			}
			if !f.Changed("prefix") {
				opts.Prefix = cfg.Prefix
			}
			if !f.Changed("dir") {
				opts.Dir = cfg.DataDir
			}
			if !f.Changed("pattern") {
				opts.Pattern = cfg.Pattern
			}
			opts.Warn = warnf
			res, err := fetch.Sync(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d files to %s (%d up to date)\n", len(res.Copied), opts.Dir, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "copy from Cloud Storage bucket `name`")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "copy only objects under `prefix`")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "write logs to `dir` (default from config)")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", fetch.DefaultPattern, "copy objects whose names match `glob`")
	return cmd
}

func newSaveCmd() *cobra.Command {
	var input, driver, dsn, upload, output string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a normalized table in a SQL database",
		Long: `Save stores a normalized table as a new upload and prints its label.
With --upload, it instead writes the rows of an existing upload to --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("driver") && cfg.DB.Driver != "" {
				driver = cfg.DB.Driver
			}
			if !cmd.Flags().Changed("dsn") && cfg.DB.DSN != "" {
				dsn = cfg.DB.DSN
			}
			d, err := db.OpenSQL(driver, dsn)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			if upload != "" {
				if output == "" {
					return errors.New("--upload requires --output")
				}
				id, err := d.UploadID(ctx, upload)
				if err != nil {
					return err
				}
				t, err := d.LoadUpload(ctx, id)
				if err != nil {
					return err
				}
				if err := dataset.WriteFile(output, t); err != nil {
					return err
				}
				fmt.Fprintf(w, "Exported %d rows of upload %s to %s\n", t.Len(), upload, output)
				return nil
			}

			t, err := dataset.ReadFile(input)
			if err != nil {
				return err
			}
			u, err := d.SaveTable(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Saved %d rows as upload %s\n", u.Rows(), u.Label)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", pipeline.NormalizedFile, "read the normalized table from `file`")
	cmd.Flags().StringVar(&driver, "driver", "sqlite3", "database `driver` (sqlite3 or mysql)")
	cmd.Flags().StringVar(&dsn, "dsn", "cloudbench.db", "database `source` name")
	cmd.Flags().StringVar(&upload, "upload", "", "export the upload with `label` instead of saving")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write an exported upload to `file`")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		bucket, dataDir, resultsDir string
		charts, html                bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("bucket") {
				cfg.Bucket = bucket
			}
			if f.Changed("data_dir") {
				cfg.DataDir = dataDir
			}
			if f.Changed("results_dir") {
				cfg.ResultsDir = resultsDir
			}
			if f.Changed("charts") {
				cfg.Charts = charts
			}
			if f.Changed("html") {
				cfg.HTML = html
			}
			if err := pipeline.Run(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nAll results are in %s\n", filepath.Clean(cfg.ResultsDir))
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "sync run logs from Cloud Storage bucket `name` first")
	cmd.Flags().StringVar(&dataDir, "data_dir", "", "read run logs from `dir`")
	cmd.Flags().StringVar(&resultsDir, "results_dir", "", "write results to `dir`")
	cmd.Flags().BoolVar(&charts, "charts", true, "draw charts")
	cmd.Flags().BoolVar(&html, "html", false, "write an HTML report")
	return cmd
}
