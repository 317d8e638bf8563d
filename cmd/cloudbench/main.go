// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cloudbench normalizes and analyzes cloud benchmark run logs.
//
// Usage:
//
//	cloudbench [--config file] command [flags]
//
// The commands are:
//
//	parse    normalize run logs into one CSV table
//	analyze  aggregate a normalized table per workload family
//	chart    draw bar charts of the aggregates
//	economy  rank instances by performance per dollar
//	sync     copy run logs from a Cloud Storage bucket
//	save     store a normalized table in a SQL database
//	run      run the whole pipeline
//
// Each run log is a file of newline-delimited JSON records mixed with
// free text. A record with a "metrics" key describes one benchmark
// run; other records and the text lines add detail about it. Parse
// turns each log into a row of common columns plus the columns of the
// workload family (numpy, ffmpeg or stress-ng).
//
// The --config file is YAML; see internal/config for its keys.
// Command-line flags override it. Multi-word flags are spelled with
// underscores, as in the config file; hyphens are accepted too.
package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	// Database drivers for save and run. The Cloud SQL dialer adds
	// the "cloudsql" network to mysql DSNs.
	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	_ "golang.org/x/cloudbench/storage/db/sqlite3"

	"golang.org/x/cloudbench/internal/config"
)

func main() {
	log.SetPrefix("cloudbench: ")
	log.SetFlags(0)
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadConfig returns the configuration named by --config, or the
// defaults if there is none.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	if file == "" {
		return config.Default(), nil
	}
	return config.Load(file)
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "cloudbench",
		Short:         "Normalize and analyze cloud benchmark run logs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().String("config", "", "read pipeline settings from YAML `file`")
	root.AddCommand(
		newParseCmd(),
		newAnalyzeCmd(),
		newChartCmd(),
		newEconomyCmd(),
		newSyncCmd(),
		newSaveCmd(),
		newRunCmd(),
	)
	root.SetGlobalNormalizationFunc(underscoreFlags)
	return root
}

// underscoreFlags accepts --input-dir as a spelling of --input_dir.
func underscoreFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
}

// warnf reports a non-fatal problem on the log.
func warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}
