// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package economy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"golang.org/x/cloudbench/dataset"
)

// A Price is the on-demand price of one instance type.
type Price struct {
	InstanceType string  `yaml:"instance_type"`
	PerHourUSD   float64 `yaml:"price_per_hour_usd"`
	VCPUs        float64 `yaml:"vcpus"`
}

// A PriceTable lists instance prices in file order, without exact
// duplicates.
type PriceTable struct {
	Prices []Price
}

// priceColumns are the columns a price file must have.
var priceColumns = []string{"instance_type", "price_per_hour_usd", "vcpus"}

// A MissingColumnsError reports a price file that lacks required
// columns.
type MissingColumnsError struct {
	File    string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: price table is missing columns: %s", e.File, strings.Join(e.Missing, ", "))
}

// LoadPrices reads a price table from path. Files ending in .yaml or
// .yml are YAML; anything else is CSV.
func LoadPrices(path string) (*PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading price table: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadPricesYAML(f, path)
	}
	return ReadPricesCSV(f, path)
}

// ReadPricesCSV reads a CSV price table. Columns other than
// instance_type, price_per_hour_usd and vcpus are ignored.
func ReadPricesCSV(r io.Reader, name string) (*PriceTable, error) {
	t, err := dataset.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var missing []string
	for _, c := range priceColumns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{name, missing}
	}
	pt := new(PriceTable)
	for i, row := range t.Rows {
		p := Price{InstanceType: row.Get("instance_type").String()}
		var ok bool
		if p.PerHourUSD, ok = row.Get("price_per_hour_usd").Float(); !ok {
			return nil, fmt.Errorf("%s:%d: bad price_per_hour_usd %q", name, i+2, row.Get("price_per_hour_usd"))
		}
		if p.VCPUs, ok = row.Get("vcpus").Float(); !ok {
			return nil, fmt.Errorf("%s:%d: bad vcpus %q", name, i+2, row.Get("vcpus"))
		}
		pt.add(p)
	}
	return pt, nil
}

// ReadPricesYAML reads a YAML price table. It accepts either a list
// of prices or a map from instance type to price:
//
//	c7g.large:
//	  price_per_hour_usd: 0.0725
//	  vcpus: 2
//
// Map entries are ordered by instance type.
func ReadPricesYAML(r io.Reader, name string) (*PriceTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading price table: %w", err)
	}
	pt := new(PriceTable)
	var list []Price
	if err := yaml.Unmarshal(data, &list); err == nil {
		for _, p := range list {
			pt.add(p)
		}
		return pt, pt.check(name)
	}
	var byType map[string]Price
	if err := yaml.Unmarshal(data, &byType); err != nil {
		return nil, fmt.Errorf("parsing price table %s: %w", name, err)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		p := byType[t]
		p.InstanceType = t
		pt.add(p)
	}
	return pt, pt.check(name)
}

func (pt *PriceTable) add(p Price) {
	for _, q := range pt.Prices {
		if p == q {
			return
		}
	}
	pt.Prices = append(pt.Prices, p)
}

// check reports entries that lack an instance type or a price.
func (pt *PriceTable) check(name string) error {
	for i, p := range pt.Prices {
		if p.InstanceType == "" {
			return fmt.Errorf("%s: entry %d has no instance_type", name, i+1)
		}
		if p.PerHourUSD <= 0 || p.VCPUs <= 0 {
			return fmt.Errorf("%s: %s needs positive price_per_hour_usd and vcpus", name, p.InstanceType)
		}
	}
	return nil
}

// Lookup returns the prices for instance type t, in table order.
func (pt *PriceTable) Lookup(t string) []Price {
	var out []Price
	for _, p := range pt.Prices {
		if p.InstanceType == t {
			out = append(out, p)
		}
	}
	return out
}

func vcpuValue(v float64) dataset.Value {
	if v == float64(int64(v)) {
		return dataset.Int(int64(v))
	}
	return dataset.Float(v)
}

func priceValue(v float64) dataset.Value {
	return dataset.String(strconv.FormatFloat(v, 'f', -1, 64))
}
