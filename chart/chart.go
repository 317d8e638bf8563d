// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws PNG bar charts of aggregated benchmark results.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"golang.org/x/cloudbench/dataset"
)

// ErrEmpty is returned when asked to draw a chart with no bars.
var ErrEmpty = errors.New("chart has no bars")

// A Bar is one bar of a Chart.
type Bar struct {
	Label string
	Value float64
	Arch  string // selects the bar color
}

// A Chart is a bar chart with one nominal X tick per bar.
type Chart struct {
	Title          string
	XLabel, YLabel string
	Bars           []Bar
}

const dpi = 200

// archColors are the bar colors of each architecture. Other
// architectures are drawn gray.
var archColors = map[string]color.Color{
	"aarch64": color.NRGBA{0x2e, 0x8b, 0x57, 0xff},
	"x86_64":  color.NRGBA{0xff, 0x8c, 0x00, 0xff},
}

var archNames = map[string]string{
	"aarch64": "ARM64",
	"x86_64":  "AMD64",
}

func archColor(arch string) color.Color {
	if c, ok := archColors[arch]; ok {
		return c
	}
	return color.Gray{0x80}
}

// Plot builds the gonum plot of c.
func (c *Chart) Plot() (*plot.Plot, error) {
	if len(c.Bars) == 0 {
		return nil, ErrEmpty
	}
	pl := plot.New()
	pl.Title.Text = c.Title
	pl.X.Label.Text = c.XLabel
	pl.Y.Label.Text = c.YLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	w := vg.Points(20)
	legend := make(map[string]bool)
	var labels []string
	for i, b := range c.Bars {
		bc, err := plotter.NewBarChart(plotter.Values{b.Value}, w)
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", b.Label, err)
		}
		bc.XMin = float64(i)
		bc.Color = archColor(b.Arch)
		bc.LineStyle.Width = 0
		pl.Add(bc)
		if name, ok := archNames[b.Arch]; ok && !legend[b.Arch] {
			legend[b.Arch] = true
			pl.Legend.Add(name, bc)
		}
		labels = append(labels, b.Label)
	}
	pl.NominalX(labels...)
	pl.Legend.Top = true

	pl.X.Tick.Label.Rotation = -math.Pi / 6
	pl.X.Tick.Label.YAlign = draw.YTop
	pl.X.Tick.Label.XAlign = draw.XLeft

	if pl.Y.Min > 0 {
		pl.Y.Min = 0
	}
	return pl, nil
}

// WritePNG draws c as a PNG image to w.
func (c *Chart) WritePNG(w io.Writer) error {
	pl, err := c.Plot()
	if err != nil {
		return err
	}
	// Heuristic size, in centimeters.
	width := 1.5 * float64(4+len(c.Bars))
	if width < 16 {
		width = 16
	}
	height := 10.0
	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Centimeter, vg.Length(height)*vg.Centimeter),
		vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(can))
	_, err = can.WriteTo(w)
	return err
}

// WriteFile draws c as a PNG image to path, creating parent
// directories as needed.
func (c *Chart) WriteFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return c.WritePNG(f)
}

// BarsOf returns one bar per row of t with a numeric value in col,
// labelled "instance_type (arch)", in row order.
func BarsOf(t *dataset.Table, col string) []Bar {
	return bars(t, col, func(r *dataset.Row) string {
		return fmt.Sprintf("%s (%s)", r.Get("instance_type"), r.Get("arch"))
	})
}

func bars(t *dataset.Table, col string, label func(*dataset.Row) string) []Bar {
	var out []Bar
	for _, r := range t.Rows {
		v, ok := r.Get(col).Float()
		if !ok || math.IsInf(v, 0) {
			continue
		}
		out = append(out, Bar{Label: label(r), Value: v, Arch: r.Get("arch").String()})
	}
	return out
}

// sortBars sorts bars by architecture, then ascending value.
func sortBars(bs []Bar) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Arch != bs[j].Arch {
			return bs[i].Arch < bs[j].Arch
		}
		return bs[i].Value < bs[j].Value
	})
}
