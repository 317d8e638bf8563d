// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders result tables as aligned text or as a
// standalone HTML page.
package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/aclements/go-gg/table"
	"github.com/google/safehtml/template"

	"golang.org/x/cloudbench/dataset"
)

// WriteText prints t to w as aligned columns.
func WriteText(w io.Writer, t *dataset.Table) error {
	return table.Fprint(w, t.Grouping(t.Columns(), nil))
}

// A Section is one titled table of a report, optionally followed by
// chart images.
type Section struct {
	Title string
	Table *dataset.Table

	// Images are chart file names, relative to the report.
	Images []string
}

type page struct {
	Title    string
	Sections []section
}

type section struct {
	Title   string
	Columns []string
	Rows    [][]string
	Images  []string
}

var htmlTemplate = template.Must(template.New("").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1em; }
th, td { border: 1px solid #ccc; padding: 0.2em 0.6em; }
img { max-width: 100%; display: block; margin-bottom: 1em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if .Rows -}}
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end -}}
</table>
{{- else -}}
<p>No results.</p>
{{- end}}
{{range .Images}}<img src="{{.}}" alt="{{.}}">
{{end}}
{{- end}}
</body>
</html>
`))

// WriteHTML renders sections as an HTML page to w.
func WriteHTML(w io.Writer, title string, sections []Section) error {
	p := page{Title: title}
	for _, s := range sections {
		ps := section{Title: s.Title, Images: s.Images}
		if s.Table != nil {
			ps.Columns = s.Table.Columns()
			for _, r := range s.Table.Rows {
				row := make([]string, len(ps.Columns))
				for i, c := range ps.Columns {
					row[i] = r.Get(c).String()
				}
				ps.Rows = append(ps.Rows, row)
			}
		}
		p.Sections = append(p.Sections, ps)
	}
	return htmlTemplate.Execute(w, p)
}

// WriteHTMLFile renders sections to path.
func WriteHTMLFile(path, title string, sections []Section) (err error) {
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
	return WriteHTML(f, title, sections)
}
