// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runlog reads benchmark run logs.
//
// A run log is a newline-delimited file in which each line is either
// a self-contained JSON object (a structured record) or free program
// output (a text line). There is no file-level framing. Lines are
// classified independently; a line that is not a JSON object is never
// an error, it is simply text.
package runlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxLineSize is the longest line a Reader accepts. Longer lines are
// reported as an I/O error for the file.
const MaxLineSize = 16 << 20

// A Reader reads a run log line by line.
//
// Its API is modeled on bufio.Scanner. Unlike benchmark-format
// readers, it does not reuse the entries it returns; the caller may
// retain them.
type Reader struct {
	s   *bufio.Scanner
	err error // current I/O error

	fileName string
	line     int

	entry Entry
}

// An Entry is a single non-blank line read from a run log. It is
// either a *Record or a *TextLine.
type Entry interface {
	// Pos returns the position of this entry as a file name and a
	// 1-based line number within that file.
	Pos() (fileName string, line int)
}

var _ Entry = (*Record)(nil)
var _ Entry = (*TextLine)(nil)

// A TextLine is a non-blank line that did not parse as a JSON object.
type TextLine struct {
	// Text is the line with trailing whitespace removed.
	Text string

	fileName string
	line     int
}

func (t *TextLine) Pos() (fileName string, line int) {
	return t.fileName, t.line
}

var noEntry = &TextLine{fileName: "", line: 0, Text: "Reader.Scan has not been called"}

// NewReader returns a Reader that reads the run log r. fileName is
// used in positions and error messages.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(make([]byte, 0, 64<<10), MaxLineSize)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.line = 0
	r.err = nil
	r.entry = nil
}

// Scan advances the reader to the next non-blank line and reports
// whether one was read. The caller should use the Entry method to get
// it. If Scan reaches EOF or an I/O error occurs, it returns false,
// in which case the caller should use the Err method to check for
// errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := bytes.TrimSpace(r.s.Bytes())
		if len(line) == 0 {
			continue
		}
		if fields, ok := parseObject(line); ok {
			r.entry = &Record{Fields: fields, fileName: r.fileName, line: r.line}
		} else {
			text := strings.TrimRight(r.s.Text(), " \t\r\n\v\f")
			r.entry = &TextLine{Text: text, fileName: r.fileName, line: r.line}
		}
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line+1, err)
	}
	r.entry = nil
	return false
}

// Entry returns the entry that was just read by Scan.
func (r *Reader) Entry() Entry {
	if r.entry == nil {
		return noEntry
	}
	return r.entry
}

// Err returns the first non-EOF I/O error that was encountered by the
// Reader.
func (r *Reader) Err() error {
	return r.err
}

// parseObject decodes line as a single JSON object. Numbers are kept
// as json.Number so they can be copied verbatim. Scalars, arrays and
// objects followed by trailing data are not objects. The non-standard
// literals NaN, Infinity and -Infinity, as written by Python's json
// module, decode as null.
func parseObject(line []byte) (map[string]interface{}, bool) {
	if line[0] != '{' {
		return nil, false
	}
	fields, ok := decodeObject(line)
	if !ok {
		if fixed, changed := nullNonFinite(line); changed {
			fields, ok = decodeObject(fixed)
		}
	}
	return fields, ok
}

func decodeObject(line []byte) (map[string]interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return fields, true
}

var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// nullNonFinite returns line with every NaN, Infinity and -Infinity
// outside of strings replaced by null.
func nullNonFinite(line []byte) ([]byte, bool) {
	var out []byte
	changed := false
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if lit := nonFiniteAt(line[i:]); lit != nil {
			out = append(out, "null"...)
			i += len(lit) - 1
			changed = true
			continue
		}
		out = append(out, c)
	}
	return out, changed
}

func nonFiniteAt(b []byte) []byte {
	for _, lit := range nonFinite {
		if bytes.HasPrefix(b, lit) {
			return lit
		}
	}
	return nil
}
