// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A Value is a single cell of a normalized row.
//
// The zero Value is absent: the field is known to the row but neither
// source carried it. Absent values are written as empty CSV cells and
// never compare equal to 0 or "".
type Value struct {
	v interface{}
}

// Absent is the absent Value.
var Absent = Value{}

// String returns a string Value.
func String(s string) Value { return Value{s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{i} }

// Float returns a floating-point Value. NaN is treated as absent.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Absent
	}
	return Value{f}
}

// Of wraps a value decoded from a structured record. It accepts the
// types produced by encoding/json with UseNumber: nil, bool, string,
// json.Number, map[string]interface{} and []interface{}. JSON null
// becomes the absent Value. Go numeric types are also accepted.
func Of(x interface{}) Value {
	switch x := x.(type) {
	case nil:
		return Absent
	case Value:
		return x
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	}
	return Value{x}
}

// IsAbsent reports whether v is the absent Value.
func (v Value) IsAbsent() bool {
	return v.v == nil
}

// Interface returns the underlying value, or nil if v is absent.
func (v Value) Interface() interface{} {
	return v.v
}

// String formats v as a CSV cell. Numbers read from a record keep
// their source text exactly; computed floats always carry a decimal
// point. Nested objects and arrays are rendered as compact JSON.
func (v Value) String() string {
	switch x := v.v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v.v)
	if err != nil {
		return fmt.Sprint(v.v)
	}
	return string(b)
}

// formatFloat formats f in the shortest form that reads back exactly,
// keeping a decimal point on integral values so float columns stay
// recognizable.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !math.IsInf(f, 0) && !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Str returns v as a string and reports whether v holds a non-empty
// string.
func (v Value) Str() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && s != ""
}

// Float returns v as a float64. Strings are parsed, so values read
// back from a CSV file convert too. ok is false for absent and
// non-numeric values.
func (v Value) Float() (f float64, ok bool) {
	var err error
	switch x := v.v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(x, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Truthy reports whether v would count as set: absent values, empty
// strings, false, zero numbers and empty containers are not truthy.
func (v Value) Truthy() bool {
	switch x := v.v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case map[string]interface{}:
		return len(x) > 0
	case []interface{}:
		return len(x) > 0
	}
	return true
}

// Equal reports whether v and w format to the same cell and agree on
// absence.
func (v Value) Equal(w Value) bool {
	if v.IsAbsent() || w.IsAbsent() {
		return v.IsAbsent() == w.IsAbsent()
	}
	return v.String() == w.String()
}

// GoString is used by %#v, which keeps test failure messages readable.
func (v Value) GoString() string {
	if v.IsAbsent() {
		return "<absent>"
	}
	return strconv.Quote(v.String())
}
