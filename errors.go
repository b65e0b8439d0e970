// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech // import "sbinet.org/x/agrotech"

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned by DB.Latest when no reading has been recorded
// for the requested sensor.
var ErrNoData = errors.New("agrotech: no data")

// SchemaError reports an input file whose header row is missing one of
// the required columns. The whole file is rejected: no reading from it
// is ever stored.
type SchemaError struct {
	File    string   // source file name
	Headers []string // normalized headers actually seen
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"agrotech: invalid CSV headers in %q: expected id_sensor, fecha, humedad, temperatura; got [%s]",
		e.File, strings.Join(e.Headers, ", "),
	)
}

// ParseError reports a humidity or temperature cell that is not numeric
// after decimal-separator normalization. It aborts the whole file,
// discarding rows already accumulated for it.
type ParseError struct {
	File   string
	Row    int // 1-based row number in the source file
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(
		"agrotech: could not parse %s=%q at %s:%d: %v",
		e.Column, e.Value, e.File, e.Row, e.Err,
	)
}

func (e *ParseError) Unwrap() error { return e.Err }
