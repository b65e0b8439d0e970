// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech // import "sbinet.org/x/agrotech"

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required CSV columns, matched case-insensitively on the header row.
const (
	colSensor      = "id_sensor"
	colDate        = "fecha"
	colHumidity    = "humedad"
	colTemperature = "temperatura"
)

// DecodeBatch reads the raw CSV content of one input file and
// normalizes it into a Batch.
func DecodeBatch(name string, r io.Reader) (Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("could not read CSV content of %q: %w", name, err)
	}

	return Normalize(name, rows)
}

// Normalize turns raw CSV rows into a Batch of validated readings.
//
// Row 0 is the header: each cell is stripped of a leading BOM, trimmed
// and lowercased, and all four required columns must resolve or the
// whole file is rejected with a SchemaError. Data rows with too few
// cells, or with an empty humidity or temperature cell, are skipped
// silently. A non-numeric humidity or temperature aborts the whole
// file with a ParseError, discarding rows already accumulated.
//
// A file with zero rows yields an empty Batch, not an error.
func Normalize(name string, rows [][]string) (Batch, error) {
	if len(rows) == 0 {
		return Batch{}, nil
	}

	hdr := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\uFEFF")
		hdr[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var (
		iSensor = index(hdr, colSensor)
		iDate   = index(hdr, colDate)
		iHum    = index(hdr, colHumidity)
		iTemp   = index(hdr, colTemperature)
	)
	if iSensor < 0 || iDate < 0 || iHum < 0 || iTemp < 0 {
		return Batch{}, &SchemaError{File: name, Headers: hdr}
	}
	last := max(iSensor, iDate, iHum, iTemp)

	var batch Batch
	for i, row := range rows[1:] {
		if len(row) <= last {
			continue
		}

		hum := normalizeDecimal(row[iHum])
		temp := normalizeDecimal(row[iTemp])
		if hum == "" || temp == "" {
			continue
		}

		h, err := strconv.ParseFloat(hum, 64)
		if err != nil {
			return Batch{}, &ParseError{
				File: name, Row: i + 2,
				Column: colHumidity, Value: row[iHum], Err: err,
			}
		}
		t, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return Batch{}, &ParseError{
				File: name, Row: i + 2,
				Column: colTemperature, Value: row[iTemp], Err: err,
			}
		}

		batch.Readings = append(batch.Readings, Reading{
			Sensor:      row[iSensor],
			Date:        row[iDate],
			Humidity:    h,
			Temperature: t,
		})
	}
	batch.Count = len(batch.Readings)

	return batch, nil
}

// normalizeDecimal accepts both comma and dot decimal separators.
func normalizeDecimal(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
}

func index(vs []string, v string) int {
	for i := range vs {
		if vs[i] == v {
			return i
		}
	}
	return -1
}
