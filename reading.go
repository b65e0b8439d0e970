// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agrotech provides the data model and ingestion primitives for
// a farm sensor-reading pipeline: CSV files dropped into an input
// directory are parsed into readings, persisted to an indexed store and
// queried for the most recent reading of a given sensor.
package agrotech // import "sbinet.org/x/agrotech"

import (
	"fmt"
	"time"
)

// Reading is one sensor measurement.
//
// The timestamp is kept as the opaque string found in the source file;
// ordering between readings of the same sensor is lexicographic on that
// string.
type Reading struct {
	Sensor      string  `json:"id_sensor"`
	Date        string  `json:"fecha"`
	Humidity    float64 `json:"humedad"`
	Temperature float64 `json:"temperatura"`
}

func (r Reading) String() string {
	return fmt.Sprintf(
		"sensor=%s fecha=%s humedad=%v%% temperatura=%v°C",
		r.Sensor, r.Date, r.Humidity, r.Temperature,
	)
}

// Batch is the ordered set of readings parsed from one input file.
// A batch may be empty: an input file with no rows is not an error.
type Batch struct {
	Readings []Reading
	Count    int
}

// FileIdentity identifies one version of an input file. Two files with
// the same name but a different size or modification time are distinct
// and both get processed.
type FileIdentity struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Key returns the idempotency key for this identity.
func (id FileIdentity) Key() string {
	return fmt.Sprintf("%s-%d-%s", id.Name, id.Size, id.ModTime.Format("20060102150405"))
}
