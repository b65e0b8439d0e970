// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agrosrv provides the agrotech service layer: the ingestion
// pipeline driving store and exporter, the latest-reading query
// service, the periodic demo scheduler and the HTTP monitoring
// surface.
package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"errors"
	"fmt"

	"sbinet.org/x/agrotech"
)

// NoDataMessage is carried by a not-found query result.
const NoDataMessage = "no readings recorded"

// Result is the outcome of a latest-reading query.
type Result struct {
	Found       bool    `json:"found"`
	Sensor      string  `json:"id_sensor"`
	Date        string  `json:"fecha,omitempty"`
	Humidity    float64 `json:"humedad"`
	Temperature float64 `json:"temperatura"`
	Message     string  `json:"mensaje,omitempty"`
}

func (res Result) String() string {
	if !res.Found {
		return fmt.Sprintf("sensor=%s: %s", res.Sensor, res.Message)
	}
	return fmt.Sprintf(
		"sensor=%s fecha=%s humedad=%v%% temperatura=%v°C",
		res.Sensor, res.Date, res.Humidity, res.Temperature,
	)
}

// Query answers latest-reading requests against a reading store. It is
// a pure read surface, safe to call concurrently with ingestion.
type Query struct {
	db agrotech.DB
}

func NewQuery(db agrotech.DB) *Query {
	return &Query{db: db}
}

// LatestReading returns the most recent reading recorded for the
// provided sensor. A sensor with no readings yields a not-found
// result; a store failure yields a failed result, never a panic.
func (q *Query) LatestReading(sensor string) Result {
	r, err := q.db.Latest(sensor)
	switch {
	case errors.Is(err, agrotech.ErrNoData):
		return Result{Sensor: sensor, Message: NoDataMessage}
	case err != nil:
		return Result{Sensor: sensor, Message: fmt.Sprintf("could not query store: %+v", err)}
	}

	return Result{
		Found:       true,
		Sensor:      r.Sensor,
		Date:        r.Date,
		Humidity:    r.Humidity,
		Temperature: r.Temperature,
	}
}
