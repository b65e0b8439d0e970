// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech // import "sbinet.org/x/agrotech"

// DB is the persistence contract for sensor readings.
//
// Implementations must tolerate concurrent callers: ingestion and
// querying run on independent timers and may overlap in time.
// Duplicate readings for the same (sensor, date) pair are permitted
// and accumulate.
type DB interface {
	// Insert stores one reading. Batches are inserted one reading at
	// a time, in source row order; there is no whole-batch
	// transaction.
	Insert(r Reading) error

	// Latest returns the reading with the greatest date for the
	// provided sensor, or ErrNoData if none has been recorded.
	Latest(sensor string) (Reading, error)

	// Readings returns all readings for the provided sensor, ordered
	// by ascending date.
	Readings(sensor string) ([]Reading, error)

	// Sensors returns the sorted list of sensor ids with at least one
	// recorded reading.
	Sensors() ([]string, error)

	Close() error
}
