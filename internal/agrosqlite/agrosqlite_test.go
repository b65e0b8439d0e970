// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosqlite_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"sbinet.org/x/agrotech"
	"sbinet.org/x/agrotech/internal/agrosqlite"
)

func open(t *testing.T) *agrosqlite.DB {
	t.Helper()

	db, err := agrosqlite.Open(filepath.Join(t.TempDir(), "agrotech.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestLatest(t *testing.T) {
	db := open(t)

	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-01T10:00:00", Humidity: 40, Temperature: 20,
	}))
	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-02T10:00:00", Humidity: 42, Temperature: 21,
	}))
	// Out-of-order insert: fecha ordering, not insertion ordering,
	// decides the latest reading.
	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-01T12:00:00", Humidity: 41, Temperature: 20.5,
	}))

	r, err := db.Latest("S001")
	require.NoError(t, err)
	require.Equal(t, "2024-01-02T10:00:00", r.Date)
	require.Equal(t, 42.0, r.Humidity)
	require.Equal(t, 21.0, r.Temperature)
}

func TestLatestNoData(t *testing.T) {
	db := open(t)

	_, err := db.Latest("S999")
	require.ErrorIs(t, err, agrotech.ErrNoData)
}

func TestDuplicatesAccumulate(t *testing.T) {
	db := open(t)

	r := agrotech.Reading{Sensor: "S001", Date: "2024-01-01", Humidity: 40, Temperature: 20}
	require.NoError(t, db.Insert(r))
	require.NoError(t, db.Insert(r))

	vs, err := db.Readings("S001")
	require.NoError(t, err)
	require.Len(t, vs, 2)
}

func TestReadingsOrder(t *testing.T) {
	db := open(t)

	for _, fecha := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		require.NoError(t, db.Insert(agrotech.Reading{
			Sensor: "S001", Date: fecha, Humidity: 40, Temperature: 20,
		}))
	}

	vs, err := db.Readings("S001")
	require.NoError(t, err)
	require.Len(t, vs, 3)
	require.Equal(t, "2024-01-01", vs[0].Date)
	require.Equal(t, "2024-01-02", vs[1].Date)
	require.Equal(t, "2024-01-03", vs[2].Date)
}

func TestSensors(t *testing.T) {
	db := open(t)

	ids, err := db.Sensors()
	require.NoError(t, err)
	require.Empty(t, ids)

	for _, sensor := range []string{"S002", "S001", "S002"} {
		require.NoError(t, db.Insert(agrotech.Reading{
			Sensor: sensor, Date: "2024-01-01", Humidity: 40, Temperature: 20,
		}))
	}

	ids, err = db.Sensors()
	require.NoError(t, err)
	require.Equal(t, []string{"S001", "S002"}, ids)
}

func TestConcurrentIngestAndQuery(t *testing.T) {
	db := open(t)

	// Ingest and query run on independent timers and may overlap in
	// time; the store must stay correct under concurrent callers.
	const n = 200

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for i := 0; i < n; i++ {
			err := db.Insert(agrotech.Reading{
				Sensor:      "S001",
				Date:        fmt.Sprintf("2024-01-01T10:%02d:%02d", i/60, i%60),
				Humidity:    40,
				Temperature: 20,
			})
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	for i := 0; i < n; i++ {
		_, err := db.Latest("S001")
		if err != nil && !errors.Is(err, agrotech.ErrNoData) {
			t.Fatalf("could not query latest reading: %+v", err)
		}
	}

	require.NoError(t, <-errc)

	vs, err := db.Readings("S001")
	require.NoError(t, err)
	require.Len(t, vs, n)

	last, err := db.Latest("S001")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T10:03:19", last.Date)
}

func TestOpenIdempotent(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "agrotech.db")

	db, err := agrosqlite.Open(fname)
	require.NoError(t, err)
	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-01", Humidity: 40, Temperature: 20,
	}))
	require.NoError(t, db.Close())

	// Reopening must keep the schema and the data.
	db, err = agrosqlite.Open(fname)
	require.NoError(t, err)
	defer db.Close()

	r, err := db.Latest("S001")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", r.Date)
}
