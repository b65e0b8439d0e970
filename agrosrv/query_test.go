// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"sbinet.org/x/agrotech"
	"sbinet.org/x/agrotech/agrosrv"
	"sbinet.org/x/agrotech/internal/agrosqlite"
)

func openDB(t *testing.T) *agrosqlite.DB {
	t.Helper()

	db, err := agrosqlite.Open(filepath.Join(t.TempDir(), "agrotech.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestLatestReading(t *testing.T) {
	db := openDB(t)

	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-01T10:00:00", Humidity: 40, Temperature: 20,
	}))
	require.NoError(t, db.Insert(agrotech.Reading{
		Sensor: "S001", Date: "2024-01-02T10:00:00", Humidity: 42, Temperature: 21,
	}))

	res := agrosrv.NewQuery(db).LatestReading("S001")
	require.Equal(t, agrosrv.Result{
		Found:       true,
		Sensor:      "S001",
		Date:        "2024-01-02T10:00:00",
		Humidity:    42,
		Temperature: 21,
	}, res)
}

func TestLatestReadingNotFound(t *testing.T) {
	db := openDB(t)

	res := agrosrv.NewQuery(db).LatestReading("S999")
	require.Equal(t, agrosrv.Result{
		Sensor:  "S999",
		Message: "no readings recorded",
	}, res)
}

// errDB fails every store operation.
type errDB struct {
	err error
}

func (db errDB) Insert(agrotech.Reading) error               { return db.err }
func (db errDB) Latest(string) (agrotech.Reading, error)     { return agrotech.Reading{}, db.err }
func (db errDB) Readings(string) ([]agrotech.Reading, error) { return nil, db.err }
func (db errDB) Sensors() ([]string, error)                  { return nil, db.err }
func (db errDB) Close() error                                { return nil }

func TestLatestReadingStoreError(t *testing.T) {
	db := errDB{err: errors.New("store down")}

	// A store failure surfaces as a failed result, not a panic.
	res := agrosrv.NewQuery(db).LatestReading("S001")
	require.False(t, res.Found)
	require.Equal(t, "S001", res.Sensor)
	require.Contains(t, res.Message, "store down")
}
