// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agrosqlite provides an implementation of an agrotech reading
// store, backed by SQLite3.
package agrosqlite // import "sbinet.org/x/agrotech/internal/agrosqlite"

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
	"sbinet.org/x/agrotech"
)

// poolSize bounds the concurrent connections to the database, so that
// an in-flight insert batch does not starve a concurrent query.
const poolSize = 3

type DB struct {
	db *sql.DB
}

var _ agrotech.DB = (*DB)(nil)

// Open opens and initializes a sqlite3-backed reading store. The
// lecturas table and its (id_sensor, fecha) index are created
// idempotently.
func Open(fname string) (*DB, error) {
	if _, err := os.Stat(fname); errors.Is(err, fs.ErrNotExist) {
		err = createDB(context.Background(), fname)
		if err != nil {
			return nil, fmt.Errorf("could not create agrotech db: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fname)
	if err != nil {
		return nil, fmt.Errorf("could not open agrotech db %q: %w", fname, err)
	}
	db.SetMaxOpenConns(poolSize)

	store := &DB{db: db}
	err = store.init()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not setup agrotech db %q: %w", fname, err)
	}

	return store, nil
}

func createDB(ctx context.Context, fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create agrotech db %q: %w", fname, err)
	}
	defer f.Close()

	db, err := sql.Open("sqlite", fname)
	if err != nil {
		return fmt.Errorf("could not open agrotech db %q: %w", fname, err)
	}
	defer db.Close()

	// Use Write Ahead Logging which improves SQLite concurrency.
	// Requires SQLite >= 3.7.0
	_, err = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	if err != nil {
		return fmt.Errorf("could not set WAL mode: %w", err)
	}

	// Check if the WAL mode was set correctly
	var journalMode string
	if err = db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("could not determine sqlite3 journal_mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("could not set sqlite WAL mode")
	}

	return nil
}

func (db *DB) init() error {
	{
		const stmt = `CREATE TABLE IF NOT EXISTS lecturas (
		id_sensor   VARCHAR(10), -- sensor id
		fecha       TEXT,        -- reading timestamp (opaque, ordered lexicographically)
		humedad     DOUBLE,      -- humidity (in %)
		temperatura DOUBLE       -- temperature (in °C)
)
`
		_, err := db.db.Exec(stmt)
		if err != nil {
			return fmt.Errorf("could not create lecturas table: %w", err)
		}
	}
	{
		const stmt = `CREATE INDEX IF NOT EXISTS idx_lecturas_sensor_fecha
		ON lecturas(id_sensor, fecha)
`
		_, err := db.db.Exec(stmt)
		if err != nil {
			return fmt.Errorf("could not create lecturas index: %w", err)
		}
	}

	return nil
}

// Close closes an agrotech reading store.
func (db *DB) Close() error {
	if db.db != nil {
		err := db.db.Close()
		if err != nil {
			return fmt.Errorf("could not close sqlite db: %w", err)
		}
		db.db = nil
	}

	return nil
}

// Insert stores one reading into the lecturas table.
func (db *DB) Insert(r agrotech.Reading) error {
	const stmt = `INSERT INTO lecturas (
	id_sensor,
	fecha,
	humedad,
	temperatura
) VALUES
(?1, ?2, ?3, ?4)
`
	_, err := db.db.Exec(stmt, r.Sensor, r.Date, r.Humidity, r.Temperature)
	if err != nil {
		return fmt.Errorf("could not insert reading %q: %w", r.Date, err)
	}

	return nil
}

// Latest returns the most recent reading for the provided sensor.
func (db *DB) Latest(sensor string) (agrotech.Reading, error) {
	const q = `SELECT id_sensor, fecha, humedad, temperatura
	FROM lecturas
	WHERE id_sensor = ?1
	ORDER BY fecha DESC
	LIMIT 1
`
	var r agrotech.Reading
	err := db.db.QueryRow(q, sensor).Scan(&r.Sensor, &r.Date, &r.Humidity, &r.Temperature)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r, agrotech.ErrNoData
	case err != nil:
		return r, fmt.Errorf("could not query latest reading for sensor %q: %w", sensor, err)
	}

	return r, nil
}

// Readings returns all readings for the provided sensor, by ascending
// fecha.
func (db *DB) Readings(sensor string) ([]agrotech.Reading, error) {
	const q = `SELECT id_sensor, fecha, humedad, temperatura
	FROM lecturas
	WHERE id_sensor = ?1
	ORDER BY fecha ASC
`
	rows, err := db.db.Query(q, sensor)
	if err != nil {
		return nil, fmt.Errorf("could not issue query: %w", err)
	}
	defer rows.Close()

	var vs []agrotech.Reading
	for i := 0; rows.Next(); i++ {
		var r agrotech.Reading
		err = rows.Scan(&r.Sensor, &r.Date, &r.Humidity, &r.Temperature)
		if err != nil {
			return nil, fmt.Errorf("could not scan row %d: %w", i, err)
		}
		vs = append(vs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate over rows: %w", err)
	}

	return vs, nil
}

// Sensors returns the sensor ids with at least one recorded reading.
func (db *DB) Sensors() ([]string, error) {
	const q = `SELECT DISTINCT id_sensor FROM lecturas ORDER BY id_sensor`
	rows, err := db.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve sensors list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		err = rows.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("could not scan sensor id row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate over sensor ids: %w", err)
	}

	return ids, nil
}
