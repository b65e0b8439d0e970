// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agrobolt provides an implementation of an agrotech reading
// store, backed by bbolt.
package agrobolt // import "sbinet.org/x/agrotech/internal/agrobolt"

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"sbinet.org/x/agrotech"
)

var bucketRoot = []byte("lecturas")

type DB struct {
	db *bbolt.DB
}

var _ agrotech.DB = (*DB)(nil)

// Open opens and initializes a boltdb-backed reading store.
func Open(fname string) (*DB, error) {
	db, err := bbolt.Open(fname, 0644, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open agrotech db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRoot)
		if err != nil {
			return fmt.Errorf("could not create %q bucket: %w", bucketRoot, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not setup agrotech db buckets: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes an agrotech reading store.
func (db *DB) Close() error {
	if db.db != nil {
		err := db.db.Close()
		if err != nil {
			return fmt.Errorf("could not close bolt db: %w", err)
		}
		db.db = nil
	}

	return nil
}

// key builds a per-sensor bucket key that sorts by fecha first and by
// insertion sequence second, so duplicate (sensor, fecha) readings
// accumulate instead of overwriting each other. The NUL separator
// keeps the fecha prefix ordering strictly lexicographic.
func key(fecha string, seq uint64) []byte {
	k := make([]byte, 0, len(fecha)+9)
	k = append(k, fecha...)
	k = append(k, 0)
	k = binary.BigEndian.AppendUint64(k, seq)
	return k
}

// Insert stores one reading into the per-sensor bucket.
func (db *DB) Insert(r agrotech.Reading) error {
	err := db.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketRoot)
		if root == nil {
			return fmt.Errorf("could not find %q bucket", bucketRoot)
		}

		bkt, err := root.CreateBucketIfNotExists([]byte(r.Sensor))
		if err != nil {
			return fmt.Errorf("could not create bucket for sensor %q: %w", r.Sensor, err)
		}

		seq, err := bkt.NextSequence()
		if err != nil {
			return fmt.Errorf("could not get sequence for sensor %q: %w", r.Sensor, err)
		}

		buf, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("could not marshal reading: %w", err)
		}

		return bkt.Put(key(r.Date, seq), buf)
	})
	if err != nil {
		return fmt.Errorf("could not insert reading %q: %w", r.Date, err)
	}

	return nil
}

// Latest returns the most recent reading for the provided sensor.
func (db *DB) Latest(sensor string) (agrotech.Reading, error) {
	var (
		r  agrotech.Reading
		ok bool
	)
	err := db.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketRoot)
		if root == nil {
			return fmt.Errorf("could not find %q bucket", bucketRoot)
		}

		bkt := root.Bucket([]byte(sensor))
		if bkt == nil {
			return nil
		}

		k, v := bkt.Cursor().Last()
		if k == nil {
			return nil
		}

		err := json.Unmarshal(v, &r)
		if err != nil {
			return fmt.Errorf("could not unmarshal reading: %w", err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return r, fmt.Errorf("could not query latest reading for sensor %q: %w", sensor, err)
	}
	if !ok {
		return r, agrotech.ErrNoData
	}

	return r, nil
}

// Readings returns all readings for the provided sensor, by ascending
// fecha.
func (db *DB) Readings(sensor string) ([]agrotech.Reading, error) {
	var vs []agrotech.Reading
	err := db.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketRoot)
		if root == nil {
			return fmt.Errorf("could not find %q bucket", bucketRoot)
		}

		bkt := root.Bucket([]byte(sensor))
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(k, v []byte) error {
			var r agrotech.Reading
			err := json.Unmarshal(v, &r)
			if err != nil {
				return fmt.Errorf("could not unmarshal reading: %w", err)
			}
			vs = append(vs, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not read rows for sensor %q: %w", sensor, err)
	}

	return vs, nil
}

// Sensors returns the sensor ids with at least one recorded reading.
func (db *DB) Sensors() ([]string, error) {
	var ids []string
	err := db.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketRoot)
		if root == nil {
			return fmt.Errorf("could not find %q bucket", bucketRoot)
		}

		return root.ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve sensors list: %w", err)
	}

	return ids, nil
}
