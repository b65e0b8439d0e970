// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command agrotech-query prints the most recent reading recorded for a
// sensor, as a JSON document.
package main // import "sbinet.org/x/agrotech/cmd/agrotech-query"

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"sbinet.org/x/agrotech"
	"sbinet.org/x/agrotech/agrosrv"
	"sbinet.org/x/agrotech/internal/agrobolt"
	"sbinet.org/x/agrotech/internal/agrosqlite"
)

func main() {
	log.SetPrefix("agrotech-query: ")
	log.SetFlags(0)

	var (
		fname   = flag.String("db", "database/agrotech.db", "path to DB file")
		backend = flag.String("db-backend", "sqlite", "storage backend (sqlite|bolt)")
		sensor  = flag.String("sensor", agrosrv.DemoSensor, "sensor id to query")
	)

	flag.Parse()

	err := xmain(*fname, *backend, *sensor)
	if err != nil {
		log.Fatal(err)
	}
}

func xmain(fname, backend, sensor string) error {
	var (
		db  agrotech.DB
		err error
	)
	switch backend {
	case "bolt":
		db, err = agrobolt.Open(fname)
	default:
		db, err = agrosqlite.Open(fname)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	res := agrosrv.NewQuery(db).LatestReading(sensor)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
