// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command agrotech-srv runs the agrotech ingestion daemon: it watches
// the input directory for CSV sensor-reading files, persists them to
// the reading store, exports echo copies and the JSON snapshot to the
// output directory, runs the periodic demo query, and serves the HTTP
// monitoring surface.
package main // import "sbinet.org/x/agrotech/cmd/agrotech-srv"

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"sbinet.org/x/agrotech"
	"sbinet.org/x/agrotech/agrosrv"
	"sbinet.org/x/agrotech/internal/agrobolt"
	"sbinet.org/x/agrotech/internal/agrosqlite"
)

func main() {
	log.SetPrefix("agrotech: ")
	log.SetFlags(0)

	var (
		addr    = flag.String("addr", ":8080", "[host]:port to serve")
		base    = flag.String("base", ".", "base directory (holds input/, output/ and database/)")
		backend = flag.String("db-backend", "sqlite", "storage backend (sqlite|bolt)")
	)

	flag.Parse()

	xmain(*addr, *base, *backend)
}

func xmain(addr, base, backend string) {
	var (
		input  = filepath.Join(base, "input")
		output = filepath.Join(base, "output")
		dbdir  = filepath.Join(base, "database")
	)

	for _, dir := range []string{input, output, dbdir} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			log.Panicf("could not create directory %q: %+v", dir, err)
		}
	}

	db, err := openDB(backend, dbdir)
	if err != nil {
		log.Panicf("could not open reading store: %+v", err)
	}
	defer db.Close()

	watcher, err := agrotech.NewWatcher(input)
	if err != nil {
		log.Panicf("could not create watcher: %+v", err)
	}

	var (
		metrics = agrosrv.NewMetrics(prometheus.DefaultRegisterer)
		arch    = agrotech.NewArchiver(output)
		pipe    = agrosrv.NewPipeline(db, arch, metrics)
		qry     = agrosrv.NewQuery(db)
		sched   = agrosrv.NewScheduler(qry, agrosrv.DemoSensor, metrics)
	)

	srv, err := agrosrv.NewServer("/", db, qry, metrics)
	if err != nil {
		log.Panicf("could not create agrotech server: %+v", err)
	}

	grp, ctx := errgroup.WithContext(context.Background())
	grp.Go(func() error {
		return watcher.Run(ctx, pipe.Handle)
	})
	grp.Go(func() error {
		return sched.Run(ctx)
	})
	grp.Go(func() error {
		log.Printf("serving %q...", addr)
		return http.ListenAndServe(addr, srv)
	})

	err = grp.Wait()
	if err != nil {
		log.Panicf("could not run agrotech daemon: %+v", err)
	}
}

func openDB(backend, dir string) (agrotech.DB, error) {
	switch backend {
	case "sqlite":
		return agrosqlite.Open(filepath.Join(dir, "agrotech.db"))
	case "bolt":
		return agrobolt.Open(filepath.Join(dir, "agrotech.bolt"))
	default:
		log.Panicf("unknown db backend %q", backend)
	}
	panic("unreachable")
}
