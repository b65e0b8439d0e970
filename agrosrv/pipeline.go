// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"sbinet.org/x/agrotech"
)

// Pipeline runs the per-file ingestion sequence: archive an echo copy,
// normalize the CSV content into a batch, then insert the batch into
// the store and export the JSON snapshot, both consuming the same
// batch in parallel.
type Pipeline struct {
	db      agrotech.DB
	arch    *agrotech.Archiver
	metrics *Metrics
}

func NewPipeline(db agrotech.DB, arch *agrotech.Archiver, metrics *Metrics) *Pipeline {
	return &Pipeline{db: db, arch: arch, metrics: metrics}
}

// Handle processes one detected file to completion. Errors abort that
// file only: the watcher logs them and keeps polling.
func (p *Pipeline) Handle(ev agrotech.FileEvent) error {
	p.metrics.filesDetected.Inc()

	err := p.process(ev)
	if err != nil {
		p.metrics.filesFailed.Inc()
		return err
	}

	return nil
}

func (p *Pipeline) process(ev agrotech.FileEvent) error {
	log.Printf("detected %q", ev.Identity.Name)

	raw, err := os.ReadFile(ev.Path)
	if err != nil {
		return fmt.Errorf("could not read input file %q: %w", ev.Path, err)
	}

	// The echo copy is written before parsing and is unconditional:
	// it exists even for files that fail validation below.
	echo, err := p.arch.Echo(ev.Identity.Name, raw, time.Now())
	if err != nil {
		return fmt.Errorf("could not archive %q: %w", ev.Identity.Name, err)
	}
	log.Printf("archived %q as %q", ev.Identity.Name, echo)

	batch, err := agrotech.DecodeBatch(ev.Identity.Name, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", ev.Identity.Name, err)
	}
	log.Printf("parsed %d record(s) from %q", batch.Count, ev.Identity.Name)

	var grp errgroup.Group
	grp.Go(func() error {
		return p.insert(batch)
	})
	grp.Go(func() error {
		err := p.arch.Snapshot(batch)
		if err != nil {
			return fmt.Errorf("could not export snapshot: %w", err)
		}
		p.metrics.snapshots.Inc()
		log.Printf("snapshot %q updated (%d record(s))", agrotech.SnapshotName, batch.Count)
		return nil
	})

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("could not consume batch from %q: %w", ev.Identity.Name, err)
	}

	return nil
}

// insert stores the batch one reading at a time, in source row order.
// A failure aborts the remaining rows; rows already inserted stay
// committed.
func (p *Pipeline) insert(batch agrotech.Batch) error {
	for _, r := range batch.Readings {
		err := p.db.Insert(r)
		if err != nil {
			return fmt.Errorf("could not insert reading (%v): %w", r, err)
		}
		p.metrics.rowsInserted.Inc()
		log.Printf("insert %v", r)
	}

	return nil
}
