// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech // import "sbinet.org/x/agrotech"

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is the cadence at which the input directory is
// scanned for new files.
const DefaultPollInterval = 1 * time.Second

// FileEvent is emitted once per newly detected input file version.
type FileEvent struct {
	Identity FileIdentity
	Path     string
}

// seenSet remembers the file identities consumed during this process
// lifetime. It is not persisted: a restart forgets all history and may
// reprocess previously consumed files.
type seenSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{keys: make(map[string]struct{})}
}

func (s *seenSet) seen(id FileIdentity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[id.Key()]
	return ok
}

func (s *seenSet) markSeen(id FileIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id.Key()] = struct{}{}
}

// Watcher polls an input directory for CSV files and emits one event
// per file identity not already seen. It never deletes or locks source
// files, so external writers may keep appending new ones.
type Watcher struct {
	dir      string
	interval time.Duration
	seen     *seenSet
}

// NewWatcher creates a watcher over the provided input directory.
// The directory must already exist: its absence is a fatal startup
// condition, not something the watcher recovers from.
func NewWatcher(dir string) (*Watcher, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("could not stat input directory %q: %w", dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("input path %q is not a directory", dir)
	}

	return &Watcher{
		dir:      dir,
		interval: DefaultPollInterval,
		seen:     newSeenSet(),
	}, nil
}

// Run polls the input directory until the context is canceled, handing
// each new file event to fn. Errors from fn (or from a directory scan)
// are logged and do not stop the loop: the next poll cycle proceeds
// independently.
func (w *Watcher) Run(ctx context.Context, fn func(FileEvent) error) error {
	w.scan(fn)

	tck := time.NewTicker(w.interval)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tck.C:
			w.scan(fn)
		}
	}
}

// Scan performs a single poll cycle, dispatching every not-yet-seen
// CSV file to fn in directory-listing order. Each file is handled to
// completion before the next one is considered.
func (w *Watcher) Scan(fn func(FileEvent) error) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("could not list input directory %q: %w", w.dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Printf("could not stat %q: %+v", e.Name(), err)
			continue
		}

		id := FileIdentity{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if w.seen.seen(id) {
			continue
		}
		// The identity is recorded as consumed at detection time,
		// before validation: a file that later fails validation is
		// not retried until it is rewritten with a new identity.
		w.seen.markSeen(id)

		err = fn(FileEvent{Identity: id, Path: filepath.Join(w.dir, e.Name())})
		if err != nil {
			log.Printf("could not process %q: %+v", e.Name(), err)
		}
	}

	return nil
}

func (w *Watcher) scan(fn func(FileEvent) error) {
	err := w.Scan(fn)
	if err != nil {
		log.Printf("could not scan input directory: %+v", err)
	}
}
