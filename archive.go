// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech // import "sbinet.org/x/agrotech"

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SnapshotName is the fixed name of the JSON export holding the most
// recently completed batch. It is overwritten on every successful
// parse: only the latest batch is ever visible this way.
const SnapshotName = "lecturas.json"

// Archiver writes pipeline outputs to the output directory: a
// timestamped echo copy of every consumed input file, and the JSON
// snapshot of the last batch.
type Archiver struct {
	dir string
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{dir: dir}
}

// Echo writes a copy of the raw input bytes under a name derived from
// the source file plus a generation timestamp. It runs before parsing
// and is unconditional per detected file: an echo copy exists even for
// files that later fail validation.
func (a *Archiver) Echo(name string, raw []byte, now time.Time) (string, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	out := fmt.Sprintf("%s_%s.csv", stem, now.Format("20060102150405"))

	err := os.WriteFile(filepath.Join(a.dir, out), raw, 0644)
	if err != nil {
		return "", fmt.Errorf("could not write echo copy of %q: %w", name, err)
	}

	return out, nil
}

// Snapshot overwrites the fixed-name JSON export with the readings of
// the provided batch. An empty batch yields an empty JSON array.
func (a *Archiver) Snapshot(batch Batch) error {
	vs := batch.Readings
	if vs == nil {
		vs = []Reading{}
	}

	buf, err := json.Marshal(vs)
	if err != nil {
		return fmt.Errorf("could not marshal batch to JSON: %w", err)
	}

	err = os.WriteFile(filepath.Join(a.dir, SnapshotName), buf, 0644)
	if err != nil {
		return fmt.Errorf("could not write snapshot %q: %w", SnapshotName, err)
	}

	return nil
}
