// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"bytes"
	"fmt"

	"sbinet.org/x/agrotech"
)

type manager struct {
	id string

	last  agrotech.Reading
	plots struct {
		H, T bytes.Buffer
	}
}

func newManager(id string) *manager {
	return &manager{id: id}
}

func (mgr *manager) rows(db agrotech.DB) ([]agrotech.Reading, error) {
	rows, err := db.Readings(mgr.id)
	if err != nil {
		return nil, fmt.Errorf("could not read rows: %w", err)
	}
	return rows, nil
}
