// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"sbinet.org/x/agrotech"
)

// countingDB records how many latest-reading queries reached the
// store.
type countingDB struct {
	n atomic.Int64
}

func (db *countingDB) Insert(agrotech.Reading) error { return nil }
func (db *countingDB) Latest(string) (agrotech.Reading, error) {
	db.n.Add(1)
	return agrotech.Reading{}, agrotech.ErrNoData
}
func (db *countingDB) Readings(string) ([]agrotech.Reading, error) { return nil, nil }
func (db *countingDB) Sensors() ([]string, error)                  { return nil, nil }
func (db *countingDB) Close() error                                { return nil }

func TestSchedulerFirstQueryAfterDelay(t *testing.T) {
	var (
		db      = new(countingDB)
		metrics = NewMetrics(prometheus.NewRegistry())
	)
	sched := &Scheduler{
		query:   NewQuery(db),
		sensor:  DemoSensor,
		metrics: metrics,
		delay:   10 * time.Millisecond,
		period:  time.Hour,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := sched.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The first query fires when the initial delay elapses, not one
	// full period later.
	require.EqualValues(t, 1, db.n.Load())

	// Scheduler queries are counted like API ones.
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.queries.WithLabelValues("not_found")))
}
