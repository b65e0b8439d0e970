// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"context"
	"log"
	"time"
)

// DemoSensor is the sensor id exercised by the periodic demo loop.
const DemoSensor = "S001"

// Scheduler periodically exercises the query service end-to-end for a
// fixed sensor id, logging the result. It has no backoff or retry
// limit: it runs until the context is canceled.
type Scheduler struct {
	query   *Query
	sensor  string
	metrics *Metrics

	delay  time.Duration
	period time.Duration
}

func NewScheduler(query *Query, sensor string, metrics *Metrics) *Scheduler {
	return &Scheduler{
		query:   query,
		sensor:  sensor,
		metrics: metrics,
		delay:   5 * time.Second,
		period:  5 * time.Second,
	}
}

// Run issues one query when the initial delay elapses, then one per
// period.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
	}

	s.tick()

	tck := time.NewTicker(s.period)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tck.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	log.Printf("requesting latest reading for sensor %q", s.sensor)
	res := s.query.LatestReading(s.sensor)
	s.metrics.observeQuery(res)
	log.Printf("response: %v", res)
}
