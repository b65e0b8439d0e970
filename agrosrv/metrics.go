// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instrumentation of the pipeline and the
// query surface.
type Metrics struct {
	filesDetected prometheus.Counter
	filesFailed   prometheus.Counter
	rowsInserted  prometheus.Counter
	snapshots     prometheus.Counter
	queries       *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics with the
// provided registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		filesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrotech_files_detected_total",
			Help: "Total count of input files detected by the watcher.",
		}),
		filesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrotech_files_failed_total",
			Help: "Total count of input files whose processing aborted.",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrotech_rows_inserted_total",
			Help: "Total count of readings inserted into the store.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrotech_snapshots_written_total",
			Help: "Total count of JSON snapshot writes.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrotech_queries_total",
			Help: "Total count of latest-reading queries by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.filesDetected,
		m.filesFailed,
		m.rowsInserted,
		m.snapshots,
		m.queries,
	)

	return m
}

func (m *Metrics) observeQuery(res Result) {
	result := "found"
	if !res.Found {
		result = "not_found"
	}
	m.queries.WithLabelValues(result).Inc()
}
