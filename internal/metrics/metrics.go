// Package metrics holds Prometheus collectors and the HTTP middleware.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RecordSavesTotal counts durable record writes.
	RecordSavesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "elephant",
		Name:      "record_saves_total",
		Help:      "Total number of records written to the blob store",
	})

	// IndexWriteFailuresTotal counts index writes that failed after a
	// successful durable write. Each one is a record that stays
	// unsearchable until the next seed.
	IndexWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "elephant",
		Name:      "index_write_failures_total",
		Help:      "Index writes that failed after the blob store write succeeded",
	})

	// RecordDeletesTotal counts record deletions.
	RecordDeletesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "elephant",
		Name:      "record_deletes_total",
		Help:      "Total number of records deleted",
	})
)

var registerOnce sync.Once

// RegisterStoreMetrics registers the record store collectors. Safe to
// call more than once.
func RegisterStoreMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RecordSavesTotal)
		prometheus.MustRegister(IndexWriteFailuresTotal)
		prometheus.MustRegister(RecordDeletesTotal)
	})
}
