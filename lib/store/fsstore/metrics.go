package fsstore

import (
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// storeMetrics holds the metrics of one store instance. Every store owns its
// own set, so two stores in one process never share counters.
type storeMetrics struct {
	set *metrics.Set

	reads         *metrics.Counter
	missing       *metrics.Counter
	decodeEmpty   *metrics.Counter
	decodeCorrupt *metrics.Counter
	writes        *metrics.Counter
	deletes       *metrics.Counter
	batch         *metrics.Histogram

	inflight atomic.Int64
}

func newStoreMetrics() *storeMetrics {
	m := &storeMetrics{set: metrics.NewSet()}

	m.reads = m.set.NewCounter("recfs_reads_total")
	m.missing = m.set.NewCounter("recfs_reads_missing_total")
	m.decodeEmpty = m.set.NewCounter(`recfs_decode_errors_total{kind="empty"}`)
	m.decodeCorrupt = m.set.NewCounter(`recfs_decode_errors_total{kind="corrupt"}`)
	m.writes = m.set.NewCounter("recfs_writes_total")
	m.deletes = m.set.NewCounter("recfs_deletes_total")
	m.batch = m.set.NewHistogram("recfs_read_batch_duration_seconds")
	m.set.NewGauge("recfs_reads_inflight", func() float64 {
		return float64(m.inflight.Load())
	})
	return m
}
