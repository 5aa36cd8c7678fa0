package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchesCompleted atomic.Uint64
	fetchesFailed    atomic.Uint64
	staleDropped     atomic.Uint64
	opsSubmitted     atomic.Uint64
	opsFailed        atomic.Uint64
	busyRejections   atomic.Uint64

	// Settlement latency tracking
	settleSumNs atomic.Int64
	settleCount atomic.Uint64

	// Gauges
	busy atomic.Int32 // 1 = an operation is in flight
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records one completed read pass.
func (m *Metrics) RecordFetch() {
	m.fetchesCompleted.Add(1)
}

// RecordFetchFailure records an aborted read pass.
func (m *Metrics) RecordFetchFailure() {
	m.fetchesFailed.Add(1)
}

// RecordStaleDrop records a fetch result discarded by a newer publication.
func (m *Metrics) RecordStaleDrop() {
	m.staleDropped.Add(1)
}

// RecordSubmission records an accepted intent with its settlement latency.
func (m *Metrics) RecordSubmission(latencyNs int64) {
	m.opsSubmitted.Add(1)
	m.settleSumNs.Add(latencyNs)
	m.settleCount.Add(1)
}

// RecordOperationFailure records a terminal operation failure.
func (m *Metrics) RecordOperationFailure() {
	m.opsFailed.Add(1)
}

// RecordBusyRejection records an intent refused while another was in flight.
func (m *Metrics) RecordBusyRejection() {
	m.busyRejections.Add(1)
}

// SetBusy sets the in-flight gauge.
func (m *Metrics) SetBusy(busy bool) {
	if busy {
		m.busy.Store(1)
	} else {
		m.busy.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FetchesCompleted uint64
	FetchesFailed    uint64
	StaleDropped     uint64
	OpsSubmitted     uint64
	OpsFailed        uint64
	BusyRejections   uint64
	AvgSettleNs      int64
	Busy             bool
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgSettle int64
	count := m.settleCount.Load()
	if count > 0 {
		avgSettle = m.settleSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		FetchesCompleted: m.fetchesCompleted.Load(),
		FetchesFailed:    m.fetchesFailed.Load(),
		StaleDropped:     m.staleDropped.Load(),
		OpsSubmitted:     m.opsSubmitted.Load(),
		OpsFailed:        m.opsFailed.Load(),
		BusyRejections:   m.busyRejections.Load(),
		AvgSettleNs:      avgSettle,
		Busy:             m.busy.Load() == 1,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetchesCompleted.Store(0)
	m.fetchesFailed.Store(0)
	m.staleDropped.Store(0)
	m.opsSubmitted.Store(0)
	m.opsFailed.Store(0)
	m.busyRejections.Store(0)
	m.settleSumNs.Store(0)
	m.settleCount.Store(0)
	m.busy.Store(0)
}
