package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	requestsTotal    atomic.Uint64
	requestRetries   atomic.Uint64
	throttleWaits    atomic.Uint64
	ticksIngested    atomic.Uint64
	ticksDropped     atomic.Uint64
	batchesFlushed   atomic.Uint64
	recordsDerived   atomic.Uint64
	upstreamFailures atomic.Uint64

	// Gauges
	streamConnected atomic.Int32 // 1 = connected, 0 = not
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRequest records one completed outbound HTTP request.
func (m *Metrics) RecordRequest() {
	m.requestsTotal.Add(1)
}

// RecordRequestRetry records a retry attempt at the transport layer.
func (m *Metrics) RecordRequestRetry() {
	m.requestRetries.Add(1)
}

// RecordThrottleWait records a dispatcher stall at the window quota.
func (m *Metrics) RecordThrottleWait() {
	m.throttleWaits.Add(1)
}

// RecordTickIngested records a tick accepted into the flush buffer.
func (m *Metrics) RecordTickIngested() {
	m.ticksIngested.Add(1)
}

// RecordTickDropped records a tick discarded without buffering.
func (m *Metrics) RecordTickDropped() {
	m.ticksDropped.Add(1)
}

// RecordBatchFlushed records one delivered record batch of the given size.
func (m *Metrics) RecordBatchFlushed(records int) {
	m.batchesFlushed.Add(1)
	m.recordsDerived.Add(uint64(records))
}

// RecordUpstreamFailure records an aggregate fetch degraded to an empty view.
func (m *Metrics) RecordUpstreamFailure() {
	m.upstreamFailures.Add(1)
}

// SetStreamConnected sets the stream connection gauge.
func (m *Metrics) SetStreamConnected(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RequestsTotal    uint64
	RequestRetries   uint64
	ThrottleWaits    uint64
	TicksIngested    uint64
	TicksDropped     uint64
	BatchesFlushed   uint64
	RecordsDerived   uint64
	UpstreamFailures uint64
	StreamConnected  bool
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:    m.requestsTotal.Load(),
		RequestRetries:   m.requestRetries.Load(),
		ThrottleWaits:    m.throttleWaits.Load(),
		TicksIngested:    m.ticksIngested.Load(),
		TicksDropped:     m.ticksDropped.Load(),
		BatchesFlushed:   m.batchesFlushed.Load(),
		RecordsDerived:   m.recordsDerived.Load(),
		UpstreamFailures: m.upstreamFailures.Load(),
		StreamConnected:  m.streamConnected.Load() == 1,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.requestsTotal.Store(0)
	m.requestRetries.Store(0)
	m.throttleWaits.Store(0)
	m.ticksIngested.Store(0)
	m.ticksDropped.Store(0)
	m.batchesFlushed.Store(0)
	m.recordsDerived.Store(0)
	m.upstreamFailures.Store(0)
	m.streamConnected.Store(0)
}
