package reactor

import (
	"sync/atomic"
	"time"

	"github.com/skiff-net/reactor/internal/interfaces"
)

// Metrics tracks process-wide counters across every channel a Processor
// owns. All fields are safe for concurrent use from the worker goroutine.
type Metrics struct {
	OpenedCount  atomic.Uint64
	ReadCount    atomic.Uint64
	WrittenCount atomic.Uint64
	FlushCount   atomic.Uint64
	ThrownCount  atomic.Uint64
	ClosedCount  atomic.Uint64

	ReadBytes    atomic.Uint64
	WrittenBytes atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a fresh Metrics instance stamped with the current time.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordOpened()          { m.OpenedCount.Add(1) }
func (m *Metrics) recordRead(bytes int)   { m.ReadCount.Add(1); m.ReadBytes.Add(uint64(bytes)) }
func (m *Metrics) recordWritten(bytes int) {
	m.WrittenCount.Add(1)
	m.WrittenBytes.Add(uint64(bytes))
}
func (m *Metrics) recordFlush()  { m.FlushCount.Add(1) }
func (m *Metrics) recordThrown() { m.ThrownCount.Add(1) }
func (m *Metrics) recordClosed() { m.ClosedCount.Add(1) }

// Stop marks the measurement window as closed, fixing Snapshot's uptime.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time read of Metrics, with rates derived
// from the elapsed window.
type MetricsSnapshot struct {
	OpenedCount  uint64
	ReadCount    uint64
	WrittenCount uint64
	FlushCount   uint64
	ThrownCount  uint64
	ClosedCount  uint64

	ReadBytes    uint64
	WrittenBytes uint64

	UptimeNs       uint64
	ReadBandwidth  float64 // bytes/sec
	WriteBandwidth float64 // bytes/sec
}

// Snapshot computes a MetricsSnapshot from the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		OpenedCount:  m.OpenedCount.Load(),
		ReadCount:    m.ReadCount.Load(),
		WrittenCount: m.WrittenCount.Load(),
		FlushCount:   m.FlushCount.Load(),
		ThrownCount:  m.ThrownCount.Load(),
		ClosedCount:  m.ClosedCount.Load(),
		ReadBytes:    m.ReadBytes.Load(),
		WrittenBytes: m.WrittenBytes.Load(),
	}

	start := m.StartTime.Load()
	stop := m.StopTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	if snap.UptimeNs > 0 {
		seconds := float64(snap.UptimeNs) / 1e9
		snap.ReadBandwidth = float64(snap.ReadBytes) / seconds
		snap.WriteBandwidth = float64(snap.WrittenBytes) / seconds
	}
	return snap
}

// Reset zeroes every counter and restarts the measurement window. Intended
// for tests that want a clean Metrics between scenarios.
func (m *Metrics) Reset() {
	m.OpenedCount.Store(0)
	m.ReadCount.Store(0)
	m.WrittenCount.Store(0)
	m.FlushCount.Store(0)
	m.ThrownCount.Store(0)
	m.ClosedCount.Store(0)
	m.ReadBytes.Store(0)
	m.WrittenBytes.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver adapts a Metrics instance to interfaces.Observer, so a
// Processor can be wired to record into it without knowing about Metrics
// itself.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveOpened()          { o.metrics.recordOpened() }
func (o *MetricsObserver) ObserveRead(bytes int)    { o.metrics.recordRead(bytes) }
func (o *MetricsObserver) ObserveWritten(bytes int) { o.metrics.recordWritten(bytes) }
func (o *MetricsObserver) ObserveFlush()            { o.metrics.recordFlush() }
func (o *MetricsObserver) ObserveThrown()           { o.metrics.recordThrown() }
func (o *MetricsObserver) ObserveClosed()           { o.metrics.recordClosed() }

var _ interfaces.Observer = (*MetricsObserver)(nil)
