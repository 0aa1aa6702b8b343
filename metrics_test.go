package reactor

import "testing"

func TestMetricsRecordCounters(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveOpened()
	o.ObserveRead(128)
	o.ObserveRead(64)
	o.ObserveWritten(96)
	o.ObserveFlush()
	o.ObserveThrown()
	o.ObserveClosed()

	snap := m.Snapshot()
	if snap.OpenedCount != 1 {
		t.Errorf("OpenedCount = %d, want 1", snap.OpenedCount)
	}
	if snap.ReadCount != 2 {
		t.Errorf("ReadCount = %d, want 2", snap.ReadCount)
	}
	if snap.ReadBytes != 192 {
		t.Errorf("ReadBytes = %d, want 192", snap.ReadBytes)
	}
	if snap.WrittenCount != 1 || snap.WrittenBytes != 96 {
		t.Errorf("WrittenCount/Bytes = %d/%d, want 1/96", snap.WrittenCount, snap.WrittenBytes)
	}
	if snap.FlushCount != 1 {
		t.Errorf("FlushCount = %d, want 1", snap.FlushCount)
	}
	if snap.ThrownCount != 1 {
		t.Errorf("ThrownCount = %d, want 1", snap.ThrownCount)
	}
	if snap.ClosedCount != 1 {
		t.Errorf("ClosedCount = %d, want 1", snap.ClosedCount)
	}
}

func TestMetricsSnapshotUptimeAdvancesWithoutStop(t *testing.T) {
	m := NewMetrics()
	first := m.Snapshot().UptimeNs
	second := m.Snapshot().UptimeNs
	if second < first {
		t.Errorf("expected uptime to be monotone non-decreasing, got %d then %d", first, second)
	}
}

func TestMetricsStopFixesUptime(t *testing.T) {
	m := NewMetrics()
	m.Stop()
	a := m.Snapshot().UptimeNs
	b := m.Snapshot().UptimeNs
	if a != b {
		t.Errorf("expected uptime to be fixed after Stop, got %d then %d", a, b)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)
	o.ObserveRead(100)
	o.ObserveWritten(50)

	m.Reset()
	snap := m.Snapshot()
	if snap.ReadCount != 0 || snap.ReadBytes != 0 || snap.WrittenCount != 0 || snap.WrittenBytes != 0 {
		t.Errorf("expected zeroed counters after Reset, got %+v", snap)
	}
}

func TestMetricsBandwidthNeverNegative(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	if snap.ReadBandwidth < 0 || snap.WriteBandwidth < 0 {
		t.Errorf("bandwidth should never be negative, got read=%f write=%f", snap.ReadBandwidth, snap.WriteBandwidth)
	}
}
