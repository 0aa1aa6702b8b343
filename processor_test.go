package reactor

import (
	"testing"
	"time"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestProcessorAddReadRemoveEndToEnd(t *testing.T) {
	disp := NewMockDispatcher()
	p := NewProcessor(Config{
		Protocol:   TCP,
		Dispatcher: disp,
	})

	ops := NewMockChannelOps(1, nil)
	ops.QueueRead([]byte("ping"))

	ch := NewChannel(ops, nil, 0)
	if err := p.Add(ch); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !waitUntil(t, time.Second, func() bool { return disp.CountOf(EventOpened) == 1 }) {
		t.Fatalf("expected CHANNEL_OPENED, got events: %+v", disp.Events())
	}

	if err := p.Remove(ch); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !waitUntil(t, time.Second, func() bool { return ch.IsClosed() }) {
		t.Fatalf("expected channel to reach CLOSED after Remove")
	}

	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestProcessorAddAfterShutdownReturnsIllegalState(t *testing.T) {
	disp := NewMockDispatcher()
	p := NewProcessor(Config{Protocol: TCP, Dispatcher: disp})

	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	ch := NewChannel(NewMockChannelOps(2, nil), nil, 0)
	err := p.Add(ch)
	if err == nil {
		t.Fatal("expected an error after shutdown")
	}
	if !IsCode(err, ErrCodeIllegalState) {
		t.Fatalf("expected ErrCodeIllegalState, got %v", err)
	}
}

func TestProcessorWriteFlowDeliversWrittenBytes(t *testing.T) {
	disp := NewMockDispatcher()
	p := NewProcessor(Config{Protocol: TCP, Dispatcher: disp})

	ops := NewMockChannelOps(3, nil)
	ch := NewChannel(ops, nil, 0)
	if err := p.Add(ch); err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return disp.CountOf(EventOpened) == 1 })

	ch.EnqueueWrite([]byte("pong"))
	if err := p.Flush(ch); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if !waitUntil(t, time.Second, func() bool { return string(ops.Written()) == "pong" }) {
		t.Fatalf("expected \"pong\" written, got %q", ops.Written())
	}

	p.Shutdown()
}

func TestProcessorStatsAfterAddDrainsToZero(t *testing.T) {
	disp := NewMockDispatcher()
	p := NewProcessor(Config{Protocol: TCP, Dispatcher: disp})

	ch := NewChannel(NewMockChannelOps(4, nil), nil, 0)
	p.Add(ch)

	if !waitUntil(t, time.Second, func() bool { return p.Stats().NewCount == 0 }) {
		t.Fatalf("expected new-channel queue to drain, got %+v", p.Stats())
	}
	p.Shutdown()
}
