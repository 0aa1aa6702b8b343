package idletimer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skiff-net/reactor/internal/interfaces"
)

type fakeHandle uint64

func (f fakeHandle) ID() uint64 { return uint64(f) }

func TestAddRemoveMembership(t *testing.T) {
	timer := New(time.Hour, time.Hour, func(ch interfaces.ChannelHandle) {})
	defer timer.Stop()

	timer.Add(fakeHandle(1))
	timer.mu.Lock()
	_, ok := timer.members[1]
	timer.mu.Unlock()
	if !ok {
		t.Fatal("expected channel 1 to be tracked after Add")
	}

	timer.Remove(fakeHandle(1))
	timer.mu.Lock()
	_, ok = timer.members[1]
	timer.mu.Unlock()
	if ok {
		t.Fatal("expected channel 1 to be untracked after Remove")
	}
}

func TestFiresOnTimeoutAfterIdleDuration(t *testing.T) {
	var fired int32
	var wg sync.WaitGroup
	wg.Add(1)

	timer := New(20*time.Millisecond, 5*time.Millisecond, func(ch interfaces.ChannelHandle) {
		atomic.StoreInt32(&fired, 1)
		wg.Done()
	})
	defer timer.Stop()

	timer.Add(fakeHandle(7))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected OnTimeout to fire for an idle channel")
	}

	if atomic.LoadInt32(&fired) != 1 {
		t.Error("expected fired flag to be set")
	}
}

func TestTouchResetsIdleClock(t *testing.T) {
	var fireCount int32
	timer := New(30*time.Millisecond, 5*time.Millisecond, func(ch interfaces.ChannelHandle) {
		atomic.AddInt32(&fireCount, 1)
	})
	defer timer.Stop()

	timer.Add(fakeHandle(3))

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		timer.Touch(fakeHandle(3))
		time.Sleep(10 * time.Millisecond)
	}

	if atomic.LoadInt32(&fireCount) != 0 {
		t.Error("expected repeated Touch to prevent expiry")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	timer := New(time.Hour, time.Hour, func(ch interfaces.ChannelHandle) {})
	defer timer.Stop()

	timer.Remove(fakeHandle(42)) // never added; must not panic
	timer.Remove(fakeHandle(42)) // second removal; must not panic
}
