// Package idletimer provides a membership-based idle-timeout tracker: it
// holds channel identity only, for timing, and must never extend a
// channel's lifetime by itself.
package idletimer

import (
	"sync"
	"time"

	"github.com/skiff-net/reactor/internal/interfaces"
)

// OnTimeout is invoked once a tracked channel has gone silent for longer
// than the configured idle duration. It runs on the timer's own goroutine,
// not the processor's worker goroutine — callers that need worker-thread
// semantics should route through their own Dispatcher/Executor.
type OnTimeout func(ch interfaces.ChannelHandle)

// Timer scans its membership set on a fixed cadence and fires OnTimeout for
// any channel whose last-touch time has expired.
type Timer struct {
	idle    time.Duration
	onTimeo OnTimeout

	mu      sync.Mutex
	members map[uint64]entry

	stop chan struct{}
	once sync.Once
}

type entry struct {
	ch       interfaces.ChannelHandle
	lastSeen time.Time
}

// New starts a Timer that scans every scanInterval and expires members idle
// longer than idle. It runs in the background until Stop is called.
func New(idle, scanInterval time.Duration, onTimeout OnTimeout) *Timer {
	t := &Timer{
		idle:    idle,
		onTimeo: onTimeout,
		members: make(map[uint64]entry),
		stop:    make(chan struct{}),
	}
	go t.run(scanInterval)
	return t
}

// Add registers ch for idle tracking, or resets its last-seen time if
// already tracked.
func (t *Timer) Add(ch interfaces.ChannelHandle) {
	t.mu.Lock()
	t.members[ch.ID()] = entry{ch: ch, lastSeen: time.Now()}
	t.mu.Unlock()
}

// Remove stops tracking ch. Idempotent.
func (t *Timer) Remove(ch interfaces.ChannelHandle) {
	t.mu.Lock()
	delete(t.members, ch.ID())
	t.mu.Unlock()
}

// Touch refreshes a tracked channel's last-seen time without changing
// membership, for callers that see per-channel activity outside Add/Remove.
func (t *Timer) Touch(ch interfaces.ChannelHandle) {
	t.mu.Lock()
	if e, ok := t.members[ch.ID()]; ok {
		e.lastSeen = time.Now()
		t.members[ch.ID()] = e
	}
	t.mu.Unlock()
}

// Stop halts the background scan. Safe to call multiple times.
func (t *Timer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Timer) run(scanInterval time.Duration) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			t.scan(now)
		}
	}
}

func (t *Timer) scan(now time.Time) {
	var expired []interfaces.ChannelHandle

	t.mu.Lock()
	for id, e := range t.members {
		if now.Sub(e.lastSeen) >= t.idle {
			expired = append(expired, e.ch)
			delete(t.members, id)
		}
	}
	t.mu.Unlock()

	for _, ch := range expired {
		t.onTimeo(ch)
	}
}

var _ interfaces.IdleTimer = (*Timer)(nil)
