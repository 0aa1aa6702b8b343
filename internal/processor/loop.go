package processor

import (
	"sync/atomic"
	"time"

	"github.com/skiff-net/reactor/internal/constants"
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/selector"
	"github.com/skiff-net/reactor/internal/state"
)

// run is the worker goroutine body. It loops poll -> flush -> register ->
// ready-set dispatch -> close until shutdown is observed, then tears down.
func (p *Processor) run() {
	for !p.isShutdown() {
		p.iterate()
	}
	p.teardown()
}

func (p *Processor) iterate() {
	start := time.Now()
	events, err := p.sel.Wait(int(constants.SelectTimeout / time.Millisecond))
	elapsed := time.Since(start)

	woken := atomic.SwapInt32(&p.wakeCalled, 0) != 0

	if err != nil {
		p.logf("selector wait failed: %v", err)
	} else if len(events) == 0 && !woken && elapsed < constants.SpuriousWakeupThreshold {
		p.suspectSpuriousWakeup()
	}

	// Writes are attempted before fresh registrations are installed.
	// drainFlushing does not check registration: a channel whose flush and
	// registration are both pending is written to here, before it is
	// registered, and WRITE interest cannot be armed for it until a later
	// flush runs after registration.
	p.drainFlushing(constants.FlushSpinCount)
	p.drainRegistrations()

	if len(events) > 0 {
		for _, ev := range events {
			p.handleReady(ev)
		}
	}

	p.drainClosing()
}

// drainRegistrations pops every channel off the new queue, registers it for
// READ readiness, fires CHANNEL_OPENED, and adds it to the idle timer.
func (p *Processor) drainRegistrations() {
	channels := p.newChannels.Drain(0)
	for _, ch := range channels {
		key, err := p.sel.Register(ch.Ops.FD(), selector.Read, ch)
		if err != nil {
			p.dispatchThrown(ch, err)
			continue
		}
		ch.Registration = key
		ch.SetLifecycle(state.StateOpen)
		ch.TouchIOTime(nowMillis())

		p.regMu.Lock()
		p.registered[ch.ID()] = ch
		p.regMu.Unlock()

		if p.idleTimer != nil {
			p.idleTimer.Add(ch)
		}

		p.observer.ObserveOpened()
		p.dispatch(interfaces.Event{Type: interfaces.EventOpened, Channel: ch})
	}
}

// handleReady dispatches one selector event: reads fire before closes are
// considered, so an end-of-stream read can schedule a close that this same
// iteration's close phase will drain.
func (p *Processor) handleReady(ev selector.Event) {
	ch, ok := ev.Key.Attachment.(*state.Channel)
	if !ok || ch == nil {
		return
	}
	if ch.IsClosed() {
		return
	}

	if ev.Ready.Has(selector.Read) {
		p.doRead(ch)
	}
	if ev.Ready.Has(selector.Write) {
		// Edge-triggered discipline: WRITE was only armed because a prior
		// write couldn't finish; drop back to READ-only before attempting
		// the flush, which re-arms WRITE itself if more is left unsent.
		if ch.Registration != nil {
			p.sel.SetInterest(ch.Registration, selector.Read)
		}
		if ch.IsClosing() || ch.IsClosed() {
			return
		}
		if p.writeMode == OneOff {
			p.flushOneOff(ch)
		} else {
			p.flushFair(ch)
		}
	}
}

// onThrown logs and dispatches CHANNEL_THROWN for an I/O error encountered
// during read or write. ioFailure additionally schedules a close, guarding
// against infinite readiness storms on a broken socket.
func (p *Processor) onThrown(ch *state.Channel, err error, ioFailure bool) {
	p.logf("channel %d: %v", ch.ID(), err)
	p.dispatchThrown(ch, err)
	if ioFailure {
		p.scheduleClose(ch)
	}
}

func (p *Processor) dispatch(ev interfaces.Event) {
	if p.dispatcher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logf("dispatcher panic recovered: %v", r)
		}
	}()
	p.dispatcher.Dispatch(ev)
}

// suspectSpuriousWakeup implements the JDK-epoll-bug workaround: first scan
// for and cancel registrations whose channel is no longer connected: if none
// are found, rebuild the selector outright.
func (p *Processor) suspectSpuriousWakeup() {
	if p.cancelBrokenKeys() {
		return
	}
	p.rebuildSelector()
}

// cancelBrokenKeys scans all registered keys and cancels any whose channel
// has gone invalid at the OS level. Returns true if at least one was found,
// which is treated as sufficient remediation without a full rebuild.
func (p *Processor) cancelBrokenKeys() bool {
	found := false
	for _, key := range p.sel.Keys() {
		ch, ok := key.Attachment.(*state.Channel)
		if !ok || ch == nil {
			continue
		}
		if !ch.Ops.IsValid() {
			p.sel.Cancel(key)
			found = true
		}
	}
	return found
}

// rebuildSelector opens a fresh selector of whatever implementation is
// currently installed (never the package's platform default — a Selector
// injected via Config.Selector, e.g. a test fake, must stay installed across
// a rebuild), re-registers every known key with its current interest set and
// attachment, then swaps the old one out.
func (p *Processor) rebuildSelector() {
	fresh, err := p.sel.Clone()
	if err != nil {
		p.logf("selector rebuild failed: %v", err)
		return
	}

	for _, key := range p.sel.Keys() {
		ch, ok := key.Attachment.(*state.Channel)
		if !ok || ch == nil {
			continue
		}
		newKey, err := fresh.Register(key.FD, key.Interest, ch)
		if err != nil {
			p.dispatchThrown(ch, err)
			continue
		}
		ch.Registration = newKey
	}

	old := p.sel
	p.sel = fresh
	old.Close()
	p.logf("selector rebuilt after suspected spurious wakeup")
}

// teardown runs once shutdown is observed: every still-live channel (new,
// flushing, or already registered) is moved to closing and drained, so each
// channel ever opened receives exactly one CHANNEL_CLOSED.
func (p *Processor) teardown() {
	for _, ch := range p.newChannels.Drain(0) {
		p.scheduleClose(ch)
	}
	for _, ch := range p.flushingChannels.Drain(0) {
		ch.ClearFlushScheduled()
		p.scheduleClose(ch)
	}

	p.regMu.Lock()
	remaining := make([]*state.Channel, 0, len(p.registered))
	for _, ch := range p.registered {
		remaining = append(remaining, ch)
	}
	p.regMu.Unlock()
	for _, ch := range remaining {
		p.scheduleClose(ch)
	}

	p.drainClosing()
	p.sel.Close()
}
