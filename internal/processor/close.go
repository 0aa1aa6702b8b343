package processor

import (
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/state"
)

// drainClosing pops every channel currently scheduled for close and tears
// each one down: removed from the idle timer, cancelled from the selector,
// closed at the OS level, and (for UDP) removed from the address map.
func (p *Processor) drainClosing() {
	channels := p.closingChannels.Drain(0)
	for _, ch := range channels {
		p.closeOne(ch)
	}
}

func (p *Processor) closeOne(ch *state.Channel) {
	if p.idleTimer != nil {
		p.idleTimer.Remove(ch)
	}

	if ch.IsClosed() {
		return
	}

	ch.SetLifecycle(state.StateClosing)

	if ch.Registration != nil {
		if err := p.sel.Cancel(ch.Registration); err != nil {
			p.dispatchThrown(ch, err)
		}
	}

	if err := ch.Ops.Close(); err != nil {
		p.dispatchThrown(ch, err)
	}

	if p.protocol == interfaces.UDP && ch.RemoteAddr != nil {
		key := udpKey(ch.LocalAddr, ch.RemoteAddr)
		p.udpMu.Lock()
		delete(p.udpChannels, key)
		p.udpMu.Unlock()
	}

	ch.SetLifecycle(state.StateClosed)

	p.regMu.Lock()
	delete(p.registered, ch.ID())
	p.regMu.Unlock()

	p.observer.ObserveClosed()
	p.dispatch(interfaces.Event{Type: interfaces.EventClosed, Channel: ch})
}

// dispatchThrown emits CHANNEL_THROWN for an error encountered during close,
// without aborting the rest of the drain.
func (p *Processor) dispatchThrown(ch *state.Channel, err error) {
	p.observer.ObserveThrown()
	p.dispatch(interfaces.Event{Type: interfaces.EventThrown, Channel: ch, Err: err})
}
