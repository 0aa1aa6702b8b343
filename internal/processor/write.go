package processor

import (
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/selector"
	"github.com/skiff-net/reactor/internal/state"
)

// drainFlushing pops up to spinBudget channels off the flushing queue and
// flushes each, so a burst of writers can't starve reads and closes in the
// same iteration.
func (p *Processor) drainFlushing(spinBudget int) {
	channels := p.flushingChannels.Drain(spinBudget)
	for _, ch := range channels {
		ch.ClearFlushScheduled()
		if ch.IsClosing() || ch.IsClosed() {
			continue
		}
		if p.writeMode == OneOff {
			p.flushOneOff(ch)
		} else {
			p.flushFair(ch)
		}
	}
}

// flushOneOff attempts only the current head buffer, once. If it only
// partially sends, WRITE interest is re-enabled and a flush is rescheduled;
// it never advances to the next buffer within the same call.
func (p *Processor) flushOneOff(ch *state.Channel) {
	buf := ch.PeekWrite()
	if buf == nil {
		return
	}

	p.observer.ObserveFlush()
	p.dispatch(interfaces.Event{Type: interfaces.EventFlush, Channel: ch, Payload: buf})

	n, err := p.writeOne(ch, buf)
	if err != nil {
		p.onThrown(ch, err, true)
		return
	}

	if n < len(buf) {
		ch.SetHeadBuffer(buf[n:])
		p.rearmWrite(ch)
		return
	}

	ch.PopWrite()
	ch.TouchIOTime(nowMillis())
	p.observer.ObserveWritten(n)
	p.dispatch(interfaces.Event{Type: interfaces.EventWritten, Channel: ch, Payload: buf})
}

// flushFair loops writing successive head buffers under the channel's
// max_write_chunk quota. Each inner iteration's quota is
// max_write_chunk - written-so-far: if the head buffer's length exceeds the
// remaining quota, only the quota-sized prefix is offered to the kernel.
// Four conditions yield — re-arming WRITE interest and rescheduling a
// flush, leaving the rest for the next iteration:
//   - the kernel accepted 0 bytes (socket send buffer saturated);
//   - the current buffer's remainder exceeded the quota (so only a prefix
//     was attempted, and that prefix cleared, but bytes remain queued);
//   - a short write left part of the offered prefix unsent;
//   - cumulative bytes reached max_write_chunk while the queue still holds data.
// Normal exit: the queue empties, at or before the cap.
func (p *Processor) flushFair(ch *state.Channel) {
	written := 0

	for written < ch.MaxWriteChunk {
		head := ch.PeekWrite()
		if head == nil {
			return // queue empty: normal exit
		}

		quota := ch.MaxWriteChunk - written
		offer := head
		capped := false
		if len(head) > quota {
			offer = head[:quota]
			capped = true
		}

		p.observer.ObserveFlush()
		p.dispatch(interfaces.Event{Type: interfaces.EventFlush, Channel: ch, Payload: offer})

		n, err := p.writeOne(ch, offer)
		if err != nil {
			p.onThrown(ch, err, true)
			return
		}

		if n == 0 {
			p.rearmWrite(ch)
			return
		}
		written += n

		if n < len(offer) {
			// Short write: the kernel took less than what we offered.
			ch.SetHeadBuffer(head[n:])
			p.rearmWrite(ch)
			return
		}

		if capped {
			// The quota-sized prefix fully sent, but the buffer has more.
			ch.SetHeadBuffer(head[n:])
			p.rearmWrite(ch)
			return
		}

		ch.PopWrite()
		ch.TouchIOTime(nowMillis())
		p.observer.ObserveWritten(n)
		p.dispatch(interfaces.Event{Type: interfaces.EventWritten, Channel: ch, Payload: head})
	}

	// The loop above exited because written reached MaxWriteChunk. If the
	// queue still has data, this is the fourth stop condition (cap reached,
	// more remains) and needs the same re-arm as the others; if the queue
	// just happened to empty out exactly at the cap, this is the normal
	// empty-queue exit and nothing more is needed.
	if !ch.WriteQueueEmpty() {
		p.rearmWrite(ch)
	}
}

func (p *Processor) writeOne(ch *state.Channel, buf []byte) (int, error) {
	if p.protocol == interfaces.UDP {
		return ch.Ops.WriteUDP(buf, ch.RemoteAddr)
	}
	return ch.Ops.WriteTCP(buf)
}

// rearmWrite flips WRITE interest on (edge-triggered discipline: only asked
// for when a prior write could not complete) and reschedules a flush so the
// remaining buffers are attempted on the next loop iteration.
func (p *Processor) rearmWrite(ch *state.Channel) {
	if ch.Registration != nil {
		p.sel.SetInterest(ch.Registration, ch.Registration.Interest|selector.Write)
	}
	p.scheduleFlush(ch)
}
