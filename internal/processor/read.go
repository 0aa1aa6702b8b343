package processor

import (
	"io"
	"net"

	"github.com/skiff-net/reactor/internal/constants"
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/state"
)

// doRead dispatches to the protocol-appropriate read strategy. The branch is
// taken once per call rather than per processor instance because Go has no
// cheaper way to bind a strategy at construction without an extra interface
// hop; the protocol itself is still fixed for the processor's lifetime.
func (p *Processor) doRead(ch *state.Channel) {
	if p.protocol == interfaces.UDP {
		p.readUDP(ch)
		return
	}
	p.readTCP(ch)
}

// readTCP loops issuing non-blocking reads until the kernel reports
// would-block, EOF, or the allocated buffer fills, accumulating bytes and
// feeding the total back to the predictor once per call that read any bytes.
func (p *Processor) readTCP(ch *state.Channel) {
	size := ch.Predictor.Next()
	buf := p.allocator.Get(size)
	defer p.allocator.Put(buf)

	total := 0
	eof := false

	for total < len(buf) {
		n, err := ch.Ops.ReadTCP(buf[total:])
		if err != nil {
			if err == io.EOF {
				eof = true
				break
			}
			p.onThrown(ch, err, true)
			return
		}
		if n == 0 {
			break
		}
		total += n
	}

	if total > 0 {
		ch.Predictor.Previous(total)
		ch.TouchIOTime(nowMillis())
		p.observer.ObserveRead(total)
		payload := make([]byte, total)
		copy(payload, buf[:total])
		p.dispatch(interfaces.Event{Type: interfaces.EventRead, Channel: ch, Payload: payload})
	}

	if eof {
		p.scheduleClose(ch)
	}
}

// readUDP issues a single non-blocking receive. The predictor is not
// consulted on the UDP path — datagrams are bounded by the link MTU, not by
// adaptive estimation.
func (p *Processor) readUDP(ch *state.Channel) {
	buf := p.allocator.Get(constants.DefaultDatagramBufferSize)
	defer p.allocator.Put(buf)

	n, from, err := ch.Ops.ReadUDP(buf)
	if err != nil {
		p.onThrown(ch, err, true)
		return
	}
	if n == 0 {
		return
	}

	p.recordUDPPeer(ch, from)

	ch.TouchIOTime(nowMillis())
	p.observer.ObserveRead(n)
	payload := make([]byte, n)
	copy(payload, buf[:n])
	p.dispatch(interfaces.Event{Type: interfaces.EventRead, Channel: ch, Payload: payload})
}

// recordUDPPeer fixes ch's remote address on its first datagram and indexes
// it in udpChannels by (local, remote), so later datagrams from the same
// peer resolve back to the same channel.
func (p *Processor) recordUDPPeer(ch *state.Channel, from net.Addr) {
	if ch.RemoteAddr != nil {
		return
	}
	ch.RemoteAddr = from
	key := udpKey(ch.LocalAddr, from)
	p.udpMu.Lock()
	p.udpChannels[key] = ch
	p.udpMu.Unlock()
}

func udpKey(local, remote net.Addr) string {
	l, r := "", ""
	if local != nil {
		l = local.String()
	}
	if remote != nil {
		r = remote.String()
	}
	return l + "|" + r
}

// LookupUDPChannel returns the channel previously associated with the
// (local, remote) tuple, if any.
func (p *Processor) LookupUDPChannel(local, remote net.Addr) (*state.Channel, bool) {
	p.udpMu.Lock()
	defer p.udpMu.Unlock()
	ch, ok := p.udpChannels[udpKey(local, remote)]
	return ch, ok
}
