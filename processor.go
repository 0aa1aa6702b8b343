package reactor

import (
	"errors"
	"net"
	"time"

	"github.com/skiff-net/reactor/internal/executor"
	"github.com/skiff-net/reactor/internal/idletimer"
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/processor"
	"github.com/skiff-net/reactor/internal/state"
)

// Protocol selects the read/write strategy a Processor uses for every
// channel it owns, fixed once at construction.
type Protocol = interfaces.Protocol

const (
	TCP = interfaces.TCP
	UDP = interfaces.UDP
)

// WriteMode selects the flush strategy: Fair loops writing successive
// queued buffers under a per-channel quota so one busy writer can't starve
// the rest; OneOff attempts only the current head buffer per flush.
type WriteMode = processor.WriteMode

const (
	Fair   = processor.Fair
	OneOff = processor.OneOff
)

// Stats is a point-in-time snapshot of the processor's submission queues.
type Stats = processor.Stats

// Channel is a handle a submitter holds for a single registered connection:
// construct one with NewChannel, then pass it to Processor.Add.
type Channel = state.Channel

// NewChannel wraps ops as a Channel ready for submission to a Processor.
// maxWriteChunk of 0 falls back to the fair-mode default quota.
func NewChannel(ops interfaces.ChannelOps, local net.Addr, maxWriteChunk int) *Channel {
	return state.New(ops, local, maxWriteChunk)
}

// Config configures a Processor. Dispatcher is required; every other field
// has a usable default supplied by NewProcessor.
type Config struct {
	Protocol   Protocol
	Dispatcher interfaces.Dispatcher
	WriteMode  WriteMode

	// IdleTimeout, if positive, starts a default IdleTimer that schedules a
	// channel's close once it has gone at least this long without I/O activity.
	// ScanInterval defaults to IdleTimeout/4 when left zero.
	IdleTimeout  int64 // milliseconds, 0 disables idle tracking
	ScanInterval int64 // milliseconds

	Executor interfaces.Executor
	Logger   interfaces.Logger
	Observer interfaces.Observer
}

// Processor is the reactor's public handle: a single-selector event loop
// multiplexing many TCP or UDP channels, started lazily on the first Add.
type Processor struct {
	inner *processor.Processor
	idle  *idletimer.Timer
}

// NewProcessor constructs a Processor from cfg. Panics only if the
// underlying OS selector cannot be constructed at all (see
// internal/processor.New) — every other configuration gap is defaulted.
func NewProcessor(cfg Config) *Processor {
	exec := cfg.Executor
	if exec == nil {
		exec = executor.New()
	}

	p := &Processor{}

	var idle interfaces.IdleTimer
	if cfg.IdleTimeout > 0 {
		scan := cfg.ScanInterval
		if scan <= 0 {
			scan = cfg.IdleTimeout / 4
			if scan <= 0 {
				scan = 1
			}
		}
		p.idle = idletimer.New(
			time.Duration(cfg.IdleTimeout)*time.Millisecond,
			time.Duration(scan)*time.Millisecond,
			func(ch interfaces.ChannelHandle) {
				if sc, ok := ch.(*state.Channel); ok {
					// The timer only knows when sc was last added; re-arm it
					// instead of closing if sc has seen I/O since then.
					if time.Now().UnixMilli()-sc.LastIOTime() < cfg.IdleTimeout {
						p.idle.Add(sc)
						return
					}
					p.Remove(sc)
				}
			},
		)
		idle = p.idle
	}

	p.inner = processor.New(processor.Config{
		Protocol:   cfg.Protocol,
		Dispatcher: cfg.Dispatcher,
		IdleTimer:  idle,
		Executor:   exec,
		Logger:     cfg.Logger,
		Observer:   cfg.Observer,
		WriteMode:  cfg.WriteMode,
	})
	return p
}

// Add submits ch for registration with the selector. Returns ErrShutdown
// once the processor has begun shutting down.
func (p *Processor) Add(ch *Channel) error {
	return translateErr("Add", ch, p.inner.Add(ch))
}

// Flush submits ch for a write drain of its queued buffers.
func (p *Processor) Flush(ch *Channel) error {
	return translateErr("Flush", ch, p.inner.Flush(ch))
}

// Remove schedules ch for close. Idempotent.
func (p *Processor) Remove(ch *Channel) error {
	return translateErr("Remove", ch, p.inner.Remove(ch))
}

// Shutdown begins an orderly teardown: every channel ever registered
// receives exactly one CHANNEL_CLOSED event before the worker exits.
func (p *Processor) Shutdown() error {
	if p.idle != nil {
		p.idle.Stop()
	}
	return translateErr("Shutdown", nil, p.inner.Shutdown())
}

// Stats returns a point-in-time snapshot of queue depths.
func (p *Processor) Stats() Stats {
	return p.inner.Stats()
}

// LookupUDPChannel returns the channel previously associated with the
// (local, remote) address pair, if any. Only meaningful for UDP processors.
func (p *Processor) LookupUDPChannel(local, remote net.Addr) (*Channel, bool) {
	return p.inner.LookupUDPChannel(local, remote)
}

func translateErr(op string, ch *Channel, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, processor.ErrShutdown) {
		id := uint64(0)
		if ch != nil {
			id = ch.ID()
		}
		return NewChannelError(op, id, ErrCodeIllegalState, "processor is shutting down")
	}
	return WrapError(op, 0, err)
}
