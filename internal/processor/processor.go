// Package processor implements the reactor's single-threaded event loop: one
// worker goroutine owns a selector, three mutex-guarded submission queues, and
// drives every registered channel's read, write, and close lifecycle.
package processor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/skiff-net/reactor/internal/alloc"
	"github.com/skiff-net/reactor/internal/constants"
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/mpsc"
	"github.com/skiff-net/reactor/internal/selector"
	"github.com/skiff-net/reactor/internal/state"
)

const (
	shutdownUnset = 0
	shutdownSet   = 1

	workerNotStarted = 0
	workerStarted    = 1
)

// Config configures a Processor at construction. Protocol is fixed for the
// processor's lifetime — it is a construction-time strategy choice, not a
// runtime branch (see SPEC_FULL.md's design note on dynamic dispatch).
type Config struct {
	Protocol   interfaces.Protocol
	Dispatcher interfaces.Dispatcher
	IdleTimer  interfaces.IdleTimer // optional
	Executor   interfaces.Executor
	Logger     interfaces.Logger // optional
	Observer   interfaces.Observer

	// WriteMode chooses the flush strategy (see write.go). Defaults to Fair.
	WriteMode WriteMode

	Selector selector.Selector // optional; defaults to selector.New()
}

// WriteMode selects between the two flush strategies the spec describes.
type WriteMode int

const (
	// Fair loops writing successive head buffers under the channel's
	// max_write_chunk quota, so one busy writer can't starve the rest.
	Fair WriteMode = iota
	// OneOff attempts only the head buffer per flush invocation.
	OneOff
)

// Stats is the statistics snapshot exposed to callers.
type Stats struct {
	NewCount      int
	FlushingCount int
	ClosingCount  int
}

// Processor is the reactor's event loop. All exported methods are safe for
// concurrent use by any number of submitter goroutines; only the worker
// goroutine started by the first Add call touches selector/channel internals
// directly.
type Processor struct {
	sel        selector.Selector
	dispatcher interfaces.Dispatcher
	idleTimer  interfaces.IdleTimer
	executor   interfaces.Executor
	logger     interfaces.Logger
	observer   interfaces.Observer
	allocator  *alloc.Allocator
	protocol   interfaces.Protocol
	writeMode  WriteMode

	newChannels      *mpsc.Queue[*state.Channel]
	flushingChannels *mpsc.Queue[*state.Channel]
	closingChannels  *mpsc.Queue[*state.Channel]

	udpMu       sync.Mutex
	udpChannels map[string]*state.Channel

	wakeCalled    int32
	shutdown      int32
	workerStarted int32

	// registered tracks every channel the worker has registered, so
	// Shutdown can guarantee exactly one CHANNEL_CLOSED per ever-opened
	// channel even if it was never otherwise scheduled for close.
	regMu      sync.Mutex
	registered map[uint64]*state.Channel
}

// New constructs a Processor. The worker goroutine is not started until the
// first Add call (the single-shot lazy-start rule).
func New(cfg Config) *Processor {
	sel := cfg.Selector
	var err error
	if sel == nil {
		sel, err = selector.New()
		if err != nil {
			// A nil selector would make every subsequent operation crash
			// opaquely; failing fast here surfaces the real cause instead.
			panic("processor: failed to construct default selector: " + err.Error())
		}
	}

	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Processor{
		sel:              sel,
		dispatcher:       cfg.Dispatcher,
		idleTimer:        cfg.IdleTimer,
		executor:         cfg.Executor,
		logger:           cfg.Logger,
		observer:         observer,
		allocator:        alloc.New(),
		protocol:         cfg.Protocol,
		writeMode:        cfg.WriteMode,
		newChannels:      mpsc.New[*state.Channel](),
		flushingChannels: mpsc.New[*state.Channel](),
		closingChannels:  mpsc.New[*state.Channel](),
		udpChannels:      make(map[string]*state.Channel),
		registered:       make(map[uint64]*state.Channel),
	}
}

func (p *Processor) isShutdown() bool {
	return atomic.LoadInt32(&p.shutdown) == shutdownSet
}

func (p *Processor) wake() {
	atomic.StoreInt32(&p.wakeCalled, 1)
	p.sel.Wake()
}

func (p *Processor) startWorkerOnce() {
	if atomic.CompareAndSwapInt32(&p.workerStarted, workerNotStarted, workerStarted) {
		p.executor.Execute(p.run)
	}
}

func (p *Processor) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

func (p *Processor) debugf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debugf(format, args...)
	}
}

// Add submits ch for registration with the selector. It is a no-op for a nil
// channel, and fails with ErrShutdown once the processor is shutting down.
func (p *Processor) Add(ch *state.Channel) error {
	if ch == nil {
		return nil
	}
	if p.isShutdown() {
		return errShutdown("Add")
	}
	p.newChannels.Push(ch)
	p.startWorkerOnce()
	p.wake()
	return nil
}

// Flush submits ch for a write drain. See scheduleFlush for the
// test-and-set dedup rule.
func (p *Processor) Flush(ch *state.Channel) error {
	if ch == nil {
		return nil
	}
	if p.isShutdown() {
		return errShutdown("Flush")
	}
	p.scheduleFlush(ch)
	p.wake()
	return nil
}

// scheduleFlush enqueues ch on the flushing queue exactly once per
// outstanding flush cycle: only the caller that flips flush_scheduled from
// false to true performs the enqueue.
func (p *Processor) scheduleFlush(ch *state.Channel) {
	if ch.TrySetFlushScheduled() {
		p.flushingChannels.Push(ch)
	}
}

// Remove schedules ch for close. Idempotent: a channel already CLOSING or
// CLOSED is not re-enqueued.
func (p *Processor) Remove(ch *state.Channel) error {
	if ch == nil {
		return nil
	}
	if p.isShutdown() {
		return errShutdown("Remove")
	}
	p.scheduleClose(ch)
	p.wake()
	return nil
}

func (p *Processor) scheduleClose(ch *state.Channel) {
	if ch.IsClosing() || ch.IsClosed() {
		return
	}
	ch.SetLifecycle(state.StateClosing)
	p.closingChannels.Push(ch)
}

// Shutdown sets the shutdown flag and wakes the worker. It returns
// immediately; the worker observes the flag after its current iteration and
// performs teardown before the loop actually exits.
func (p *Processor) Shutdown() error {
	atomic.StoreInt32(&p.shutdown, shutdownSet)
	p.wake()
	return nil
}

// SetProtocol replaces the protocol taken from Config. The read, write and
// close paths consult it on every call, so a change applies to every
// channel from then on; the field is not synchronized with the worker
// goroutine.
func (p *Processor) SetProtocol(proto interfaces.Protocol) {
	p.protocol = proto
}

// Stats returns a point-in-time snapshot of queue depths.
func (p *Processor) Stats() Stats {
	return Stats{
		NewCount:      p.newChannels.Len(),
		FlushingCount: p.flushingChannels.Len(),
		ClosingCount:  p.closingChannels.Len(),
	}
}

type noopObserver struct{}

func (noopObserver) ObserveOpened()     {}
func (noopObserver) ObserveRead(int)    {}
func (noopObserver) ObserveWritten(int) {}
func (noopObserver) ObserveFlush()      {}
func (noopObserver) ObserveThrown()     {}
func (noopObserver) ObserveClosed()     {}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
