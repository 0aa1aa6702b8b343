// Package state holds per-channel mutable state: the ChannelState record the
// processor's worker goroutine owns exclusively between registration and
// close.
package state

import (
	"container/list"
	"net"
	"sync"
	"sync/atomic"

	"github.com/skiff-net/reactor/internal/constants"
	"github.com/skiff-net/reactor/internal/interfaces"
	"github.com/skiff-net/reactor/internal/predictor"
	"github.com/skiff-net/reactor/internal/selector"
)

// Lifecycle is the channel's monotone state machine. CLOSED is terminal.
type Lifecycle int32

const (
	StateNew Lifecycle = iota
	StateOpen
	StateClosing
	StateClosed
)

func (l Lifecycle) String() string {
	switch l {
	case StateNew:
		return "NEW"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var nextID uint64

// Channel is the per-connection state record. Every field except those
// explicitly called out below is touched only by the processor's worker
// goroutine; submitters reach a Channel solely through the processor's
// queues and the atomic fields noted per-field.
type Channel struct {
	id uint64

	Ops interfaces.ChannelOps

	// Registration is the selector's token for this channel. Replaced
	// wholesale (never mutated in place) on a selector rebuild.
	Registration *selector.Key

	// FlushScheduled is a test-and-set flag: only the goroutine that flips it
	// from 0 to 1 may enqueue this channel on the flushing queue. Accessed
	// with atomic CompareAndSwap from any submitter.
	FlushScheduled int32

	// WriteQueueMu guards WriteQueue: pushed by any producer goroutine,
	// drained only by the worker, so both sides must take the lock.
	WriteQueueMu sync.Mutex
	WriteQueue   *list.List

	Predictor *predictor.Predictor

	MaxWriteChunk int

	LastIOTimeMs int64 // atomic

	LocalAddr net.Addr
	// RemoteAddr is mutable for UDP: the first datagram on a freshly
	// registered UDP channel fixes its peer.
	RemoteAddr net.Addr

	lifecycle int32 // atomic, see Lifecycle
}

// New allocates a Channel in state NEW with a fresh predictor and an empty
// write queue. maxWriteChunk of 0 falls back to the default fair-mode quota.
func New(ops interfaces.ChannelOps, local net.Addr, maxWriteChunk int) *Channel {
	if maxWriteChunk <= 0 {
		maxWriteChunk = constants.DefaultMaxWriteChunk
	}
	return &Channel{
		id:            atomic.AddUint64(&nextID, 1),
		Ops:           ops,
		WriteQueue:    list.New(),
		Predictor:     predictor.New(),
		MaxWriteChunk: maxWriteChunk,
		LocalAddr:     local,
		lifecycle:     int32(StateNew),
	}
}

// ID satisfies interfaces.ChannelHandle.
func (c *Channel) ID() uint64 { return c.id }

// Lifecycle returns the channel's current lifecycle state.
func (c *Channel) Lifecycle() Lifecycle {
	return Lifecycle(atomic.LoadInt32(&c.lifecycle))
}

// SetLifecycle stores a new lifecycle value without checking the current
// one. The processor advances channels NEW, OPEN, CLOSING, CLOSED, with one
// exception: a channel scheduled for close before its registration is
// drained is still set to OPEN when it registers, and is then closed later
// in the same loop iteration.
func (c *Channel) SetLifecycle(l Lifecycle) {
	atomic.StoreInt32(&c.lifecycle, int32(l))
}

func (c *Channel) IsClosing() bool { return c.Lifecycle() == StateClosing }
func (c *Channel) IsClosed() bool  { return c.Lifecycle() == StateClosed }

// TrySetFlushScheduled is the schedule-flush test-and-set: it returns true
// only for the caller that flips the flag from false to true, which is the
// caller's ticket to enqueue this channel on the flushing queue.
func (c *Channel) TrySetFlushScheduled() bool {
	return atomic.CompareAndSwapInt32(&c.FlushScheduled, 0, 1)
}

// ClearFlushScheduled unsets the flag so a future flush() can re-schedule.
func (c *Channel) ClearFlushScheduled() {
	atomic.StoreInt32(&c.FlushScheduled, 0)
}

// TouchIOTime stamps the current time (in epoch milliseconds) as the last
// I/O activity, for the idle-timer collaborator.
func (c *Channel) TouchIOTime(nowMs int64) {
	atomic.StoreInt64(&c.LastIOTimeMs, nowMs)
}

func (c *Channel) LastIOTime() int64 {
	return atomic.LoadInt64(&c.LastIOTimeMs)
}

// EnqueueWrite appends buf to the tail of the write queue. Safe for
// concurrent callers; ordering across concurrent EnqueueWrite calls is
// whatever order they acquire WriteQueueMu in.
func (c *Channel) EnqueueWrite(buf []byte) {
	c.WriteQueueMu.Lock()
	c.WriteQueue.PushBack(buf)
	c.WriteQueueMu.Unlock()
}

// PeekWrite returns the head buffer without removing it, or nil if the
// write queue is empty.
func (c *Channel) PeekWrite() []byte {
	c.WriteQueueMu.Lock()
	defer c.WriteQueueMu.Unlock()
	front := c.WriteQueue.Front()
	if front == nil {
		return nil
	}
	return front.Value.([]byte)
}

// PopWrite removes the head buffer. Must only be called by the worker, and
// only after confirming (via PeekWrite) that the head buffer is fully sent.
func (c *Channel) PopWrite() {
	c.WriteQueueMu.Lock()
	defer c.WriteQueueMu.Unlock()
	if front := c.WriteQueue.Front(); front != nil {
		c.WriteQueue.Remove(front)
	}
}

// WriteQueueEmpty reports whether there is nothing left to flush.
func (c *Channel) WriteQueueEmpty() bool {
	c.WriteQueueMu.Lock()
	defer c.WriteQueueMu.Unlock()
	return c.WriteQueue.Len() == 0
}

// SetHeadBuffer replaces the head buffer in place with its unsent
// remainder, used when a write only partially drains it. The buffer stays
// at the front of the queue, preserving FIFO order for what follows it.
func (c *Channel) SetHeadBuffer(remainder []byte) {
	c.WriteQueueMu.Lock()
	defer c.WriteQueueMu.Unlock()
	if front := c.WriteQueue.Front(); front != nil {
		front.Value = remainder
	}
}
