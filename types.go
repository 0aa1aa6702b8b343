package reactor

import "github.com/skiff-net/reactor/internal/interfaces"

// Event is the payload handed to a Dispatcher. Payload carries a private
// copy of the bytes involved; Err carries the error for EventThrown.
type Event = interfaces.Event

// EventType enumerates the events a Dispatcher receives.
type EventType = interfaces.EventType

const (
	EventOpened  = interfaces.EventOpened
	EventRead    = interfaces.EventRead
	EventFlush   = interfaces.EventFlush
	EventWritten = interfaces.EventWritten
	EventThrown  = interfaces.EventThrown
	EventClosed  = interfaces.EventClosed
)

// ChannelHandle is the minimal identity surface an Event's Channel field
// exposes: enough to key idle-timer membership or tag a dispatched event.
type ChannelHandle = interfaces.ChannelHandle

// Dispatcher fans out channel events to user code. Calls happen on the
// processor's worker goroutine; a Dispatcher needing off-thread handling
// must hand events to its own Executor.
type Dispatcher = interfaces.Dispatcher

// ChannelOps is the non-blocking socket operations a Processor invokes on a
// registered channel. Implement this to back a Channel with a transport
// other than the ones internal/channelio already provides.
type ChannelOps = interfaces.ChannelOps

// IdleTimer tracks channel membership for idle-timeout bookkeeping.
type IdleTimer = interfaces.IdleTimer

// Executor runs the processor's worker task.
type Executor = interfaces.Executor

// Logger is the minimal logging surface a Processor depends on.
type Logger = interfaces.Logger

// Observer receives per-event counters for statistics collection.
type Observer = interfaces.Observer
