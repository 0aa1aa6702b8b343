// Package dispatch provides Dispatcher implementations that fan out
// processor events to user-supplied handlers.
package dispatch

import "github.com/skiff-net/reactor/internal/interfaces"

// Handler receives one dispatched event. It runs on whatever goroutine the
// owning Dispatcher chooses to call it on.
type Handler func(ev interfaces.Event)

// Sync dispatches every event by calling Handler directly, on the caller's
// goroutine — for the processor, that means the worker goroutine. A Handler
// that blocks here blocks the entire event loop; it must hand off elsewhere
// if it needs to do anything slow.
type Sync struct {
	handler Handler
}

// NewSync returns a Dispatcher that calls handler synchronously.
func NewSync(handler Handler) *Sync {
	return &Sync{handler: handler}
}

func (d *Sync) Dispatch(ev interfaces.Event) {
	if d.handler != nil {
		d.handler(ev)
	}
}

var _ interfaces.Dispatcher = (*Sync)(nil)

// Async hands every event to an Executor, so Dispatch itself never blocks
// the worker goroutine regardless of how slow Handler is.
type Async struct {
	handler  Handler
	executor interfaces.Executor
}

// NewAsync returns a Dispatcher that executes handler via executor for
// every event, decoupling event delivery from the worker goroutine.
func NewAsync(handler Handler, executor interfaces.Executor) *Async {
	return &Async{handler: handler, executor: executor}
}

func (d *Async) Dispatch(ev interfaces.Event) {
	if d.handler == nil {
		return
	}
	d.executor.Execute(func() {
		d.handler(ev)
	})
}

var _ interfaces.Dispatcher = (*Async)(nil)
