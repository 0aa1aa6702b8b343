// Package executor provides the processor's worker-goroutine launcher.
package executor

import "github.com/skiff-net/reactor/internal/interfaces"

// Goroutine is the simplest Executor: it runs each submitted task on its own
// goroutine. The processor submits exactly one task per instance lifetime
// (the worker-started single-shot guard enforces this), so this is not a
// pool — it's just "go task()" named to satisfy the collaborator contract.
type Goroutine struct{}

// New returns a Goroutine executor.
func New() *Goroutine {
	return &Goroutine{}
}

func (*Goroutine) Execute(task func()) {
	go task()
}

var _ interfaces.Executor = (*Goroutine)(nil)
