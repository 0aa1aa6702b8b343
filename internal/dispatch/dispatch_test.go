package dispatch

import (
	"sync"
	"testing"

	"github.com/skiff-net/reactor/internal/executor"
	"github.com/skiff-net/reactor/internal/interfaces"
)

func TestSyncDispatchesOnCallerGoroutine(t *testing.T) {
	callerGID := "caller"
	var seenGID string

	d := NewSync(func(ev interfaces.Event) {
		seenGID = callerGID // if this ran on another goroutine there'd be a race detector hit
	})

	d.Dispatch(interfaces.Event{Type: interfaces.EventOpened})
	if seenGID != callerGID {
		t.Error("expected handler to run synchronously")
	}
}

func TestSyncNilHandlerIsNoop(t *testing.T) {
	d := NewSync(nil)
	d.Dispatch(interfaces.Event{Type: interfaces.EventOpened}) // must not panic
}

func TestAsyncDispatchesEventually(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	var gotType interfaces.EventType
	d := NewAsync(func(ev interfaces.Event) {
		gotType = ev.Type
		wg.Done()
	}, executor.New())

	d.Dispatch(interfaces.Event{Type: interfaces.EventRead})
	wg.Wait()

	if gotType != interfaces.EventRead {
		t.Errorf("expected EventRead, got %v", gotType)
	}
}

func TestAsyncNilHandlerIsNoop(t *testing.T) {
	d := NewAsync(nil, executor.New())
	d.Dispatch(interfaces.Event{Type: interfaces.EventOpened}) // must not panic
}
