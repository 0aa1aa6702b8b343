// Package selector wraps the OS readiness primitive the processor polls.
// Real registration/wait logic lives behind a build-tag split
// (selector_linux.go / selector_stub.go); this file holds the
// platform-independent contract and event shape.
package selector

// Interest is a bitset over the two readiness conditions the processor
// cares about.
type Interest uint8

const (
	Read Interest = 1 << iota
	Write
)

func (i Interest) Has(flag Interest) bool { return i&flag != 0 }

// Event reports one fd's readiness state from a single Wait call.
type Event struct {
	Key   *Key
	Ready Interest
}

// Key is the registration token returned by Register. It is the processor's
// handle for re-arming interest or cancelling the registration; its identity
// is replaced wholesale on a selector rebuild (ChannelState.registration is
// swapped, never mutated in place).
type Key struct {
	FD         int
	Interest   Interest
	Attachment interface{}
}

// Selector is the minimal readiness-multiplexer contract the processor
// depends on. Register/Cancel/SetInterest/Keys are called only from the
// processor's worker goroutine except where noted; Wake is safe from any
// goroutine.
type Selector interface {
	// Register arms fd for the given interest and returns a Key carrying
	// attachment as opaque user data.
	Register(fd int, interest Interest, attachment interface{}) (*Key, error)

	// SetInterest rearms an existing key for a new interest set.
	SetInterest(key *Key, interest Interest) error

	// Cancel removes a key's registration. Safe to call on an fd the kernel
	// has already silently dropped (e.g. after close).
	Cancel(key *Key) error

	// Wait blocks up to timeoutMs (0 means return immediately, -1 means
	// block indefinitely) and returns the keys that became ready.
	Wait(timeoutMs int) ([]Event, error)

	// Wake causes a concurrently blocked Wait to return early with zero
	// events. Safe to call from any goroutine, including when no Wait is
	// currently blocked (the wake is latched, not lost).
	Wake()

	// Keys returns a snapshot of all currently registered keys, used by the
	// spurious-wakeup broken-socket scan and by selector rebuild.
	Keys() []*Key

	// Clone returns a fresh, empty Selector of the same implementation as
	// the receiver — used by selector rebuild so an injected (e.g. test)
	// Selector is replaced with another instance of whatever was injected,
	// never with the package's platform default.
	Clone() (Selector, error)

	// Close releases the underlying OS resource.
	Close() error
}
