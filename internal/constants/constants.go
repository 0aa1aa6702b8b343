package constants

import "time"

// Event loop timing
const (
	// SelectTimeout bounds how long a single poll() call may block when the
	// selector has nothing ready. The loop wakes on this cadence even with no
	// registered activity, so shutdown and idle-timer scans stay responsive.
	SelectTimeout = 1000 * time.Millisecond

	// SpuriousWakeupThreshold is the "this looks like the JDK epoll bug"
	// heuristic: a poll() returning 0 selections faster than this, with no
	// wake() call pending, suggests the selector is spinning on a stale fd.
	SpuriousWakeupThreshold = 100 * time.Millisecond
)

// Drain budgets
const (
	// FlushSpinCount bounds how many channels a single flush() call drains
	// from the flushing queue before yielding back to the main loop, so a
	// burst of writers can't starve reads and closes.
	FlushSpinCount = 256
)

// Write scheduling
const (
	// DefaultMaxWriteChunk is the per-channel fair-mode write quota used when
	// a channel's configuration does not override it.
	DefaultMaxWriteChunk = 256 * 1024
)

// SizePredictor bounds
const (
	// MinReadBufferSize is the smallest buffer the predictor will ever ask
	// for, regardless of how quiet a channel has been.
	MinReadBufferSize = 64

	// MaxReadBufferSize is the largest buffer the predictor will ever ask
	// for, regardless of how busy a channel has been.
	MaxReadBufferSize = 1 << 20 // 1MB

	// DefaultReadBufferSize seeds a freshly created predictor before any
	// feedback has been observed.
	DefaultReadBufferSize = 2048
)

// Datagram sizing
const (
	// DefaultDatagramBufferSize bounds a single UDP receive. The predictor
	// is not consulted on the UDP path (datagrams are bounded by the link
	// MTU, not by adaptive estimation), so this is a fixed allocation.
	DefaultDatagramBufferSize = 64 * 1024
)
