package reactor

import "github.com/skiff-net/reactor/internal/constants"

// Re-exported tuning constants, so callers can reference the reactor's
// defaults without reaching into internal/constants themselves.
const (
	DefaultMaxWriteChunk      = constants.DefaultMaxWriteChunk
	MinReadBufferSize         = constants.MinReadBufferSize
	MaxReadBufferSize         = constants.MaxReadBufferSize
	DefaultReadBufferSize     = constants.DefaultReadBufferSize
	DefaultDatagramBufferSize = constants.DefaultDatagramBufferSize
)
