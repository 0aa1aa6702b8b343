//go:build linux

package channelio

import (
	"github.com/skiff-net/reactor/internal/interfaces"
	"golang.org/x/sys/unix"
)

var (
	_ interfaces.ChannelOps = (*TCPChannel)(nil)
	_ interfaces.ChannelOps = (*UDPChannel)(nil)
)

// SetNonblock marks fd as non-blocking, required before handing it to a
// Channel: every read/write path here assumes EAGAIN rather than a blocked
// syscall.
func SetNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
