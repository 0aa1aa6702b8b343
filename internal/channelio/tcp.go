//go:build linux

// Package channelio implements interfaces.ChannelOps over raw non-blocking
// sockets using golang.org/x/sys/unix, for TCP streams and UDP datagrams.
package channelio

import (
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// TCPChannel wraps one non-blocking TCP socket file descriptor.
type TCPChannel struct {
	fd     int
	local  net.Addr
	remote net.Addr
}

// NewTCP wraps an already-nonblocking, already-connected TCP fd.
func NewTCP(fd int, local, remote net.Addr) *TCPChannel {
	return &TCPChannel{fd: fd, local: local, remote: remote}
}

func (c *TCPChannel) FD() int { return c.fd }

// ReadTCP issues one non-blocking read, retrying on EINTR. Returns (0, nil)
// on would-block, (0, io.EOF) once the peer has shut down its write side.
func (c *TCPChannel) ReadTCP(buf []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// ReadUDP is not meaningful on a TCP channel.
func (c *TCPChannel) ReadUDP(buf []byte) (int, net.Addr, error) {
	return 0, nil, unix.EOPNOTSUPP
}

// WriteTCP issues one non-blocking write, retrying on EINTR.
func (c *TCPChannel) WriteTCP(buf []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// WriteUDP is not meaningful on a TCP channel.
func (c *TCPChannel) WriteUDP(buf []byte, addr net.Addr) (int, error) {
	return 0, unix.EOPNOTSUPP
}

func (c *TCPChannel) Close() error {
	return unix.Close(c.fd)
}

// IsValid reports whether the fd still refers to an open descriptor.
// fcntl(F_GETFD) is a cheap, side-effect-free validity probe.
func (c *TCPChannel) IsValid() bool {
	_, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFD, 0)
	return err == nil
}

func (c *TCPChannel) LocalAddr() net.Addr { return c.local }
