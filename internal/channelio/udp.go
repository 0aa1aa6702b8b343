//go:build linux

package channelio

import (
	"net"

	"golang.org/x/sys/unix"
)

// UDPChannel wraps one non-blocking UDP socket file descriptor. Unlike TCP,
// a single UDP socket serves many remote peers; the processor deduplicates
// "connections" by (local, remote) address tuple, not by fd.
type UDPChannel struct {
	fd    int
	local net.Addr
}

// NewUDP wraps an already-bound, already-nonblocking UDP fd.
func NewUDP(fd int, local net.Addr) *UDPChannel {
	return &UDPChannel{fd: fd, local: local}
}

func (c *UDPChannel) FD() int { return c.fd }

// ReadTCP is not meaningful on a UDP channel.
func (c *UDPChannel) ReadTCP(buf []byte) (int, error) {
	return 0, unix.EOPNOTSUPP
}

// ReadUDP issues one non-blocking receive. Returns (0, nil, nil) if no
// datagram is currently available.
func (c *UDPChannel) ReadUDP(buf []byte) (int, net.Addr, error) {
	for {
		n, from, err := unix.Recvfrom(c.fd, buf, 0)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil, nil
		}
		if err != nil {
			return 0, nil, err
		}
		return n, sockaddrToUDPAddr(from), nil
	}
}

// WriteTCP is not meaningful on a UDP channel.
func (c *UDPChannel) WriteTCP(buf []byte) (int, error) {
	return 0, unix.EOPNOTSUPP
}

// WriteUDP issues one non-blocking send to addr.
func (c *UDPChannel) WriteUDP(buf []byte, addr net.Addr) (int, error) {
	sa, err := udpAddrToSockaddr(addr)
	if err != nil {
		return 0, err
	}
	for {
		err := unix.Sendto(c.fd, buf, 0, sa)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return len(buf), nil
	}
}

func (c *UDPChannel) Close() error {
	return unix.Close(c.fd)
}

func (c *UDPChannel) IsValid() bool {
	_, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFD, 0)
	return err == nil
}

func (c *UDPChannel) LocalAddr() net.Addr { return c.local }

func sockaddrToUDPAddr(sa unix.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	default:
		return nil
	}
}

func udpAddrToSockaddr(addr net.Addr) (unix.Sockaddr, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return nil, unix.EINVAL
	}
	if ip4 := udpAddr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: udpAddr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	sa := &unix.SockaddrInet6{Port: udpAddr.Port}
	copy(sa.Addr[:], udpAddr.IP.To16())
	return sa, nil
}
