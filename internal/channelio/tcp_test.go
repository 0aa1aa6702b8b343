//go:build linux

package channelio

import (
	"io"
	"testing"

	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	if err := SetNonblock(fds[0]); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}
	if err := SetNonblock(fds[1]); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}
	return fds[0], fds[1]
}

func TestTCPReadWriteRoundTrip(t *testing.T) {
	a, b := socketpair(t)
	defer unix.Close(a)
	defer unix.Close(b)

	chA := NewTCP(a, nil, nil)
	chB := NewTCP(b, nil, nil)

	n, err := chA.WriteTCP([]byte("hello"))
	if err != nil {
		t.Fatalf("WriteTCP: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	buf := make([]byte, 64)
	n, err = chB.ReadTCP(buf)
	if err != nil {
		t.Fatalf("ReadTCP: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("expected 'hello', got %q", buf[:n])
	}
}

func TestTCPReadWouldBlockReturnsZeroNil(t *testing.T) {
	a, b := socketpair(t)
	defer unix.Close(a)
	defer unix.Close(b)

	chB := NewTCP(b, nil, nil)
	buf := make([]byte, 64)
	n, err := chB.ReadTCP(buf)
	if err != nil {
		t.Fatalf("expected nil error on would-block, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 bytes on would-block, got %d", n)
	}
}

func TestTCPReadEOFAfterPeerClose(t *testing.T) {
	a, b := socketpair(t)
	defer unix.Close(b)

	chB := NewTCP(b, nil, nil)
	unix.Close(a)

	buf := make([]byte, 64)
	_, err := chB.ReadTCP(buf)
	if err != io.EOF {
		t.Errorf("expected io.EOF after peer close, got %v", err)
	}
}

func TestTCPIsValidAfterClose(t *testing.T) {
	a, b := socketpair(t)
	defer unix.Close(b)

	chA := NewTCP(a, nil, nil)
	if !chA.IsValid() {
		t.Fatal("expected fresh socket to be valid")
	}
	chA.Close()
	if chA.IsValid() {
		t.Error("expected closed socket to be invalid")
	}
}
