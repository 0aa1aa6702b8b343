package reactor

import (
	"io"
	"net"
	"sync"

	"github.com/skiff-net/reactor/internal/interfaces"
)

// MockChannelOps provides a mock implementation of ChannelOps for testing.
// It serves reads from a canned queue of chunks and records every write, so
// callers can assert exactly what a Processor tried to send.
type MockChannelOps struct {
	fd    int
	local net.Addr

	mu         sync.Mutex
	readChunks [][]byte
	readEOF    bool
	readErr    error

	writeErr   error
	writeLimit int
	written    []byte

	closed bool
	valid  bool

	readCalls  int
	writeCalls int
}

// NewMockChannelOps creates a mock channel backed by fd, useful for unit
// testing code that drives a Processor without a real socket.
func NewMockChannelOps(fd int, local net.Addr) *MockChannelOps {
	return &MockChannelOps{fd: fd, local: local, valid: true}
}

// FD implements ChannelOps.
func (m *MockChannelOps) FD() int { return m.fd }

// QueueRead appends a chunk to be returned by successive ReadTCP/ReadUDP
// calls, in FIFO order.
func (m *MockChannelOps) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readChunks = append(m.readChunks, data)
}

// QueueEOF arranges for the next ReadTCP call, once the read queue is
// drained, to return io.EOF.
func (m *MockChannelOps) QueueEOF() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readEOF = true
}

// SetReadError arranges for every subsequent read to fail with err.
func (m *MockChannelOps) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError arranges for every subsequent write to fail with err.
func (m *MockChannelOps) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetWriteLimit caps how many bytes a single write call accepts, simulating
// a partial write. 0 means unlimited.
func (m *MockChannelOps) SetWriteLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeLimit = n
}

// ReadTCP implements ChannelOps.
func (m *MockChannelOps) ReadTCP(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++

	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.readChunks) == 0 {
		if m.readEOF {
			return 0, io.EOF
		}
		return 0, nil
	}
	chunk := m.readChunks[0]
	n := copy(buf, chunk)
	if n < len(chunk) {
		m.readChunks[0] = chunk[n:]
	} else {
		m.readChunks = m.readChunks[1:]
	}
	return n, nil
}

// ReadUDP implements ChannelOps, returning a fixed loopback source address
// for every datagram.
func (m *MockChannelOps) ReadUDP(buf []byte) (int, net.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++

	if m.readErr != nil {
		return 0, nil, m.readErr
	}
	if len(m.readChunks) == 0 {
		return 0, nil, nil
	}
	chunk := m.readChunks[0]
	m.readChunks = m.readChunks[1:]
	n := copy(buf, chunk)
	return n, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}, nil
}

func (m *MockChannelOps) acceptWrite(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++

	if m.writeErr != nil {
		return 0, m.writeErr
	}
	n := len(buf)
	if m.writeLimit > 0 && m.writeLimit < n {
		n = m.writeLimit
	}
	m.written = append(m.written, buf[:n]...)
	return n, nil
}

// WriteTCP implements ChannelOps.
func (m *MockChannelOps) WriteTCP(buf []byte) (int, error) { return m.acceptWrite(buf) }

// WriteUDP implements ChannelOps. The destination address is accepted but
// not recorded; use QueueRead/ReadUDP to exercise peer tracking instead.
func (m *MockChannelOps) WriteUDP(buf []byte, _ net.Addr) (int, error) { return m.acceptWrite(buf) }

// Close implements ChannelOps.
func (m *MockChannelOps) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.valid = false
	return nil
}

// IsValid implements ChannelOps.
func (m *MockChannelOps) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// LocalAddr implements ChannelOps.
func (m *MockChannelOps) LocalAddr() net.Addr { return m.local }

// IsClosed reports whether Close has been called.
func (m *MockChannelOps) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Written returns a copy of every byte accepted across all write calls.
func (m *MockChannelOps) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}

// CallCounts returns the number of read and write calls observed so far.
func (m *MockChannelOps) CallCounts() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls, m.writeCalls
}

var (
	_ interfaces.ChannelOps = (*MockChannelOps)(nil)
)

// MockDispatcher records every event handed to it, in order, for assertions
// in tests that drive a Processor directly.
type MockDispatcher struct {
	mu     sync.Mutex
	events []interfaces.Event
}

// NewMockDispatcher returns an empty MockDispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// Dispatch implements interfaces.Dispatcher.
func (d *MockDispatcher) Dispatch(ev interfaces.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

// Events returns a copy of every event received so far, in order.
func (d *MockDispatcher) Events() []interfaces.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]interfaces.Event, len(d.events))
	copy(out, d.events)
	return out
}

// CountOf returns how many events of the given type have been received.
func (d *MockDispatcher) CountOf(t interfaces.EventType) int {
	n := 0
	for _, ev := range d.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Reset clears every recorded event.
func (d *MockDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

var _ interfaces.Dispatcher = (*MockDispatcher)(nil)

// MockIdleTimer tracks Add/Remove calls without enforcing any actual
// timeout, for tests asserting idle-timer membership bookkeeping.
type MockIdleTimer struct {
	mu      sync.Mutex
	members map[uint64]interfaces.ChannelHandle
}

// NewMockIdleTimer returns an empty MockIdleTimer.
func NewMockIdleTimer() *MockIdleTimer {
	return &MockIdleTimer{members: make(map[uint64]interfaces.ChannelHandle)}
}

// Add implements interfaces.IdleTimer.
func (t *MockIdleTimer) Add(ch interfaces.ChannelHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.members[ch.ID()] = ch
}

// Remove implements interfaces.IdleTimer.
func (t *MockIdleTimer) Remove(ch interfaces.ChannelHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.members, ch.ID())
}

// Contains reports whether id is currently a member.
func (t *MockIdleTimer) Contains(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.members[id]
	return ok
}

// Len returns the current membership count.
func (t *MockIdleTimer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.members)
}

var _ interfaces.IdleTimer = (*MockIdleTimer)(nil)

// MockExecutor runs every submitted task on its own goroutine, like
// executor.Goroutine, but additionally counts how many tasks were submitted.
type MockExecutor struct {
	mu    sync.Mutex
	calls int
}

// NewMockExecutor returns an empty MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// Execute implements interfaces.Executor.
func (e *MockExecutor) Execute(task func()) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	go task()
}

// Calls returns how many tasks have been submitted.
func (e *MockExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

var _ interfaces.Executor = (*MockExecutor)(nil)
