//go:build linux

package selector

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// epollSelector is the real Selector backed by epoll(7). Wake uses an
// eventfd registered alongside the watched fds so a blocked Wait returns
// promptly from any goroutine without a kernel round trip per wake.
type epollSelector struct {
	epfd    int
	wakeFD  int
	wakeSet int32 // test-and-set: Wake() only writes if not already pending

	mu   sync.Mutex
	keys map[int]*Key // by fd
}

// New returns a Selector backed by epoll on the current platform.
func New() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakeFD, _, errno := unix.Syscall(unix.SYS_EVENTFD2, 0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC, 0)
	if errno != 0 {
		unix.Close(epfd)
		return nil, errno
	}

	s := &epollSelector{
		epfd:   epfd,
		wakeFD: int(wakeFD),
		keys:   make(map[int]*Key),
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(s.wakeFD)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, s.wakeFD, &ev); err != nil {
		unix.Close(s.wakeFD)
		unix.Close(s.epfd)
		return nil, err
	}

	return s, nil
}

func toEpollEvents(i Interest) uint32 {
	var ev uint32
	if i.Has(Read) {
		ev |= unix.EPOLLIN
	}
	if i.Has(Write) {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (s *epollSelector) Register(fd int, interest Interest, attachment interface{}) (*Key, error) {
	key := &Key{FD: fd, Interest: interest, Attachment: attachment}

	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.keys[fd] = key
	s.mu.Unlock()
	return key, nil
}

func (s *epollSelector) SetInterest(key *Key, interest Interest) error {
	key.Interest = interest
	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(key.FD)}
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, key.FD, &ev)
}

func (s *epollSelector) Cancel(key *Key) error {
	s.mu.Lock()
	delete(s.keys, key.FD)
	s.mu.Unlock()

	// EPOLL_CTL_DEL on an fd the kernel already dropped (e.g. because the
	// process closed it) returns ENOENT/EBADF; both are expected and benign
	// during the close path, so they're swallowed here rather than at every
	// call site.
	err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, key.FD, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (s *epollSelector) Wait(timeoutMs int) ([]Event, error) {
	var raw [128]unix.EpollEvent
	n, err := unix.EpollWait(s.epfd, raw[:], timeoutMs)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, n)
	s.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == s.wakeFD {
			s.drainWake()
			continue
		}
		key, ok := s.keys[fd]
		if !ok {
			continue
		}
		var ready Interest
		if raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			ready |= Read
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			ready |= Write
		}
		events = append(events, Event{Key: key, Ready: ready})
	}
	s.mu.Unlock()

	return events, nil
}

func (s *epollSelector) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(s.wakeFD, buf[:])
		if err != nil {
			break
		}
	}
	atomic.StoreInt32(&s.wakeSet, 0)
}

func (s *epollSelector) Wake() {
	if !atomic.CompareAndSwapInt32(&s.wakeSet, 0, 1) {
		return
	}
	buf := [8]byte{1, 0, 0, 0, 0, 0, 0, 0}
	unix.Write(s.wakeFD, buf[:])
}

// Clone opens a new epoll instance; it does not carry over s's registrations
// (the caller re-registers whatever it needs onto the returned Selector).
func (s *epollSelector) Clone() (Selector, error) {
	return New()
}

func (s *epollSelector) Keys() []*Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]*Key, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k)
	}
	return keys
}

func (s *epollSelector) Close() error {
	unix.Close(s.wakeFD)
	return unix.Close(s.epfd)
}
