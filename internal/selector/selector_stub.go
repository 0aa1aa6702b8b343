//go:build !linux

package selector

import (
	"errors"
	"sync"
)

// New on non-Linux platforms returns a selector that never reports
// readiness. The reactor's epoll-based readiness model is Linux-only;
// build and run on a Linux target for real I/O. This stub exists only so
// the module compiles elsewhere.
func New() (Selector, error) {
	return &stubSelector{keys: make(map[int]*Key)}, nil
}

type stubSelector struct {
	mu   sync.Mutex
	keys map[int]*Key
	wake chan struct{}
	once sync.Once
}

func (s *stubSelector) Register(fd int, interest Interest, attachment interface{}) (*Key, error) {
	key := &Key{FD: fd, Interest: interest, Attachment: attachment}
	s.mu.Lock()
	s.keys[fd] = key
	s.mu.Unlock()
	return key, nil
}

func (s *stubSelector) SetInterest(key *Key, interest Interest) error {
	key.Interest = interest
	return nil
}

func (s *stubSelector) Cancel(key *Key) error {
	s.mu.Lock()
	delete(s.keys, key.FD)
	s.mu.Unlock()
	return nil
}

func (s *stubSelector) Wait(timeoutMs int) ([]Event, error) {
	return nil, errors.New("selector: epoll readiness is unavailable on this platform")
}

func (s *stubSelector) Wake() {}

// Clone returns a new stub selector, matching epollSelector's Clone contract
// on platforms where the real readiness backend is unavailable.
func (s *stubSelector) Clone() (Selector, error) {
	return New()
}

func (s *stubSelector) Keys() []*Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]*Key, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k)
	}
	return keys
}

func (s *stubSelector) Close() error { return nil }
