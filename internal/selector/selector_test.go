//go:build linux

package selector

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func pipeFDs(t *testing.T) (r, w int) {
	t.Helper()
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	return fds[0], fds[1]
}

func TestRegisterAndWaitReadable(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	r, w := pipeFDs(t)
	defer unix.Close(r)
	defer unix.Close(w)

	key, err := s.Register(r, Read, "attachment")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	unix.Write(w, []byte("x"))

	events, err := s.Wait(1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Key != key {
		t.Error("expected event to carry the registered key")
	}
	if !events[0].Ready.Has(Read) {
		t.Error("expected Read interest to be ready")
	}
	if events[0].Key.Attachment != "attachment" {
		t.Errorf("expected attachment to round-trip, got %v", events[0].Key.Attachment)
	}
}

func TestWaitTimesOutWithNoActivity(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	r, w := pipeFDs(t)
	defer unix.Close(r)
	defer unix.Close(w)

	if _, err := s.Register(r, Read, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	start := time.Now()
	events, err := s.Wait(50)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("Wait returned suspiciously early for an idle fd")
	}
}

func TestWakeReturnsBlockedWait(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	done := make(chan struct{})
	go func() {
		s.Wait(5000)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Wake()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wake did not unblock a pending Wait")
	}
}

func TestCancelRemovesKey(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	r, w := pipeFDs(t)
	defer unix.Close(r)
	defer unix.Close(w)

	key, err := s.Register(r, Read, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(s.Keys()) != 1 {
		t.Fatalf("expected 1 registered key, got %d", len(s.Keys()))
	}

	if err := s.Cancel(key); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("expected 0 registered keys after Cancel, got %d", len(s.Keys()))
	}
}

func TestSetInterestSwitchesWriteToRead(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	r, w := pipeFDs(t)
	defer unix.Close(r)
	defer unix.Close(w)

	key, err := s.Register(w, Write, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	events, err := s.Wait(1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(events) != 1 || !events[0].Ready.Has(Write) {
		t.Fatalf("expected a ready Write event on a fresh pipe write end, got %+v", events)
	}

	if err := s.SetInterest(key, Read); err != nil {
		t.Fatalf("SetInterest: %v", err)
	}
	if key.Interest != Read {
		t.Errorf("expected key.Interest updated to Read, got %v", key.Interest)
	}
}
