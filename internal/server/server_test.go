package server

import (
	"strings"
	"testing"
	"time"
)

func TestStopTwice(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	if err := s.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}

	// The shutdown command and the signal handler can both reach Stop
	// during a single shutdown. The second call must be a no-op, not a
	// panic on the already-closed done channel.
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestStopUnblocksWait(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	s.Stop()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}

func TestContextWithDisconnect(t *testing.T) {
	ctx, cancel := contextWithDisconnect(t.Context(), strings.NewReader(""))
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after reader EOF")
	}
}
