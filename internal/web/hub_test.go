package web

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []ReplyFrame
	err    error
}

func (s *recordingSink) Send(_ context.Context, f ReplyFrame) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
	return nil
}

func TestHubFanOut(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	tab1, tab2, other := &recordingSink{}, &recordingSink{}, &recordingSink{}
	leave1 := h.Join("s1", tab1)
	h.Join("s1", tab2)
	h.Join("s2", other)

	n, err := h.Broadcast(ctx, "s1", ReplyFrame{Type: FrameReply, Text: "hi"})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deliveries, got %d %v", n, err)
	}
	if len(other.frames) != 0 {
		t.Fatal("reply leaked into another session")
	}

	leave1()
	leave1()
	n, _ = h.Broadcast(ctx, "s1", ReplyFrame{Text: "again"})
	if n != 1 || len(tab1.frames) != 1 || len(tab2.frames) != 2 {
		t.Fatalf("leave not applied: n=%d tab1=%d tab2=%d", n, len(tab1.frames), len(tab2.frames))
	}
	if h.Sessions() != 2 {
		t.Fatalf("expected 2 sessions, got %d", h.Sessions())
	}
}

func TestHubNoSockets(t *testing.T) {
	h := NewHub()
	if _, err := h.Broadcast(context.Background(), "missing", ReplyFrame{}); !errors.Is(err, ErrNoSockets) {
		t.Fatalf("expected ErrNoSockets, got %v", err)
	}
}

func TestHubPartialFailure(t *testing.T) {
	h := NewHub()
	broken := &recordingSink{err: errors.New("closed")}
	ok := &recordingSink{}
	h.Join("s", broken)
	h.Join("s", ok)
	n, err := h.Broadcast(context.Background(), "s", ReplyFrame{Text: "x"})
	if err != nil || n != 1 {
		t.Fatalf("one healthy socket should be enough, got %d %v", n, err)
	}

	h2 := NewHub()
	h2.Join("s", broken)
	if _, err := h2.Broadcast(context.Background(), "s", ReplyFrame{}); err == nil {
		t.Fatal("expected error when every socket fails")
	}
}

func TestClientFrameValidation(t *testing.T) {
	valid := []ClientFrame{
		{Type: FrameMessage, Text: "hello"},
		{Type: FrameButton, Token: "bcity_guwahati"},
	}
	for _, f := range valid {
		if err := f.validate(); err != nil {
			t.Fatalf("%+v: %v", f, err)
		}
	}
	invalid := []ClientFrame{
		{Type: "join"},
		{Type: FrameMessage},
		{Type: FrameButton, Text: "no token"},
	}
	for _, f := range invalid {
		if err := f.validate(); err == nil {
			t.Fatalf("%+v should be rejected", f)
		}
	}
}
