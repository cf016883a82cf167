package web

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSockets is returned when a session has nobody listening.
var ErrNoSockets = errors.New("web: no sockets joined to session")

// Sink receives frames for one connected socket.
type Sink interface {
	Send(ctx context.Context, frame ReplyFrame) error
}

// Hub tracks which sockets are joined to which chat session. One session may
// be open in several tabs; every tab receives every reply.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Sink]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Sink]struct{})}
}

// Join adds s to the session room and returns a func that removes it.
func (h *Hub) Join(session string, s Sink) (leave func()) {
	h.mu.Lock()
	room, ok := h.rooms[session]
	if !ok {
		room = make(map[Sink]struct{})
		h.rooms[session] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if room, ok := h.rooms[session]; ok {
				delete(room, s)
				if len(room) == 0 {
					delete(h.rooms, session)
				}
			}
		})
	}
}

// Broadcast sends frame to every socket in the session and reports how many
// accepted it. Individual socket failures do not stop the fan-out.
func (h *Hub) Broadcast(ctx context.Context, session string, frame ReplyFrame) (int, error) {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.rooms[session]))
	for s := range h.rooms[session] {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()
	if len(sinks) == 0 {
		return 0, ErrNoSockets
	}

	var (
		sent int
		errs []error
	)
	for _, s := range sinks {
		if err := s.Send(ctx, frame); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	if sent == 0 {
		return 0, errors.Join(errs...)
	}
	return sent, nil
}

// Sessions reports how many sessions have at least one socket.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
