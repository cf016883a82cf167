// Package session keeps per-address runtime state (conversation steps and
// quote drafts) behind a small store abstraction with expiry.
package session

import (
	"context"
	"sync"
	"time"
)

// Store holds values of type T keyed by channel address.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
	// SweepExpired drops expired entries and reports how many were removed.
	SweepExpired(ctx context.Context) (int, error)
	Len(ctx context.Context) (int, error)
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// MemoryStore is an in-process Store. A zero ttl disables expiry.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries expire ttl after their last write.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore[T]) expired(e entry[T], now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (m *MemoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false, nil
	}
	if m.expired(e, m.now()) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && m.expired(cur, m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		var zero T
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore[T]) Set(_ context.Context, key string, value T) error {
	e := entry[T]{value: value}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore[T]) SweepExpired(context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore[T]) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
