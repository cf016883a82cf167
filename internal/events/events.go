// Package events publishes notifications about inquiries, vendors and quotes
// for downstream consumers (dashboards, alerting, CRM sync).
package events

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	InquiryCreated   = "inquiry.created"
	InquiryUnmatched = "inquiry.unmatched"
	VendorRegistered = "vendor.registered"
	QuoteRelayed     = "quote.relayed"
)

// Event is the JSON payload written to the notification topic.
type Event struct {
	Type      string    `json:"type"`
	InquiryID string    `json:"inquiryId,omitempty"`
	VendorID  string    `json:"vendorId,omitempty"`
	Material  string    `json:"material,omitempty"`
	City      string    `json:"city,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Vendors   []string  `json:"vendors,omitempty"`
	Items     int       `json:"items,omitempty"`
	At        time.Time `json:"at"`
}

// Key partitions events so one inquiry's history stays ordered.
func (e Event) Key() string {
	if e.InquiryID != "" {
		return e.InquiryID
	}
	return e.VendorID
}

// Publisher emits events. Publishing is best-effort; callers log failures.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory keeps published events in process.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types lists the published event types in order.
func (m *Memory) Types() []string {
	evs := m.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}
