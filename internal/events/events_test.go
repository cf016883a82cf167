package events

import (
	"context"
	"testing"
)

func TestEventKey(t *testing.T) {
	if k := (Event{InquiryID: "INQ-1", VendorID: "VEN-1"}).Key(); k != "INQ-1" {
		t.Fatalf("inquiry id should win, got %q", k)
	}
	if k := (Event{VendorID: "VEN-1"}).Key(); k != "VEN-1" {
		t.Fatalf("unexpected key %q", k)
	}
}

func TestMemoryPublisher(t *testing.T) {
	var m Memory
	ctx := context.Background()
	_ = m.Publish(ctx, Event{Type: InquiryCreated})
	_ = m.Publish(ctx, Event{Type: QuoteRelayed})
	got := m.Types()
	if len(got) != 2 || got[0] != InquiryCreated || got[1] != QuoteRelayed {
		t.Fatalf("unexpected events %v", got)
	}
	if err := (Nop{}).Publish(ctx, Event{}); err != nil {
		t.Fatalf("nop: %v", err)
	}
}
