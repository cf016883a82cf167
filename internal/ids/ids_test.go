package ids

import (
	"strings"
	"testing"
)

func TestGeneratorUnique(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := g.NewInquiryID()
		if !strings.HasPrefix(id, InquiryPrefix) {
			t.Fatalf("unexpected id %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	if v := g.NewVendorID(); !strings.HasPrefix(v, VendorPrefix) {
		t.Fatalf("unexpected vendor id %q", v)
	}
}

func TestGeneratorRejectsBadNode(t *testing.T) {
	if _, err := NewGenerator(5000); err == nil {
		t.Fatal("expected error for out-of-range node")
	}
}
