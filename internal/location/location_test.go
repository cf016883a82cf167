package location

import "testing"

func TestFormattedLocation(t *testing.T) {
	m := Default()
	got, ok := m.FormattedLocation("guwahati", "ganeshguri")
	if !ok || got != "Ganeshguri, Guwahati" {
		t.Fatalf("unexpected location %q ok=%v", got, ok)
	}
	if _, ok := m.FormattedLocation("guwahati", "bandra"); ok {
		t.Fatal("unknown locality must not resolve")
	}
	if _, ok := m.FormattedLocation("mumbai", "bandra"); ok {
		t.Fatal("unknown city must not resolve")
	}
}

func TestResolve(t *testing.T) {
	m := Default()
	if got := m.Resolve("shillong:mawlai"); got != "Mawlai, Shillong" {
		t.Fatalf("pair not resolved: %q", got)
	}
	if got := m.Resolve("  new   delhi "); got != "New Delhi" {
		t.Fatalf("free text not title-cased: %q", got)
	}
	if got := m.Resolve("nowhere:none"); got != "Nowhere:none" {
		t.Fatalf("invalid pair should fall back to raw text, got %q", got)
	}
}

func TestNewManagerSkipsDuplicates(t *testing.T) {
	m := NewManager([]City{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}})
	if len(m.Cities()) != 1 {
		t.Fatalf("expected 1 city, got %d", len(m.Cities()))
	}
	c, _ := m.City("a")
	if c.Name != "A" {
		t.Fatalf("first entry must win, got %s", c.Name)
	}
}

func TestCoarseCity(t *testing.T) {
	if got := CoarseCity("Ganeshguri, Guwahati"); got != "Guwahati" {
		t.Fatalf("unexpected coarse city %q", got)
	}
	if got := CoarseCity("Guwahati"); got != "Guwahati" {
		t.Fatalf("unexpected coarse city %q", got)
	}
}
