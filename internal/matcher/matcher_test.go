package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/events"
	"github.com/m3rciful/cemtembot/internal/messenger"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/storage"
)

func addVendor(t *testing.T, s *storage.Memory, id, tg, city string, mats ...domain.Material) {
	t.Helper()
	err := s.CreateVendor(context.Background(), domain.Vendor{
		VendorID:   id,
		Name:       "Vendor " + id,
		Phone:      "9000000000",
		TelegramID: tg,
		City:       city,
		Materials:  mats,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
}

func inquiry(id, city string, mat domain.Material) domain.Inquiry {
	return domain.Inquiry{
		InquiryID:   id,
		UserPhone:   "9876543210",
		Buyer:       domain.Address{Channel: domain.ChannelWeb, ID: "sess-1"},
		Platform:    domain.ChannelWeb,
		Material:    mat,
		CementTypes: []string{"OPC Grade 43"},
		TMTSizes:    []string{"8mm"},
		City:        city,
		Quantity:    "50 bags",
	}
}

func TestFindVendorsFallsBackToCoarseCity(t *testing.T) {
	s := storage.NewMemory()
	addVendor(t, s, "VEN-1", "101", "Guwahati", domain.MaterialCement)
	m := New(s, messenger.NewRecorder(), nil, 0)

	got, err := m.FindVendors(context.Background(), "Ganeshguri, Guwahati", domain.MaterialCement)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].VendorID != "VEN-1" {
		t.Fatalf("expected VEN-1, got %+v", got)
	}

	got, _ = m.FindVendors(context.Background(), "Mumbai", domain.MaterialCement)
	if len(got) != 0 {
		t.Fatalf("expected no vendors in Mumbai, got %d", len(got))
	}
}

func TestFindVendorsBothIsDedupedUnion(t *testing.T) {
	s := storage.NewMemory()
	addVendor(t, s, "VEN-1", "101", "Guwahati", domain.MaterialTMT)
	addVendor(t, s, "VEN-2", "102", "Guwahati", domain.MaterialCement, domain.MaterialTMT)
	addVendor(t, s, "VEN-3", "103", "Guwahati", domain.MaterialCement)
	m := New(s, messenger.NewRecorder(), nil, 0)

	got, _ := m.FindVendors(context.Background(), "guwahati", domain.MaterialBoth)
	ids := make([]string, len(got))
	for i, v := range got {
		ids[i] = v.VendorID
	}
	if strings.Join(ids, ",") != "VEN-2,VEN-3,VEN-1" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestDispatchCapsAndNotifies(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemory()
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		addVendor(t, s, "VEN-"+id, "10"+id, "Guwahati", domain.MaterialCement)
	}
	rec := messenger.NewRecorder()
	pub := &events.Memory{}
	m := New(s, rec, pub, 0)

	inq, vendors, err := m.Dispatch(ctx, inquiry("INQ-1", "Guwahati", domain.MaterialCement))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(vendors) != DefaultMaxVendors || len(inq.VendorsContacted) != DefaultMaxVendors {
		t.Fatalf("expected cap %d, got %d", DefaultMaxVendors, len(vendors))
	}
	if len(rec.Messages()) != DefaultMaxVendors {
		t.Fatalf("expected %d sends, got %d", DefaultMaxVendors, len(rec.Messages()))
	}
	msg, ok := rec.Last(domain.Address{Channel: domain.ChannelTelegram, ID: "101"})
	if !ok {
		t.Fatal("first vendor not notified")
	}
	if len(msg.Options) != 1 || msg.Options[0] != quote.StartOption("INQ-1") {
		t.Fatalf("missing Enter Rate Amount option: %+v", msg.Options)
	}

	stored, err := s.Inquiry(ctx, "INQ-1")
	if err != nil || stored.Status != domain.StatusPending || len(stored.VendorsContacted) != 3 {
		t.Fatalf("unexpected stored inquiry %+v %v", stored, err)
	}
	v, _ := s.Vendor(ctx, "VEN-1")
	if v.InquiryCount != 1 || v.LastQuoted == nil {
		t.Fatalf("vendor counters not updated: %+v", v)
	}
	if v4, _ := s.Vendor(ctx, "VEN-4"); v4.InquiryCount != 0 {
		t.Fatal("vendor beyond the cap must not be touched")
	}
	if types := pub.Types(); len(types) != 1 || types[0] != events.InquiryCreated {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestDispatchWithoutMatchesStillStores(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemory()
	pub := &events.Memory{}
	m := New(s, messenger.NewRecorder(), pub, 3)

	inq, vendors, err := m.Dispatch(ctx, inquiry("INQ-2", "Mumbai", domain.MaterialTMT))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(vendors) != 0 || len(inq.VendorsContacted) != 0 {
		t.Fatalf("expected no vendors, got %d", len(vendors))
	}
	if _, err := s.Inquiry(ctx, "INQ-2"); err != nil {
		t.Fatalf("unmatched inquiry must be stored: %v", err)
	}
	if types := pub.Types(); len(types) != 1 || types[0] != events.InquiryUnmatched {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestDispatchContinuesAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemory()
	addVendor(t, s, "VEN-1", "101", "Guwahati", domain.MaterialCement)
	addVendor(t, s, "VEN-2", "", "Guwahati", domain.MaterialCement)
	addVendor(t, s, "VEN-3", "103", "Guwahati", domain.MaterialCement)
	rec := messenger.NewRecorder()
	rec.Fail["telegram:101"] = errors.New("blocked by user")
	m := New(s, rec, nil, 3)

	_, vendors, err := m.Dispatch(ctx, inquiry("INQ-3", "Guwahati", domain.MaterialCement))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(vendors) != 3 {
		t.Fatalf("expected 3 contacted, got %d", len(vendors))
	}
	msgs := rec.Messages()
	if len(msgs) != 1 || msgs[0].To.ID != "103" {
		t.Fatalf("expected only VEN-3 delivery, got %+v", msgs)
	}
}

func TestBackToBackInquiriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemory()
	addVendor(t, s, "VEN-1", "101", "Guwahati", domain.MaterialCement)
	m := New(s, messenger.NewRecorder(), nil, 0)

	if _, _, err := m.Dispatch(ctx, inquiry("INQ-10", "Guwahati", domain.MaterialCement)); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, _, err := m.Dispatch(ctx, inquiry("INQ-11", "Guwahati", domain.MaterialCement)); err != nil {
		t.Fatalf("second: %v", err)
	}
	a, _ := s.Inquiry(ctx, "INQ-10")
	b, _ := s.Inquiry(ctx, "INQ-11")
	if a.InquiryID == b.InquiryID || len(a.VendorsContacted) != 1 || len(b.VendorsContacted) != 1 {
		t.Fatalf("inquiries not independent: %+v %+v", a, b)
	}
	v, _ := s.Vendor(ctx, "VEN-1")
	if v.InquiryCount != 2 {
		t.Fatalf("expected 2 inquiries on vendor, got %d", v.InquiryCount)
	}
}

func TestRenderPromptRoundTrip(t *testing.T) {
	v := domain.Vendor{VendorID: "VEN-1", Name: "Acme Traders"}
	inq := inquiry("INQ-1700000000000", "Beltola, Guwahati", domain.MaterialBoth)
	inq.CementCompany = "UltraTech"
	text := RenderPrompt(v, inq)

	for _, want := range []string{
		"Hi Acme Traders",
		"Cement (UltraTech)",
		"TMT Bars (Any)",
		"• OPC Grade 43",
		"• 8mm",
		"📦 Quantity: 50 bags",
		"98******10",
		"RATE: [Price] per [Unit]\nGST: [Percentage]%\nDELIVERY: [Charges]\nInquiry ID: INQ-1700000000000",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("prompt missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "9876543210") {
		t.Fatal("buyer phone must be masked")
	}

	reply := "RATE: 350 per bag\nGST: 18%\nDELIVERY: 0\nInquiry ID: INQ-1700000000000-CEMENT"
	p, err := quote.Parse(reply)
	if err != nil || p.InquiryID != inq.InquiryID {
		t.Fatalf("reply to the prompt must parse back to the inquiry: %+v %v", p, err)
	}
}
