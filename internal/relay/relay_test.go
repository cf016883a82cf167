package relay

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

var webBuyer = domain.Address{Channel: domain.ChannelWeb, ID: "sess-42"}

func setup(t *testing.T) (*storage.Memory, *messenger.Recorder, *events.Memory, *Relay) {
	t.Helper()
	ctx := context.Background()
	s := storage.NewMemory()
	if err := s.CreateVendor(ctx, domain.Vendor{
		VendorID:     "VEN-1",
		Name:         "Acme Traders",
		Phone:        "9000000001",
		TelegramID:   "555",
		City:         "Guwahati",
		Materials:    []domain.Material{domain.MaterialCement},
		IsActive:     true,
		InquiryCount: 2,
	}); err != nil {
		t.Fatalf("vendor: %v", err)
	}
	if err := s.CreateInquiry(ctx, domain.Inquiry{
		InquiryID:        "INQ-9",
		UserPhone:        "9876543210",
		Buyer:            webBuyer,
		Platform:         domain.ChannelWeb,
		Material:         domain.MaterialCement,
		CementTypes:      []string{"OPC Grade 43", "PPC Grade 53"},
		City:             "Guwahati",
		Quantity:         "50 bags",
		VendorsContacted: []string{"VEN-1"},
		Status:           domain.StatusPending,
	}); err != nil {
		t.Fatalf("inquiry: %v", err)
	}
	rec := messenger.NewRecorder()
	pub := &events.Memory{}
	return s, rec, pub, New(s, rec, pub)
}

func TestDeliverGuidedQuoteToWebBuyer(t *testing.T) {
	ctx := context.Background()
	s, rec, pub, r := setup(t)
	q := domain.Quote{
		VendorID:  "VEN-1",
		InquiryID: "INQ-9-CEMENT",
		Items: []domain.LineItem{
			{Material: domain.MaterialCement, Item: "OPC Grade 43", Rate: 0, Unit: "unit"},
			{Material: domain.MaterialCement, Item: "PPC Grade 53", Rate: 380, Unit: "unit"},
		},
		GST: 18,
	}
	res, err := r.Deliver(ctx, q)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !res.Notified || res.Responses != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	prs, _ := s.PriceResponsesByInquiry(ctx, "INQ-9")
	if len(prs) != 2 || prs[0].Price != 0 || prs[0].Material != "cement - OPC Grade 43" || prs[1].Price != 380 {
		t.Fatalf("unexpected price responses %+v", prs)
	}
	inq, _ := s.Inquiry(ctx, "INQ-9")
	if inq.Status != domain.StatusResponded || inq.ResponseCount != 1 {
		t.Fatalf("inquiry not updated: %+v", inq)
	}
	v, _ := s.Vendor(ctx, "VEN-1")
	if v.ResponseCount != 1 || v.ResponseRate != 0.5 || v.LastQuoted == nil {
		t.Fatalf("vendor counters not updated: %+v", v)
	}

	msg, ok := rec.Last(webBuyer)
	if !ok {
		t.Fatal("buyer not notified on the web channel")
	}
	for _, want := range []string{
		"🏗️ New Quote Received!",
		"💼 Vendor: Acme Traders",
		"CEMENT:\n",
		"• OPC Grade 43: Unavailable",
		"• PPC Grade 53: ₹380 per unit",
		"📊 GST: 18%",
		"🚚 Delivery: Free",
		"📞 Contact: 9000000001",
		"Inquiry ID: INQ-9",
		"More quotes may follow",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("buyer message missing %q:\n%s", want, msg.Text)
		}
	}
	if types := pub.Types(); len(types) != 1 || types[0] != events.QuoteRelayed {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestDeliverFreeTextQuoteByChannel(t *testing.T) {
	ctx := context.Background()
	s, rec, _, r := setup(t)
	p, err := quote.Parse("RATE: 350 per bag\nGST: 12%\nDELIVERY: 50\nInquiry ID: INQ-9")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := r.Deliver(ctx, p.Quote("", domain.Address{Channel: domain.ChannelTelegram, ID: "555"})); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	prs, _ := s.PriceResponsesByInquiry(ctx, "INQ-9")
	if len(prs) != 1 || prs[0].Material != "cement" || prs[0].Price != 350 || prs[0].DeliveryCharge != 50 {
		t.Fatalf("unexpected price responses %+v", prs)
	}
	msg, _ := rec.Last(webBuyer)
	if !strings.Contains(msg.Text, "• Rate: ₹350 per bag") || !strings.Contains(msg.Text, "🚚 Delivery: ₹50") {
		t.Fatalf("unexpected buyer message:\n%s", msg.Text)
	}
}

func TestDeliverLookupMisses(t *testing.T) {
	ctx := context.Background()
	s, rec, _, r := setup(t)

	_, err := r.Deliver(ctx, domain.Quote{VendorID: "VEN-404", InquiryID: "INQ-9"})
	if !errors.Is(err, ErrUnknownVendor) {
		t.Fatalf("expected ErrUnknownVendor, got %v", err)
	}
	_, err = r.Deliver(ctx, domain.Quote{Vendor: domain.Address{Channel: domain.ChannelTelegram, ID: "999"}, InquiryID: "INQ-9"})
	if !errors.Is(err, ErrUnknownVendor) {
		t.Fatalf("expected ErrUnknownVendor by channel, got %v", err)
	}
	_, err = r.Deliver(ctx, domain.Quote{VendorID: "VEN-1", InquiryID: "INQ-404"})
	if !errors.Is(err, ErrUnknownInquiry) {
		t.Fatalf("expected ErrUnknownInquiry, got %v", err)
	}
	if len(rec.Messages()) != 0 {
		t.Fatal("nothing may be sent on a lookup miss")
	}
	if prs, _ := s.PriceResponsesByInquiry(ctx, "INQ-9"); len(prs) != 0 {
		t.Fatal("nothing may be stored on a lookup miss")
	}
}

func TestDeliverKeepsDataWhenBuyerUnreachable(t *testing.T) {
	ctx := context.Background()
	s, rec, _, r := setup(t)
	rec.Fail[webBuyer.Key()] = messenger.ErrNoRoute
	res, err := r.Deliver(ctx, domain.Quote{VendorID: "VEN-1", InquiryID: "INQ-9", Items: []domain.LineItem{{Rate: 300}}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.Notified {
		t.Fatal("send failure must be reported")
	}
	if prs, _ := s.PriceResponsesByInquiry(ctx, "INQ-9"); len(prs) != 1 {
		t.Fatalf("price response must survive a failed send, got %d", len(prs))
	}
}
