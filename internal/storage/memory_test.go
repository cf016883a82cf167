package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/cemtembot/internal/domain"
)

func seedVendor(t *testing.T, m *Memory, id, city string, active bool, mats ...domain.Material) {
	t.Helper()
	err := m.CreateVendor(context.Background(), domain.Vendor{
		VendorID:   id,
		Name:       "Vendor " + id,
		Phone:      "9000000000",
		TelegramID: "tg-" + id,
		City:       city,
		Materials:  mats,
		IsActive:   active,
	})
	if err != nil {
		t.Fatalf("create vendor %s: %v", id, err)
	}
}

func TestMemoryVendorLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedVendor(t, m, "VEN-1", "Guwahati", true, domain.MaterialCement)
	seedVendor(t, m, "VEN-2", "Ganeshguri, Guwahati", true, domain.MaterialCement, domain.MaterialTMT)
	seedVendor(t, m, "VEN-3", "Guwahati", false, domain.MaterialCement)
	seedVendor(t, m, "VEN-4", "Shillong", true, domain.MaterialCement)

	got, err := m.VendorsByMaterialAndCity(ctx, domain.MaterialCement, "guwahati")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 || got[0].VendorID != "VEN-1" || got[1].VendorID != "VEN-2" {
		t.Fatalf("unexpected vendors %+v", got)
	}

	got, _ = m.VendorsByMaterialAndCity(ctx, domain.MaterialTMT, "Ganeshguri, Guwahati")
	if len(got) != 1 || got[0].VendorID != "VEN-2" {
		t.Fatalf("unexpected tmt vendors %+v", got)
	}

	if got, _ := m.VendorsByMaterialAndCity(ctx, domain.MaterialCement, ""); len(got) != 0 {
		t.Fatalf("empty city must not match, got %d", len(got))
	}

	v, err := m.VendorByChannelID(ctx, "tg-VEN-4")
	if err != nil || v.VendorID != "VEN-4" {
		t.Fatalf("channel lookup: %v %+v", err, v)
	}
	if _, err := m.Vendor(ctx, "VEN-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRejectsInvalidRecords(t *testing.T) {
	m := NewMemory()
	err := m.CreateVendor(context.Background(), domain.Vendor{VendorID: "X-1", Name: "n", Phone: "1", City: "c", Materials: []domain.Material{domain.MaterialCement}})
	if err == nil {
		t.Fatal("vendor id without prefix must be rejected")
	}
	err = m.CreateVendor(context.Background(), domain.Vendor{VendorID: "VEN-1", Name: "n", Phone: "1", City: "c", Materials: []domain.Material{domain.MaterialBoth}})
	if err == nil {
		t.Fatal("vendor materials are concrete, both must be rejected")
	}
	err = m.CreatePriceResponse(context.Background(), &domain.PriceResponse{VendorID: "VEN-1", InquiryID: "INQ-1", Material: "cement", Price: -1})
	if err == nil {
		t.Fatal("negative price must be rejected")
	}
}

func TestMemoryInquiryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	inq := domain.Inquiry{
		InquiryID:        "INQ-1",
		UserPhone:        "9876543210",
		Buyer:            domain.Address{Channel: domain.ChannelWeb, ID: "s1"},
		Platform:         domain.ChannelWeb,
		Material:         domain.MaterialCement,
		City:             "Guwahati",
		VendorsContacted: []string{"VEN-1"},
		Status:           domain.StatusPending,
	}
	if err := m.CreateInquiry(ctx, inq); err != nil {
		t.Fatalf("create: %v", err)
	}
	inq.VendorsContacted[0] = "VEN-X"
	got, _ := m.Inquiry(ctx, "INQ-1")
	if got.VendorsContacted[0] != "VEN-1" {
		t.Fatal("stored snapshot must not alias the caller's slice")
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}

	n, err := m.IncrementInquiryResponses(ctx, "INQ-1")
	if err != nil || n != 1 {
		t.Fatalf("increment: %d %v", n, err)
	}
	got, _ = m.Inquiry(ctx, "INQ-1")
	if got.Status != domain.StatusResponded {
		t.Fatalf("expected responded, got %s", got.Status)
	}
	if _, err := m.IncrementInquiryResponses(ctx, "INQ-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	pr := &domain.PriceResponse{VendorID: "VEN-1", InquiryID: "INQ-1", Material: "cement - OPC Grade 43", Price: 0}
	if err := m.CreatePriceResponse(ctx, pr); err != nil {
		t.Fatalf("price response: %v", err)
	}
	if pr.ID != 1 {
		t.Fatalf("expected id 1, got %d", pr.ID)
	}
	list, _ := m.PriceResponsesByInquiry(ctx, "INQ-1")
	if len(list) != 1 || list[0].Price != 0 {
		t.Fatalf("unexpected responses %+v", list)
	}
}

func TestMemoryUpdateVendor(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedVendor(t, m, "VEN-1", "Guwahati", true, domain.MaterialTMT)
	now := time.Now()
	count := 3
	inactive := false
	if err := m.UpdateVendor(ctx, "VEN-1", domain.VendorPatch{LastQuoted: &now, ResponseCount: &count, IsActive: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, _ := m.Vendor(ctx, "VEN-1")
	if v.ResponseCount != 3 || v.IsActive || v.LastQuoted == nil || !v.LastQuoted.Equal(now) {
		t.Fatalf("patch not applied: %+v", v)
	}
	if v.InquiryCount != 0 {
		t.Fatalf("unset fields must be untouched, got %d", v.InquiryCount)
	}
	if err := m.UpdateVendor(ctx, "VEN-2", domain.VendorPatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivateStopsMatching(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedVendor(t, m, "VEN-1", "Guwahati", true, domain.MaterialCement)
	if err := Deactivate(ctx, m, "VEN-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	v, err := m.Vendor(ctx, "VEN-1")
	if err != nil || v.IsActive {
		t.Fatalf("vendor must stay stored and inactive: %+v %v", v, err)
	}
	got, err := m.VendorsByMaterialAndCity(ctx, domain.MaterialCement, "guwahati")
	if err != nil || len(got) != 0 {
		t.Fatalf("inactive vendor matched: %+v %v", got, err)
	}
	if err := Deactivate(ctx, m, "VEN-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
