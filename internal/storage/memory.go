package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Memory is a goroutine-safe in-process Storage used for local runs and tests.
type Memory struct {
	mu        sync.RWMutex
	vendors   map[string]domain.Vendor
	order     []string
	inquiries map[string]domain.Inquiry
	responses []domain.PriceResponse
	nextID    int64
	now       func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		vendors:   make(map[string]domain.Vendor),
		inquiries: make(map[string]domain.Inquiry),
		now:       time.Now,
	}
}

func (m *Memory) CreateVendor(_ context.Context, v domain.Vendor) error {
	if err := Validate(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.vendors[v.VendorID]; dup {
		return fmt.Errorf("storage: vendor %s already exists", v.VendorID)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.now()
	}
	v.Materials = append([]domain.Material(nil), v.Materials...)
	m.vendors[v.VendorID] = v
	m.order = append(m.order, v.VendorID)
	return nil
}

func (m *Memory) VendorsByMaterialAndCity(_ context.Context, material domain.Material, city string) ([]domain.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Vendor
	for _, id := range m.order {
		v := m.vendors[id]
		if v.IsActive && v.Supplies(material) && cityMatches(v.City, city) {
			out = append(out, copyVendor(v))
		}
	}
	return out, nil
}

func (m *Memory) VendorByChannelID(_ context.Context, id string) (domain.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, vid := range m.order {
		if v := m.vendors[vid]; v.TelegramID != "" && v.TelegramID == id {
			return copyVendor(v), nil
		}
	}
	return domain.Vendor{}, ErrNotFound
}

func (m *Memory) Vendor(_ context.Context, vendorID string) (domain.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vendors[vendorID]
	if !ok {
		return domain.Vendor{}, ErrNotFound
	}
	return copyVendor(v), nil
}

func (m *Memory) UpdateVendor(_ context.Context, vendorID string, p domain.VendorPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[vendorID]
	if !ok {
		return ErrNotFound
	}
	if p.LastQuoted != nil {
		t := *p.LastQuoted
		v.LastQuoted = &t
	}
	if p.ResponseCount != nil {
		v.ResponseCount = *p.ResponseCount
	}
	if p.InquiryCount != nil {
		v.InquiryCount = *p.InquiryCount
	}
	if p.ResponseRate != nil {
		v.ResponseRate = *p.ResponseRate
	}
	if p.IsActive != nil {
		v.IsActive = *p.IsActive
	}
	m.vendors[vendorID] = v
	return nil
}

func (m *Memory) CreateInquiry(_ context.Context, inq domain.Inquiry) error {
	if err := Validate(inq); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.inquiries[inq.InquiryID]; dup {
		return fmt.Errorf("storage: inquiry %s already exists", inq.InquiryID)
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = m.now()
	}
	m.inquiries[inq.InquiryID] = copyInquiry(inq)
	return nil
}

func (m *Memory) Inquiry(_ context.Context, inquiryID string) (domain.Inquiry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inq, ok := m.inquiries[inquiryID]
	if !ok {
		return domain.Inquiry{}, ErrNotFound
	}
	return copyInquiry(inq), nil
}

func (m *Memory) IncrementInquiryResponses(_ context.Context, inquiryID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inq, ok := m.inquiries[inquiryID]
	if !ok {
		return 0, ErrNotFound
	}
	inq.ResponseCount++
	if inq.Status == domain.StatusPending {
		inq.Status = domain.StatusResponded
	}
	m.inquiries[inquiryID] = inq
	return inq.ResponseCount, nil
}

func (m *Memory) CreatePriceResponse(_ context.Context, pr *domain.PriceResponse) error {
	if err := Validate(pr); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	pr.ID = m.nextID
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = m.now()
	}
	m.responses = append(m.responses, *pr)
	return nil
}

func (m *Memory) PriceResponsesByInquiry(_ context.Context, inquiryID string) ([]domain.PriceResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.PriceResponse
	for _, pr := range m.responses {
		if pr.InquiryID == inquiryID {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func copyVendor(v domain.Vendor) domain.Vendor {
	v.Materials = append([]domain.Material(nil), v.Materials...)
	if v.LastQuoted != nil {
		t := *v.LastQuoted
		v.LastQuoted = &t
	}
	return v
}

func copyInquiry(inq domain.Inquiry) domain.Inquiry {
	inq.CementTypes = append([]string(nil), inq.CementTypes...)
	inq.TMTSizes = append([]string(nil), inq.TMTSizes...)
	inq.VendorsContacted = append([]string(nil), inq.VendorsContacted...)
	return inq
}
