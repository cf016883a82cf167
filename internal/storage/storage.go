// Package storage persists vendors, inquiries and price responses.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("storage: not found")

// Storage is the persistence contract consumed by the conversation core.
type Storage interface {
	CreateVendor(ctx context.Context, v domain.Vendor) error
	// VendorsByMaterialAndCity returns active vendors supplying material whose
	// city contains the given city or is contained by it, case-insensitively.
	VendorsByMaterialAndCity(ctx context.Context, material domain.Material, city string) ([]domain.Vendor, error)
	VendorByChannelID(ctx context.Context, id string) (domain.Vendor, error)
	Vendor(ctx context.Context, vendorID string) (domain.Vendor, error)
	UpdateVendor(ctx context.Context, vendorID string, patch domain.VendorPatch) error

	CreateInquiry(ctx context.Context, inq domain.Inquiry) error
	Inquiry(ctx context.Context, inquiryID string) (domain.Inquiry, error)
	// IncrementInquiryResponses bumps the response counter, marks a pending
	// inquiry as responded and returns the new count.
	IncrementInquiryResponses(ctx context.Context, inquiryID string) (int, error)

	CreatePriceResponse(ctx context.Context, pr *domain.PriceResponse) error
	PriceResponsesByInquiry(ctx context.Context, inquiryID string) ([]domain.PriceResponse, error)

	Ping(ctx context.Context) error
}

// Deactivate flips a vendor's active flag off. The vendor stops matching new
// inquiries; its record and history stay.
func Deactivate(ctx context.Context, s Storage, vendorID string) error {
	off := false
	return s.UpdateVendor(ctx, vendorID, domain.VendorPatch{IsActive: &off})
}

var validate = validator.New()

// Validate checks a record against its struct tags before it is written.
func Validate(record any) error {
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("storage: invalid %T: %w", record, err)
	}
	return nil
}

// cityMatches applies the loose location rule shared by every backend.
func cityMatches(vendorCity, city string) bool {
	v := strings.ToLower(strings.TrimSpace(vendorCity))
	c := strings.ToLower(strings.TrimSpace(city))
	if v == "" || c == "" {
		return false
	}
	return strings.Contains(v, c) || strings.Contains(c, v)
}
