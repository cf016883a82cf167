// Package matcher selects vendors for a buyer inquiry and sends each of them
// the price request.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/events"
	"github.com/m3rciful/cemtembot/internal/location"
	"github.com/m3rciful/cemtembot/internal/messenger"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/storage"
)

// DefaultMaxVendors caps the fan-out when no limit is configured.
const DefaultMaxVendors = 3

// Matcher finds vendors and fans inquiries out to them.
type Matcher struct {
	store  storage.Storage
	msgr   messenger.Messenger
	events events.Publisher
	max    int
	now    func() time.Time
}

// New builds a matcher. maxVendors <= 0 selects DefaultMaxVendors; a nil
// publisher discards events.
func New(store storage.Storage, msgr messenger.Messenger, pub events.Publisher, maxVendors int) *Matcher {
	if maxVendors <= 0 {
		maxVendors = DefaultMaxVendors
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Matcher{store: store, msgr: msgr, events: pub, max: maxVendors, now: time.Now}
}

// MaxVendors reports the configured fan-out cap.
func (m *Matcher) MaxVendors() int { return m.max }

// FindVendors returns active vendors for material in city. "both" is the
// union of cement and TMT vendors in first-seen order. When nothing matches
// the lookup is retried once with the coarse city of a "Locality, City" value.
func (m *Matcher) FindVendors(ctx context.Context, city string, material domain.Material) ([]domain.Vendor, error) {
	found, err := m.lookup(ctx, city, material)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		if coarse := location.CoarseCity(city); coarse != "" && !strings.EqualFold(coarse, strings.TrimSpace(city)) {
			logger.Debug(ctx, logger.CompMatcher, "match.fallback",
				slog.String("city", city),
				slog.String("coarse", coarse),
			)
			return m.lookup(ctx, coarse, material)
		}
	}
	return found, nil
}

func (m *Matcher) lookup(ctx context.Context, city string, material domain.Material) ([]domain.Vendor, error) {
	var out []domain.Vendor
	seen := make(map[string]struct{})
	for _, mat := range material.Expand() {
		vs, err := m.store.VendorsByMaterialAndCity(ctx, mat, city)
		if err != nil {
			return nil, fmt.Errorf("find %s vendors in %q: %w", mat, city, err)
		}
		for _, v := range vs {
			if _, dup := seen[v.VendorID]; dup {
				continue
			}
			seen[v.VendorID] = struct{}{}
			out = append(out, v)
		}
	}
	return out, nil
}

// Dispatch stores the inquiry with a snapshot of the selected vendors and
// sends each of them the price request. The inquiry is stored even when no
// vendor matched. Send failures are logged and skipped.
func (m *Matcher) Dispatch(ctx context.Context, inq domain.Inquiry) (domain.Inquiry, []domain.Vendor, error) {
	vendors, err := m.FindVendors(ctx, inq.City, inq.Material)
	if err != nil {
		return inq, nil, err
	}
	if len(vendors) > m.max {
		vendors = vendors[:m.max]
	}

	inq.VendorsContacted = make([]string, 0, len(vendors))
	for _, v := range vendors {
		inq.VendorsContacted = append(inq.VendorsContacted, v.VendorID)
	}
	if inq.Status == "" {
		inq.Status = domain.StatusPending
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = m.now().UTC()
	}
	if err := m.store.CreateInquiry(ctx, inq); err != nil {
		return inq, nil, fmt.Errorf("store inquiry %s: %w", inq.InquiryID, err)
	}

	ev := events.Event{
		Type:      events.InquiryCreated,
		InquiryID: inq.InquiryID,
		Material:  string(inq.Material),
		City:      inq.City,
		Channel:   string(inq.Platform),
		Vendors:   inq.VendorsContacted,
		At:        inq.CreatedAt,
	}
	if len(vendors) == 0 {
		ev.Type = events.InquiryUnmatched
	}
	m.publish(ctx, ev)

	logger.Info(ctx, logger.CompMatcher, "inquiry.created",
		slog.String("inquiry_id", inq.InquiryID),
		slog.String("material", string(inq.Material)),
		slog.String("city", inq.City),
		slog.Int("vendors", len(vendors)),
	)

	start := []domain.Option{quote.StartOption(inq.InquiryID)}
	for _, v := range vendors {
		m.notify(ctx, v, inq, start)
	}
	return inq, vendors, nil
}

func (m *Matcher) notify(ctx context.Context, v domain.Vendor, inq domain.Inquiry, start []domain.Option) {
	addr := v.Address()
	if addr.Empty() {
		logger.Warn(ctx, logger.CompMatcher, "fanout.send.skip",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("vendor_id", v.VendorID),
			slog.String("reason", "no_address"),
		)
	} else if err := m.msgr.Send(ctx, addr, RenderPrompt(v, inq), messenger.WithQuickReplies(start)); err != nil {
		logger.Error(ctx, logger.CompMatcher, "fanout.send.fail",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("vendor_id", v.VendorID),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Debug(ctx, logger.CompMatcher, "fanout.send.ok",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("vendor_id", v.VendorID),
		)
	}

	now := m.now().UTC()
	count := v.InquiryCount + 1
	if err := m.store.UpdateVendor(ctx, v.VendorID, domain.VendorPatch{LastQuoted: &now, InquiryCount: &count}); err != nil {
		logger.Error(ctx, logger.CompMatcher, "vendor.update.fail",
			slog.String("vendor_id", v.VendorID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *Matcher) publish(ctx context.Context, ev events.Event) {
	if err := m.events.Publish(ctx, ev); err != nil {
		logger.Warn(ctx, logger.CompMatcher, "events.publish.fail",
			slog.String("inquiry_id", ev.InquiryID),
			slog.String("err", err.Error()),
		)
	}
}
