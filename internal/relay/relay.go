// Package relay persists vendor quotes and forwards them to the buyer who
// raised the inquiry.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/events"
	"github.com/m3rciful/cemtembot/internal/messenger"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/storage"
)

var (
	ErrUnknownVendor  = errors.New("relay: unknown vendor")
	ErrUnknownInquiry = errors.New("relay: unknown inquiry")
)

// Relay delivers quotes.
type Relay struct {
	store  storage.Storage
	msgr   messenger.Messenger
	events events.Publisher
	now    func() time.Time
}

// New builds a relay. A nil publisher discards events.
func New(store storage.Storage, msgr messenger.Messenger, pub events.Publisher) *Relay {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Relay{store: store, msgr: msgr, events: pub, now: time.Now}
}

// Result describes a delivered quote.
type Result struct {
	Vendor    domain.Vendor
	Inquiry   domain.Inquiry
	Responses int
	// Notified is false when persisting succeeded but the buyer message failed.
	Notified bool
}

// Deliver stores one price response per line item, updates the inquiry and
// vendor counters and sends the buyer a summary. Storage is the source of
// truth; a failed buyer send is logged and reported through Result.Notified.
func (r *Relay) Deliver(ctx context.Context, q domain.Quote) (Result, error) {
	vendor, err := r.resolveVendor(ctx, q)
	if err != nil {
		return Result{}, err
	}
	inq, err := r.store.Inquiry(ctx, domain.NormalizeInquiryID(q.InquiryID))
	if errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownInquiry, q.InquiryID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("load inquiry %s: %w", q.InquiryID, err)
	}
	q.InquiryID = inq.InquiryID
	q.VendorID = vendor.VendorID
	q.Items = stampItems(q.Items, inq.Material)

	for _, it := range q.Items {
		pr := &domain.PriceResponse{
			VendorID:       vendor.VendorID,
			InquiryID:      inq.InquiryID,
			Material:       it.Label(),
			Price:          it.Rate,
			GST:            q.GST,
			DeliveryCharge: q.Delivery,
		}
		if err := r.store.CreatePriceResponse(ctx, pr); err != nil {
			return Result{}, fmt.Errorf("store price response for %s: %w", inq.InquiryID, err)
		}
	}

	n, err := r.store.IncrementInquiryResponses(ctx, inq.InquiryID)
	if err != nil {
		return Result{}, fmt.Errorf("count response for %s: %w", inq.InquiryID, err)
	}
	inq.ResponseCount = n
	if inq.Status == domain.StatusPending {
		inq.Status = domain.StatusResponded
	}
	vendor = r.bumpVendor(ctx, vendor)

	res := Result{Vendor: vendor, Inquiry: inq, Responses: n}
	text := BuyerMessage(vendor, inq, q)
	if err := r.msgr.Send(ctx, inq.Buyer, text); err != nil {
		logger.Error(ctx, logger.CompRelay, "quote.relay.fail",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("vendor_id", vendor.VendorID),
			slog.String("err", err.Error()),
		)
	} else {
		res.Notified = true
	}

	logger.Info(ctx, logger.CompRelay, "quote.relayed",
		slog.String("inquiry_id", inq.InquiryID),
		slog.String("vendor_id", vendor.VendorID),
		slog.Int("items", len(q.Items)),
		slog.Bool("notified", res.Notified),
	)
	if err := r.events.Publish(ctx, events.Event{
		Type:      events.QuoteRelayed,
		InquiryID: inq.InquiryID,
		VendorID:  vendor.VendorID,
		Material:  string(inq.Material),
		Channel:   string(inq.Buyer.Channel),
		Items:     len(q.Items),
		At:        r.now().UTC(),
	}); err != nil {
		logger.Warn(ctx, logger.CompRelay, "events.publish.fail",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("err", err.Error()),
		)
	}
	return res, nil
}

func (r *Relay) resolveVendor(ctx context.Context, q domain.Quote) (domain.Vendor, error) {
	var (
		v   domain.Vendor
		err error
	)
	switch {
	case q.VendorID != "":
		v, err = r.store.Vendor(ctx, q.VendorID)
	case q.Vendor.Channel == domain.ChannelTelegram && q.Vendor.ID != "":
		v, err = r.store.VendorByChannelID(ctx, q.Vendor.ID)
	default:
		err = storage.ErrNotFound
	}
	if errors.Is(err, storage.ErrNotFound) {
		return v, fmt.Errorf("%w: %s", ErrUnknownVendor, firstNonEmpty(q.VendorID, q.Vendor.Key()))
	}
	if err != nil {
		return v, fmt.Errorf("load vendor: %w", err)
	}
	return v, nil
}

func (r *Relay) bumpVendor(ctx context.Context, v domain.Vendor) domain.Vendor {
	now := r.now().UTC()
	v.ResponseCount++
	v.LastQuoted = &now
	if v.InquiryCount > 0 {
		v.ResponseRate = float64(v.ResponseCount) / float64(v.InquiryCount)
	}
	patch := domain.VendorPatch{LastQuoted: &now, ResponseCount: &v.ResponseCount, ResponseRate: &v.ResponseRate}
	if err := r.store.UpdateVendor(ctx, v.VendorID, patch); err != nil {
		logger.Error(ctx, logger.CompRelay, "vendor.update.fail",
			slog.String("vendor_id", v.VendorID),
			slog.String("err", err.Error()),
		)
	}
	return v
}

// stampItems fills in the material of free-text quotes, which carry a single
// unlabelled rate.
func stampItems(items []domain.LineItem, m domain.Material) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		if it.Material == "" {
			it.Material = m
		}
		out[i] = it
	}
	return out
}

// BuyerMessage renders the summary sent to the buyer for one vendor quote.
func BuyerMessage(v domain.Vendor, inq domain.Inquiry, q domain.Quote) string {
	var b strings.Builder
	b.WriteString("🏗️ New Quote Received!\n\n")
	fmt.Fprintf(&b, "For your inquiry: %s\n", strings.ToUpper(inq.Material.Label()))
	fmt.Fprintf(&b, "📍 City: %s\n", inq.City)
	if inq.Quantity != "" {
		fmt.Fprintf(&b, "📦 Quantity: %s\n", inq.Quantity)
	}
	fmt.Fprintf(&b, "\n💼 Vendor: %s\n", v.Name)
	b.WriteString(quote.Lines(q))
	fmt.Fprintf(&b, "\n📊 GST: %s%%\n", quote.Amount(q.GST))
	fmt.Fprintf(&b, "🚚 Delivery: %s\n", quote.DeliveryText(q))
	fmt.Fprintf(&b, "📞 Contact: %s\n", v.Phone)
	fmt.Fprintf(&b, "\nInquiry ID: %s\n\n", inq.InquiryID)
	b.WriteString("More quotes may follow from other vendors!")
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
